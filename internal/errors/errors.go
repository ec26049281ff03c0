// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so callers can distinguish input mistakes from server
// rejections and missing-session situations.
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidInput indicates a malformed client-side value (bounds, times, colors).
	InvalidInput Kind = "invalid_input"
	// NoSession indicates an operation that requires a session before login.
	NoSession Kind = "no_session"
	// NotRaster indicates a raster-only operation called on another result type.
	NotRaster Kind = "not_raster"
	// NotVector indicates a vector-only operation called on another result type.
	NotVector Kind = "not_vector"
	// NotPlot indicates a plot-only operation called on another result type.
	NotPlot Kind = "not_plot"
	// MalformedResponse indicates a server payload missing required fields.
	MalformedResponse Kind = "malformed_response"
	// ExportFailed indicates a PostGIS export that could not complete.
	ExportFailed Kind = "export_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// HasKind reports whether err is (or wraps) an *E of the given kind.
func HasKind(err error, kind Kind) bool {
	var e *E
	return stderrors.As(err, &e) && e.Kind == kind
}
