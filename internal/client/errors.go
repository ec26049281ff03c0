// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the server's error envelope: {"error": ..., "message": ...}.
// The server sometimes returns it with a 200 status, so bodies are checked
// for it independently of the HTTP status code.
type APIError struct {
	Kind       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "?"
	}
	msg := e.Message
	if msg == "" {
		msg = "?"
	}
	return fmt.Sprintf("%s: %s", kind, msg)
}

// IsUnauthorized reports whether the server rejected the session token.
// The envelope kind is checked too: authorization errors can arrive with a
// 200 status.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Kind == "Unauthorized"
}

// errorFromResponse translates a response body into an *APIError when it
// carries the error envelope, or when the status is non-2xx.
func errorFromResponse(status int, body []byte) error {
	var envelope APIError
	if len(body) > 0 && json.Unmarshal(body, &envelope) == nil && envelope.Kind != "" {
		envelope.StatusCode = status
		return &envelope
	}
	if status >= 200 && status < 300 {
		return nil
	}
	return &APIError{
		Kind:       http.StatusText(status),
		Message:    string(truncate(body, 200)),
		StatusCode: status,
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
