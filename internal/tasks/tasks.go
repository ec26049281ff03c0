// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tasks wraps the Geo Engine tasks API. Long running server side
// operations such as saving a workflow as a dataset are tracked as tasks.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
)

// Id identifies a task on the server.
type Id string

// ParseId validates that the given string is a well-formed task id.
func ParseId(s string) (Id, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.Wrap(errors.InvalidInput, fmt.Sprintf("invalid task id %q", s), err)
	}
	return Id(s), nil
}

func (id Id) String() string {
	return string(id)
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusFailed    Status = "failed"
)

// Finished reports whether the task reached a terminal state.
func (s Status) Finished() bool {
	switch s {
	case StatusCompleted, StatusAborted, StatusFailed:
		return true
	}
	return false
}

// StatusInfo carries the per-state details of a task status response.
// Which fields are populated depends on Status.
type StatusInfo struct {
	Status Status `json:"status"`

	// running
	PctComplete  string          `json:"pct_complete,omitempty"`
	TimeEstimate string          `json:"time_estimate,omitempty"`
	Info         json.RawMessage `json:"info,omitempty"`

	// completed
	TimeTotal string `json:"timeTotal,omitempty"`

	// failed
	Error json.RawMessage `json:"error,omitempty"`

	// aborted and failed
	CleanUp json.RawMessage `json:"cleanUp,omitempty"`
}

// validate checks that the response carries the fields its status requires.
func (s *StatusInfo) validate() error {
	switch s.Status {
	case StatusRunning:
		if s.PctComplete == "" || s.TimeEstimate == "" || s.Info == nil {
			return errors.New(errors.MalformedResponse, "running task status is missing fields")
		}
	case StatusCompleted:
		if s.Info == nil || s.TimeTotal == "" {
			return errors.New(errors.MalformedResponse, "completed task status is missing fields")
		}
	case StatusAborted:
		if s.CleanUp == nil {
			return errors.New(errors.MalformedResponse, "aborted task status is missing fields")
		}
	case StatusFailed:
		if s.Error == nil || s.CleanUp == nil {
			return errors.New(errors.MalformedResponse, "failed task status is missing fields")
		}
	case "":
		return errors.New(errors.MalformedResponse, "task status response has no status")
	default:
		return errors.New(errors.MalformedResponse, fmt.Sprintf("unknown task status %q", s.Status))
	}
	return nil
}

// String renders the status variants the way the tasks CLI prints them.
func (s *StatusInfo) String() string {
	switch s.Status {
	case StatusRunning:
		return fmt.Sprintf("status=%s, pct_complete=%s, time_estimate=%s, info=%s",
			s.Status, s.PctComplete, s.TimeEstimate, rawString(s.Info))
	case StatusCompleted:
		return fmt.Sprintf("status=%s, info=%s, time_total=%s", s.Status, rawString(s.Info), s.TimeTotal)
	case StatusAborted:
		return fmt.Sprintf("status=%s, clean_up=%s", s.Status, rawString(s.CleanUp))
	case StatusFailed:
		return fmt.Sprintf("status=%s, error=%s, clean_up=%s", s.Status, rawString(s.Error), rawString(s.CleanUp))
	}
	return fmt.Sprintf("status=%s", s.Status)
}

func rawString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// StatusWithId pairs a task id with its status, as reported by the task list.
type StatusWithId struct {
	TaskId Id `json:"task_id"`
	StatusInfo
}

// Service calls the tasks endpoints.
type Service struct {
	c *client.Client
}

// NewService constructs a task Service on the given client.
func NewService(c *client.Client) *Service {
	return &Service{c: c}
}

// List returns the status of all tasks on the instance.
func (s *Service) List(ctx context.Context) ([]StatusWithId, error) {
	var items []StatusWithId
	if err := s.c.RequestAndDecode(ctx, &items, "GET", "tasks/list", nil, nil); err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].TaskId == "" {
			return nil, errors.New(errors.MalformedResponse, "task list entry has no task_id")
		}
		if err := items[i].validate(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Status returns the status of a single task.
func (s *Service) Status(ctx context.Context, id Id) (*StatusInfo, error) {
	var info StatusInfo
	if err := s.c.RequestAndDecode(ctx, &info, "GET", "tasks/"+id.String()+"/status", nil, nil); err != nil {
		return nil, err
	}
	if err := info.validate(); err != nil {
		return nil, err
	}
	return &info, nil
}

// Abort aborts a running task. With force set, the server skips clean-up.
func (s *Service) Abort(ctx context.Context, id Id, force bool) error {
	query := url.Values{"force": {fmt.Sprintf("%t", force)}}
	return s.c.RequestAndDecode(ctx, nil, "GET", "tasks/"+id.String()+"/abort", query, nil)
}

// Wait polls the task status until the task reaches a terminal state.
// The progress callback receives every observed status and may be nil.
func (s *Service) Wait(ctx context.Context, id Id, interval time.Duration, progress func(*StatusInfo)) (*StatusInfo, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	for {
		info, err := s.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			progress(info)
		}
		if info.Status.Finished() {
			return info, nil
		}
		select {
		case <-ctx.Done():
			return info, ctx.Err()
		case <-time.After(interval):
		}
	}
}
