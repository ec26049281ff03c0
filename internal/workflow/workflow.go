// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package workflow wraps the Geo Engine workflow API: registering and
// loading workflow definitions, querying their results through the OGC
// endpoints and streaming them as Arrow record batches.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
	"geoengine/cli/internal/tasks"
)

// Id identifies a registered workflow on the server.
type Id string

// ParseId validates that the given string is a well-formed workflow id.
func ParseId(s string) (Id, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.Wrap(errors.InvalidInput, fmt.Sprintf("invalid workflow id %q", s), err)
	}
	return Id(s), nil
}

func (id Id) String() string {
	return string(id)
}

// Service calls the workflow endpoints.
type Service struct {
	c *client.Client
}

// NewService constructs a workflow Service on the given client.
func NewService(c *client.Client) *Service {
	return &Service{c: c}
}

// Register submits a workflow definition and returns a handle to the new
// workflow. The definition is the operator tree as the engine expects it.
func (s *Service) Register(ctx context.Context, definition json.RawMessage) (*Workflow, error) {
	var resp struct {
		Id string `json:"id"`
	}
	if err := s.c.RequestAndDecode(ctx, &resp, "POST", "workflow", nil, definition); err != nil {
		return nil, err
	}
	id, err := ParseId(resp.Id)
	if err != nil {
		return nil, errors.Wrap(errors.MalformedResponse, "workflow registration response", err)
	}
	return s.Get(ctx, id)
}

// Get loads the result descriptor for an existing workflow id and returns
// a handle. The descriptor decides which query operations are available.
func (s *Service) Get(ctx context.Context, id Id) (*Workflow, error) {
	var raw json.RawMessage
	if err := s.c.RequestAndDecode(ctx, &raw, "GET", "workflow/"+id.String()+"/metadata", nil, nil); err != nil {
		return nil, err
	}
	rd, err := geo.DecodeResultDescriptor(raw)
	if err != nil {
		return nil, err
	}
	return &Workflow{id: id, resultDescriptor: rd, c: s.c}, nil
}

// Workflow is a handle to a registered workflow together with its result
// descriptor.
type Workflow struct {
	id               Id
	resultDescriptor *geo.ResultDescriptor
	c                *client.Client
}

// Id returns the workflow id.
func (w *Workflow) Id() Id {
	return w.id
}

// ResultDescriptor returns the cached result descriptor.
func (w *Workflow) ResultDescriptor() *geo.ResultDescriptor {
	return w.resultDescriptor
}

// Definition fetches the workflow's operator tree.
func (w *Workflow) Definition(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := w.c.RequestAndDecode(ctx, &raw, "GET", "workflow/"+w.id.String(), nil, nil); err != nil {
		return nil, err
	}
	return raw, nil
}

// Provenance fetches the citation records of the workflow's source data.
func (w *Workflow) Provenance(ctx context.Context) ([]geo.ProvenanceOutput, error) {
	var entries []geo.ProvenanceOutput
	if err := w.c.RequestAndDecode(ctx, &entries, "GET", "workflow/"+w.id.String()+"/provenance", nil, nil); err != nil {
		return nil, err
	}
	return entries, nil
}

// MetadataZip writes the workflow's full metadata export, a zip archive of
// definition, metadata and citations, to dst.
func (w *Workflow) MetadataZip(ctx context.Context, dst io.Writer) error {
	resp, err := w.c.RequestRaw(ctx, "GET", "workflow/"+w.id.String()+"/allMetadata/zip", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(dst, resp.Body)
	return err
}

// SaveAsDataset asks the server to materialize the raster result of the
// workflow over the given extent as a new dataset. The returned task id
// tracks the server side computation.
func (w *Workflow) SaveAsDataset(ctx context.Context, rect geo.QueryRectangle, name, displayName, description string) (tasks.Id, error) {
	if !w.resultDescriptor.IsRaster() {
		return "", errors.New(errors.NotRaster, "save as dataset requires a raster result")
	}

	body := struct {
		Name        *string               `json:"name"`
		DisplayName string                `json:"displayName"`
		Description string                `json:"description"`
		Query       geo.APIQueryRectangle `json:"query"`
	}{
		DisplayName: displayName,
		Description: description,
		Query:       rect.API(),
	}
	if name != "" {
		body.Name = &name
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var resp struct {
		TaskId string `json:"task_id"`
	}
	if err := w.c.RequestAndDecode(ctx, &resp, "POST", "workflow/"+w.id.String()+"/dataset", nil, json.RawMessage(payload)); err != nil {
		return "", err
	}
	taskId, err := tasks.ParseId(resp.TaskId)
	if err != nil {
		return "", errors.Wrap(errors.MalformedResponse, "dataset task response", err)
	}
	return taskId, nil
}
