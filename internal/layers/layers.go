// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package layers wraps the layer catalog and layerDb APIs. Layers pair a
// workflow with presentation metadata; collections organize them into a
// browsable tree per provider.
package layers

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
)

// Id types of the layer catalog.
type (
	LayerId      string
	CollectionId string
	ProviderId   string
)

// The built-in layer database provider and its root collection.
const (
	LayerDBProviderId     ProviderId   = "ce5e84db-cbf9-48a2-9a32-d4b7cc56ea74"
	LayerDBRootCollection CollectionId = "05102bb3-a855-4a37-8a8a-30026a91fef1"
)

// Listing item types inside a collection.
const (
	ItemTypeLayer      = "layer"
	ItemTypeCollection = "collection"
)

// ItemId carries the id pair of a listing item. Exactly one of LayerId and
// CollectionId is set, depending on the item type.
type ItemId struct {
	ProviderId   ProviderId   `json:"providerId"`
	LayerId      LayerId      `json:"layerId,omitempty"`
	CollectionId CollectionId `json:"collectionId,omitempty"`
}

// Listing is one entry of a collection: a layer or a child collection.
type Listing struct {
	Id          ItemId `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Collection is a named group of layers and child collections.
type Collection struct {
	Id          ItemId    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Items       []Listing `json:"items"`
}

// Layer is a workflow published in the catalog together with presentation
// metadata.
type Layer struct {
	Id          ItemId          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Workflow    json.RawMessage `json:"workflow"`
	Symbology   json.RawMessage `json:"symbology"`
	Properties  json.RawMessage `json:"properties"`
	Metadata    json.RawMessage `json:"metadata"`
}

// Service calls the layer catalog endpoints.
type Service struct {
	c *client.Client
}

// NewService constructs a layer Service on the given client.
func NewService(c *client.Client) *Service {
	return &Service{c: c}
}

func pageQuery(offset, limit int) url.Values {
	if limit <= 0 {
		limit = 20
	}
	return url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
}

// RootCollection lists the top level collections of all providers.
func (s *Service) RootCollection(ctx context.Context, offset, limit int) (*Collection, error) {
	var coll Collection
	if err := s.c.RequestAndDecode(ctx, &coll, "GET", "layers/collections", pageQuery(offset, limit), nil); err != nil {
		return nil, err
	}
	return &coll, nil
}

// Collection lists one collection of a provider.
func (s *Service) Collection(ctx context.Context, provider ProviderId, id CollectionId, offset, limit int) (*Collection, error) {
	var coll Collection
	path := "layers/collections/" + string(provider) + "/" + string(id)
	if err := s.c.RequestAndDecode(ctx, &coll, "GET", path, pageQuery(offset, limit), nil); err != nil {
		return nil, err
	}
	return &coll, nil
}

// Layer fetches a single layer, including its workflow definition.
func (s *Service) Layer(ctx context.Context, provider ProviderId, id LayerId) (*Layer, error) {
	var layer Layer
	if err := s.c.RequestAndDecode(ctx, &layer, "GET", "layers/"+string(provider)+"/"+string(id), nil, nil); err != nil {
		return nil, err
	}
	return &layer, nil
}

// AddCollection creates a new child collection in the layer database.
// Requires admin permissions.
func (s *Service) AddCollection(ctx context.Context, parent CollectionId, name, description string) (CollectionId, error) {
	body := map[string]string{"name": name, "description": description}
	var resp struct {
		Id string `json:"id"`
	}
	path := "layerDb/collections/" + string(parent) + "/collections"
	if err := s.c.RequestAndDecode(ctx, &resp, "POST", path, nil, body); err != nil {
		return "", err
	}
	if resp.Id == "" {
		return "", errors.New(errors.MalformedResponse, "add collection response has no id")
	}
	return CollectionId(resp.Id), nil
}

// AddLayer publishes a workflow as a new layer in a layer database
// collection. Requires admin permissions.
func (s *Service) AddLayer(ctx context.Context, collection CollectionId, name, description string, workflow, symbology json.RawMessage) (LayerId, error) {
	body := map[string]any{
		"collectionId": string(collection),
		"layer": map[string]any{
			"name":        name,
			"description": description,
			"workflow":    workflow,
			"symbology":   symbology,
		},
	}
	var resp struct {
		Id string `json:"id"`
	}
	if err := s.c.RequestAndDecode(ctx, &resp, "POST", "layerDb/layers", nil, body); err != nil {
		return "", err
	}
	if resp.Id == "" {
		return "", errors.New(errors.MalformedResponse, "add layer response has no id")
	}
	return LayerId(resp.Id), nil
}

// RemoveLayerFromCollection detaches a layer from a layer database
// collection. Requires admin permissions.
func (s *Service) RemoveLayerFromCollection(ctx context.Context, collection CollectionId, layer LayerId) error {
	path := "layerDb/collections/" + string(collection) + "/layers/" + string(layer)
	return s.c.RequestAndDecode(ctx, nil, "DELETE", path, nil, nil)
}

// RemoveCollection deletes a layer database collection. Requires admin
// permissions.
func (s *Service) RemoveCollection(ctx context.Context, id CollectionId) error {
	return s.c.RequestAndDecode(ctx, nil, "DELETE", "layerDb/collections/"+string(id), nil, nil)
}
