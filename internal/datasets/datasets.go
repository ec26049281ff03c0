// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package datasets wraps the Geo Engine upload and dataset APIs: uploading
// GeoJSON files, registering them as OGR-backed datasets and inspecting the
// server's data volumes.
package datasets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
)

// UploadId identifies an uploaded file on the server.
type UploadId string

// DatasetId identifies an internal dataset.
type DatasetId string

// OnError controls how the OGR source treats unreadable features.
type OnError string

const (
	OnErrorIgnore OnError = "ignore"
	OnErrorAbort  OnError = "abort"
)

// uploadFileName is the name the engine sees for uploaded feature
// collections. The layer name is its basename.
const (
	uploadFileName  = "geo.json"
	uploadLayerName = "geo"
)

// Service calls the upload and dataset endpoints.
type Service struct {
	c *client.Client
}

// NewService constructs a dataset Service on the given client.
func NewService(c *client.Client) *Service {
	return &Service{c: c}
}

// Upload sends a GeoJSON payload to the server and returns the upload id.
func (s *Service) Upload(ctx context.Context, geojson []byte) (UploadId, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadFileName, uploadFileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(geojson); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.c.BaseURL+"/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Id string `json:"id"`
	}
	if err := s.c.DoAndDecode(&resp, req); err != nil {
		return "", err
	}
	if resp.Id == "" {
		return "", errors.New(errors.MalformedResponse, "upload response has no id")
	}
	return UploadId(resp.Id), nil
}

// Definition is the dataset definition built around an upload.
type Definition struct {
	Name           string
	Description    string
	VectorDataType string
	Time           TimeSpec
	OnError        OnError
	Columns        map[string]geo.ColumnType
	SRS            string
}

// CreateFromUpload registers an uploaded GeoJSON file as an OGR-backed
// dataset and returns the new dataset id.
func (s *Service) CreateFromUpload(ctx context.Context, upload UploadId, def Definition) (DatasetId, error) {
	if def.VectorDataType == "" {
		return "", errors.New(errors.InvalidInput, "dataset definition needs a vector data type")
	}
	if def.OnError == "" {
		def.OnError = OnErrorAbort
	}

	floats, ints, texts := splitColumns(def.Columns)

	body := map[string]any{
		"upload": string(upload),
		"definition": map[string]any{
			"properties": map[string]any{
				"name":           def.Name,
				"description":    def.Description,
				"sourceOperator": "OgrSource",
			},
			"metaData": map[string]any{
				"type": "OgrMetaData",
				"loadingInfo": map[string]any{
					"fileName":  uploadFileName,
					"layerName": uploadLayerName,
					"dataType":  def.VectorDataType,
					"time":      def.Time,
					"columns": map[string]any{
						"x":     "",
						"float": floats,
						"int":   ints,
						"text":  texts,
					},
					"onError": string(def.OnError),
				},
				"resultDescriptor": map[string]any{
					"type":             "vector",
					"dataType":         def.VectorDataType,
					"columns":          columnDescriptors(def.Columns),
					"spatialReference": def.SRS,
				},
			},
		},
	}

	var resp struct {
		Id struct {
			Type      string `json:"type"`
			DatasetId string `json:"datasetId"`
		} `json:"id"`
	}
	if err := s.c.RequestAndDecode(ctx, &resp, "POST", "dataset", nil, body); err != nil {
		return "", err
	}
	if resp.Id.Type != "internal" || resp.Id.DatasetId == "" {
		return "", errors.New(errors.MalformedResponse, "dataset response has no internal dataset id")
	}
	return DatasetId(resp.Id.DatasetId), nil
}

// UploadFeatures uploads a feature collection and registers it as a dataset
// in one step, inferring the vector data type and column types from the
// features.
func (s *Service) UploadFeatures(ctx context.Context, fc *geo.FeatureCollection, name string, spec TimeSpec, onError OnError) (DatasetId, error) {
	if len(fc.Features) == 0 {
		return "", errors.New(errors.InvalidInput, "cannot upload an empty feature collection")
	}
	if fc.SRS == "" {
		return "", errors.New(errors.InvalidInput, "feature collection must have a spatial reference")
	}

	dataType, err := vectorDataType(fc.Features[0].Geometry.Type)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(fc)
	if err != nil {
		return "", err
	}

	upload, err := s.Upload(ctx, payload)
	if err != nil {
		return "", err
	}

	return s.CreateFromUpload(ctx, upload, Definition{
		Name:           name,
		VectorDataType: dataType,
		Time:           spec,
		OnError:        onError,
		Columns:        fc.ColumnTypes(),
		SRS:            fc.SRS,
	})
}

// Volume is a data volume configured on the server.
type Volume struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Volumes lists the server's data volumes. Requires admin permissions on
// most instances.
func (s *Service) Volumes(ctx context.Context) ([]Volume, error) {
	var volumes []Volume
	if err := s.c.RequestAndDecode(ctx, &volumes, "GET", "datasets/volumes", nil, nil); err != nil {
		return nil, err
	}
	return volumes, nil
}

// vectorDataType maps a GeoJSON geometry type to the engine's multi-geometry
// vector data types.
func vectorDataType(geometryType string) (string, error) {
	switch geometryType {
	case "Point", "MultiPoint":
		return "MultiPoint", nil
	case "LineString", "MultiLineString":
		return "MultiLineString", nil
	case "Polygon", "MultiPolygon":
		return "MultiPolygon", nil
	default:
		return "", errors.New(errors.InvalidInput, fmt.Sprintf("unsupported geometry type %q", geometryType))
	}
}

// splitColumns groups column names by their inferred type. Bool columns are
// uploaded as text since the OGR loading info has no boolean slot.
func splitColumns(columns map[string]geo.ColumnType) (floats, ints, texts []string) {
	floats, ints, texts = []string{}, []string{}, []string{}
	for name, t := range columns {
		switch t {
		case geo.ColumnFloat:
			floats = append(floats, name)
		case geo.ColumnInt:
			ints = append(ints, name)
		default:
			texts = append(texts, name)
		}
	}
	return floats, ints, texts
}

func columnDescriptors(columns map[string]geo.ColumnType) map[string]map[string]string {
	descriptors := make(map[string]map[string]string, len(columns))
	for name, t := range columns {
		dataType := string(t)
		if t == geo.ColumnBool {
			dataType = string(geo.ColumnText)
		}
		descriptors[name] = map[string]string{"dataType": dataType}
	}
	return descriptors
}
