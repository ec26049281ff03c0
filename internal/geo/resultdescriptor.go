// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package geo

import (
	"encoding/json"
	"fmt"

	"geoengine/cli/internal/errors"
)

// Result descriptor variants, as reported by the workflow metadata endpoint.
const (
	ResultTypeRaster = "raster"
	ResultTypeVector = "vector"
	ResultTypePlot   = "plot"
)

// ResultDescriptor describes the shape of a workflow's output. The server
// reports it as a tagged union; the variant determines which fields are set.
type ResultDescriptor struct {
	Type             string                      `json:"type"`
	SpatialReference string                      `json:"spatialReference,omitempty"`
	DataType         string                      `json:"dataType,omitempty"`
	Measurement      *Measurement                `json:"measurement,omitempty"`
	Columns          map[string]VectorColumnInfo `json:"columns,omitempty"`
}

// IsRaster reports whether the workflow produces raster data.
func (r *ResultDescriptor) IsRaster() bool { return r.Type == ResultTypeRaster }

// IsVector reports whether the workflow produces vector features.
func (r *ResultDescriptor) IsVector() bool { return r.Type == ResultTypeVector }

// IsPlot reports whether the workflow produces a plot.
func (r *ResultDescriptor) IsPlot() bool { return r.Type == ResultTypePlot }

// Validate checks that the variant tag is one of the known result types.
func (r *ResultDescriptor) Validate() error {
	switch r.Type {
	case ResultTypeRaster, ResultTypeVector, ResultTypePlot:
		return nil
	default:
		return errors.New(errors.MalformedResponse, fmt.Sprintf("unknown result descriptor type %q", r.Type))
	}
}

// VectorColumnInfo describes one attribute column of a vector result.
type VectorColumnInfo struct {
	DataType    string       `json:"dataType"`
	Measurement *Measurement `json:"measurement,omitempty"`
}

// Measurement describes what raster cell values or vector columns mean.
// Variants: unitless, continuous (with unit) and classification (with classes).
type Measurement struct {
	Type        string            `json:"type"`
	Measurement string            `json:"measurement,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	Classes     map[string]string `json:"classes,omitempty"`
}

// Provenance is a citation record attached to source data.
type Provenance struct {
	Citation string `json:"citation"`
	License  string `json:"license"`
	URI      string `json:"uri"`
}

// DataId identifies the data a provenance entry refers to; either an internal
// dataset or a layer of an external provider.
type DataId struct {
	Type       string `json:"type"`
	DatasetId  string `json:"datasetId,omitempty"`
	ProviderId string `json:"providerId,omitempty"`
	LayerId    string `json:"layerId,omitempty"`
}

// ProvenanceOutput pairs a provenance record with the data it belongs to.
type ProvenanceOutput struct {
	Data       DataId     `json:"dataId"`
	Provenance Provenance `json:"provenance"`
}

// DecodeResultDescriptor unmarshals and validates a result descriptor payload.
func DecodeResultDescriptor(data []byte) (*ResultDescriptor, error) {
	var rd ResultDescriptor
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, errors.Wrap(errors.MalformedResponse, "result descriptor", err)
	}
	if err := rd.Validate(); err != nil {
		return nil, err
	}
	return &rd, nil
}
