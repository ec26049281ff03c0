// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package geo

import (
	"encoding/json"
	"sort"
	"time"

	"geoengine/cli/internal/errors"
)

// Geometry is a GeoJSON geometry. Coordinates are kept raw so every geometry
// type round-trips without loss.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// TimeSpan is the validity interval the server attaches to each feature.
// GeoJSON has no standard for time, so the "when" member is parsed separately.
type TimeSpan struct {
	Start *time.Time
	End   *time.Time
}

// Feature is one GeoJSON feature with its validity time.
type Feature struct {
	Geometry   Geometry
	Properties map[string]any
	When       TimeSpan
}

// FeatureCollection holds the vector result of a workflow query, the closest
// Go rendition of a geospatial dataframe: rows are features, columns are the
// union of property keys plus the start/end time columns.
type FeatureCollection struct {
	Features []Feature
	SRS      string
}

type rawFeature struct {
	Type       string          `json:"type"`
	Geometry   Geometry        `json:"geometry"`
	Properties map[string]any  `json:"properties"`
	When       json.RawMessage `json:"when,omitempty"`
}

type rawWhen struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

type rawFeatureCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection as produced by
// the WFS endpoint, including the nonstandard per-feature "when" member.
// Unparseable feature times are left nil rather than failing the whole
// collection, matching how coerced time columns behave downstream.
func DecodeFeatureCollection(data []byte, srs string) (*FeatureCollection, error) {
	var raw rawFeatureCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.MalformedResponse, "feature collection", err)
	}
	if raw.Type != "FeatureCollection" {
		return nil, errors.New(errors.MalformedResponse, "expected a GeoJSON FeatureCollection")
	}

	fc := &FeatureCollection{SRS: srs, Features: make([]Feature, 0, len(raw.Features))}
	for _, rf := range raw.Features {
		f := Feature{Geometry: rf.Geometry, Properties: rf.Properties}
		if len(rf.When) > 0 {
			var w rawWhen
			if err := json.Unmarshal(rf.When, &w); err == nil {
				f.When.Start = parseFeatureTime(w.Start)
				f.When.End = parseFeatureTime(w.End)
			}
		}
		fc.Features = append(fc.Features, f)
	}
	return fc, nil
}

func parseFeatureTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// Columns returns the sorted union of property keys across all features.
func (fc *FeatureCollection) Columns() []string {
	seen := map[string]struct{}{}
	for _, f := range fc.Features {
		for k := range f.Properties {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// ColumnType classifies a feature property column for dataset creation and
// PostGIS export.
type ColumnType string

const (
	ColumnFloat ColumnType = "float"
	ColumnInt   ColumnType = "int"
	ColumnText  ColumnType = "text"
	ColumnBool  ColumnType = "bool"
)

// ColumnTypes infers a column type per property key. JSON numbers come in as
// float64; a column stays int only while every value is integral. Mixed or
// string-valued columns degrade to text.
func (fc *FeatureCollection) ColumnTypes() map[string]ColumnType {
	types := map[string]ColumnType{}
	for _, f := range fc.Features {
		for k, v := range f.Properties {
			inferred := inferType(v)
			if inferred == "" {
				continue // null contributes nothing
			}
			prev, ok := types[k]
			switch {
			case !ok:
				types[k] = inferred
			case prev == inferred:
				// unchanged
			case prev == ColumnInt && inferred == ColumnFloat,
				prev == ColumnFloat && inferred == ColumnInt:
				types[k] = ColumnFloat
			default:
				types[k] = ColumnText
			}
		}
	}
	// columns that only ever held nulls default to text
	for _, c := range fc.Columns() {
		if _, ok := types[c]; !ok {
			types[c] = ColumnText
		}
	}
	return types
}

func inferType(v any) ColumnType {
	switch n := v.(type) {
	case nil:
		return ""
	case bool:
		return ColumnBool
	case float64:
		if n == float64(int64(n)) {
			return ColumnInt
		}
		return ColumnFloat
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return ColumnInt
		}
		return ColumnFloat
	default:
		return ColumnText
	}
}

// MarshalJSON renders the collection back to plain GeoJSON with "when" members.
func (fc *FeatureCollection) MarshalJSON() ([]byte, error) {
	raw := rawFeatureCollection{Type: "FeatureCollection", Features: make([]rawFeature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		rf := rawFeature{Type: "Feature", Geometry: f.Geometry, Properties: f.Properties}
		if f.When.Start != nil || f.When.End != nil {
			w := rawWhen{Type: "Interval"}
			if f.When.Start != nil {
				w.Start = f.When.Start.Format(time.RFC3339)
			}
			if f.When.End != nil {
				w.End = f.When.End.Format(time.RFC3339)
			}
			b, err := json.Marshal(w)
			if err != nil {
				return nil, err
			}
			rf.When = b
		}
		raw.Features = append(raw.Features, rf)
	}
	return json.Marshal(raw)
}
