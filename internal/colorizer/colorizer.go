// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package colorizer builds Geo Engine compatible color map definitions.
// A colorizer maps raster values to RGBA colors and is passed to WMS
// requests as a custom style.
package colorizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"geoengine/cli/internal/errors"
)

// Colorizer type discriminators as the engine expects them.
const (
	TypeLinearGradient      = "linearGradient"
	TypeLogarithmicGradient = "logarithmicGradient"
	TypePalette             = "palette"
)

// RGBA is a color as the engine encodes it, a four element JSON array.
type RGBA [4]uint8

// Transparent is the color used for unset optional colors.
var Transparent = RGBA{0, 0, 0, 0}

// Breakpoint assigns a color to a raster value. Values between breakpoints
// are interpolated by the engine.
type Breakpoint struct {
	Value float64 `json:"value"`
	Color RGBA    `json:"color"`
}

// Colorizer is a color map definition that can be serialized for the engine.
type Colorizer interface {
	// Validate checks the definition for structural problems before it is
	// sent to the engine.
	Validate() error
	json.Marshaler
}

// ToJSON validates and serializes a colorizer for use in a WMS style
// parameter.
func ToJSON(c Colorizer) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Gradient is a linear or logarithmic gradient colorizer.
type Gradient struct {
	Type        string       `json:"type"`
	Breakpoints []Breakpoint `json:"breakpoints"`
	NoDataColor RGBA         `json:"noDataColor"`
	OverColor   RGBA         `json:"overColor"`
	UnderColor  RGBA         `json:"underColor"`
}

// NewLinearGradient builds a linear gradient colorizer over the given
// breakpoints.
func NewLinearGradient(breakpoints []Breakpoint, noData, over, under RGBA) *Gradient {
	return &Gradient{
		Type:        TypeLinearGradient,
		Breakpoints: breakpoints,
		NoDataColor: noData,
		OverColor:   over,
		UnderColor:  under,
	}
}

// NewLogarithmicGradient builds a logarithmic gradient colorizer. All
// breakpoint values must be positive.
func NewLogarithmicGradient(breakpoints []Breakpoint, noData, over, under RGBA) *Gradient {
	return &Gradient{
		Type:        TypeLogarithmicGradient,
		Breakpoints: breakpoints,
		NoDataColor: noData,
		OverColor:   over,
		UnderColor:  under,
	}
}

// Validate checks breakpoint count, ordering and, for logarithmic
// gradients, positivity.
func (g *Gradient) Validate() error {
	if g.Type != TypeLinearGradient && g.Type != TypeLogarithmicGradient {
		return errors.New(errors.InvalidInput, fmt.Sprintf("unknown gradient type %q", g.Type))
	}
	if len(g.Breakpoints) < 2 {
		return errors.New(errors.InvalidInput,
			fmt.Sprintf("a gradient needs at least 2 breakpoints, got %d", len(g.Breakpoints)))
	}
	for i := 1; i < len(g.Breakpoints); i++ {
		if g.Breakpoints[i].Value <= g.Breakpoints[i-1].Value {
			return errors.New(errors.InvalidInput, "breakpoint values must be strictly increasing")
		}
	}
	if g.Type == TypeLogarithmicGradient && g.Breakpoints[0].Value <= 0 {
		return errors.New(errors.InvalidInput, "logarithmic gradient breakpoint values must be positive")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g *Gradient) MarshalJSON() ([]byte, error) {
	type alias Gradient
	return json.Marshal((*alias)(g))
}

// Palette maps individual raster values to fixed colors.
type Palette struct {
	Type         string          `json:"type"`
	Colors       map[string]RGBA `json:"colors"`
	DefaultColor RGBA            `json:"defaultColor"`
	NoDataColor  RGBA            `json:"noDataColor"`
}

// NewPalette builds a palette colorizer from value/color pairs.
func NewPalette(colors map[float64]RGBA, defaultColor, noData RGBA) *Palette {
	encoded := make(map[string]RGBA, len(colors))
	for value, color := range colors {
		encoded[strconv.FormatFloat(value, 'f', -1, 64)] = color
	}
	return &Palette{
		Type:         TypePalette,
		Colors:       encoded,
		DefaultColor: defaultColor,
		NoDataColor:  noData,
	}
}

// Validate checks that the palette has at least one entry and numeric keys.
func (p *Palette) Validate() error {
	if len(p.Colors) == 0 {
		return errors.New(errors.InvalidInput, "a palette needs at least one color entry")
	}
	for key := range p.Colors {
		if _, err := strconv.ParseFloat(key, 64); err != nil {
			return errors.New(errors.InvalidInput, fmt.Sprintf("palette key %q is not numeric", key))
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *Palette) MarshalJSON() ([]byte, error) {
	type alias Palette
	return json.Marshal((*alias)(p))
}

// Values returns the palette's raster values in ascending order.
func (p *Palette) Values() []float64 {
	values := make([]float64, 0, len(p.Colors))
	for key := range p.Colors {
		v, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	sort.Float64s(values)
	return values
}

// Decode parses a colorizer definition returned by the engine.
func Decode(data []byte) (Colorizer, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(errors.MalformedResponse, "decoding colorizer", err)
	}
	switch head.Type {
	case TypeLinearGradient, TypeLogarithmicGradient:
		var g Gradient
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, errors.Wrap(errors.MalformedResponse, "decoding gradient colorizer", err)
		}
		return &g, nil
	case TypePalette:
		var p Palette
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, errors.Wrap(errors.MalformedResponse, "decoding palette colorizer", err)
		}
		return &p, nil
	default:
		return nil, errors.New(errors.MalformedResponse, fmt.Sprintf("unknown colorizer type %q", head.Type))
	}
}

// Ramp generates n evenly spaced breakpoints between min and max, blending
// linearly between the given start and end colors. It is a small stand-in
// for full color map libraries.
func Ramp(min, max float64, n int, from, to RGBA) ([]Breakpoint, error) {
	if n < 2 {
		return nil, errors.New(errors.InvalidInput, fmt.Sprintf("a ramp needs at least 2 steps, got %d", n))
	}
	if max <= min {
		return nil, errors.New(errors.InvalidInput, fmt.Sprintf("ramp max must be greater than min, got %g and %g", max, min))
	}
	breakpoints := make([]Breakpoint, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		var color RGBA
		for c := 0; c < 4; c++ {
			color[c] = uint8(float64(from[c]) + t*(float64(to[c])-float64(from[c])) + 0.5)
		}
		breakpoints[i] = Breakpoint{
			Value: min + t*(max-min),
			Color: color,
		}
	}
	return breakpoints, nil
}
