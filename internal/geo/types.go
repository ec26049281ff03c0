// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package geo defines the spatial and temporal query types shared by the
// Geo Engine client packages: bounding boxes, time intervals, spatial
// resolutions and the query rectangle that combines them.
package geo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"geoengine/cli/internal/errors"
)

// DefaultSRS is the spatial reference assumed when none is given.
const DefaultSRS = "EPSG:4326"

// timeLayout renders instants the way the server expects them: RFC 3339
// with millisecond precision and a numeric UTC offset.
const timeLayout = "2006-01-02T15:04:05.000-07:00"

// BoundingBox2D is a spatial extent in coordinates of some spatial reference.
type BoundingBox2D struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// NewBoundingBox validates the bounds and returns a BoundingBox2D.
func NewBoundingBox(xmin, ymin, xmax, ymax float64) (BoundingBox2D, error) {
	b := BoundingBox2D{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
	if xmin > xmax || ymin > ymax {
		return b, errors.New(errors.InvalidInput, "bounding box: min must be <= max")
	}
	return b, nil
}

// ParseBoundingBox parses "xmin,ymin,xmax,ymax".
func ParseBoundingBox(s string) (BoundingBox2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox2D{}, errors.New(errors.InvalidInput, fmt.Sprintf("bounding box %q: want xmin,ymin,xmax,ymax", s))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox2D{}, errors.Wrap(errors.InvalidInput, fmt.Sprintf("bounding box %q", s), err)
		}
		vals[i] = v
	}
	return NewBoundingBox(vals[0], vals[1], vals[2], vals[3])
}

// String renders the box as "xmin,ymin,xmax,ymax".
func (b BoundingBox2D) String() string {
	return strings.Join([]string{
		formatFloat(b.XMin), formatFloat(b.YMin), formatFloat(b.XMax), formatFloat(b.YMax),
	}, ",")
}

// OGCString renders the box in the axis order the OGC endpoints expect.
// EPSG:4326 is latitude-first there, so x and y are swapped.
func (b BoundingBox2D) OGCString(srs string) string {
	if srs == DefaultSRS {
		return strings.Join([]string{
			formatFloat(b.YMin), formatFloat(b.XMin), formatFloat(b.YMax), formatFloat(b.XMax),
		}, ",")
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TimeInterval is a closed time range. Start == End denotes an instant.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeInterval validates ordering and returns a TimeInterval.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if start.After(end) {
		return TimeInterval{}, errors.New(errors.InvalidInput, "time interval: start must be <= end")
	}
	return TimeInterval{Start: start, End: end}, nil
}

// ParseTimeInterval parses either a single RFC 3339 instant or "start/end".
func ParseTimeInterval(s string) (TimeInterval, error) {
	parts := strings.SplitN(s, "/", 2)
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeInterval{}, errors.Wrap(errors.InvalidInput, fmt.Sprintf("time %q", parts[0]), err)
	}
	end := start
	if len(parts) == 2 {
		end, err = time.Parse(time.RFC3339, strings.TrimSpace(parts[1]))
		if err != nil {
			return TimeInterval{}, errors.Wrap(errors.InvalidInput, fmt.Sprintf("time %q", parts[1]), err)
		}
	}
	return NewTimeInterval(start, end)
}

// String renders the interval for query parameters: a single instant when
// start and end coincide, "start/end" otherwise.
func (t TimeInterval) String() string {
	if t.Start.Equal(t.End) {
		return t.Start.Format(timeLayout)
	}
	return t.Start.Format(timeLayout) + "/" + t.End.Format(timeLayout)
}

// TimeIntervalFromMillis builds an interval from epoch millisecond endpoints,
// the encoding used for stream frame metadata and request bodies.
func TimeIntervalFromMillis(start, end int64) TimeInterval {
	return TimeInterval{
		Start: time.UnixMilli(start).UTC(),
		End:   time.UnixMilli(end).UTC(),
	}
}

// IsInstant reports whether the interval collapses to a single point in time.
func (t TimeInterval) IsInstant() bool {
	return t.Start.Equal(t.End)
}

// SpatialResolution is the pixel size of a raster query in SRS units.
type SpatialResolution struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewSpatialResolution validates that both components are positive.
func NewSpatialResolution(x, y float64) (SpatialResolution, error) {
	if x <= 0 || y <= 0 {
		return SpatialResolution{}, errors.New(errors.InvalidInput, "spatial resolution must be positive")
	}
	return SpatialResolution{X: x, Y: y}, nil
}

// String renders the resolution as "x,y".
func (r SpatialResolution) String() string {
	return formatFloat(r.X) + "," + formatFloat(r.Y)
}

// QueryRectangle is the spatial and temporal extent of a workflow query.
type QueryRectangle struct {
	Bounds     BoundingBox2D
	Time       TimeInterval
	Resolution SpatialResolution
	SRS        string
}

// NewQueryRectangle combines validated bounds, time and resolution. An empty
// srs falls back to DefaultSRS.
func NewQueryRectangle(bounds BoundingBox2D, t TimeInterval, res SpatialResolution, srs string) QueryRectangle {
	if srs == "" {
		srs = DefaultSRS
	}
	return QueryRectangle{Bounds: bounds, Time: t, Resolution: res, SRS: srs}
}

// BboxStr renders the spatial bounds for query parameters.
func (q QueryRectangle) BboxStr() string { return q.Bounds.String() }

// BboxOGCStr renders the spatial bounds in OGC axis order.
func (q QueryRectangle) BboxOGCStr() string { return q.Bounds.OGCString(q.SRS) }

// TimeStr renders the time interval for query parameters.
func (q QueryRectangle) TimeStr() string { return q.Time.String() }

// SRSURN returns the URN form of the spatial reference, used by WCS.
func (q QueryRectangle) SRSURN() string {
	return "urn:ogc:def:crs:" + strings.Replace(q.SRS, ":", "::", 1)
}

// GridOriginStr returns the WCS grid origin, the upper left corner of the
// bounds in OGC axis order.
func (q QueryRectangle) GridOriginStr() string {
	if q.SRS == DefaultSRS {
		return formatFloat(q.Bounds.YMax) + "," + formatFloat(q.Bounds.XMin)
	}
	return formatFloat(q.Bounds.XMin) + "," + formatFloat(q.Bounds.YMax)
}

// GridOffsetsStr returns the WCS grid offsets in OGC axis order. The offset
// along the downward axis is negative since the grid origin is the upper
// left corner.
func (q QueryRectangle) GridOffsetsStr() string {
	if q.SRS == DefaultSRS {
		return formatFloat(-q.Resolution.Y) + "," + formatFloat(q.Resolution.X)
	}
	return formatFloat(q.Resolution.X) + "," + formatFloat(-q.Resolution.Y)
}

// PixelSize returns the raster dimensions covered by the rectangle.
func (q QueryRectangle) PixelSize() (width, height int) {
	width = int((q.Bounds.XMax - q.Bounds.XMin) / q.Resolution.X)
	height = int((q.Bounds.YMax - q.Bounds.YMin) / q.Resolution.Y)
	return width, height
}

// APIQueryRectangle is the request body form of a query rectangle, used by
// endpoints that take the extent as JSON instead of query parameters.
type APIQueryRectangle struct {
	SpatialBounds     APIBounds         `json:"spatialBounds"`
	TimeInterval      APITimeInterval   `json:"timeInterval"`
	SpatialResolution SpatialResolution `json:"spatialResolution"`
}

// APIBounds is the corner pair encoding of a bounding box.
type APIBounds struct {
	LowerLeftCoordinate  Coordinate2D `json:"lowerLeftCoordinate"`
	UpperRightCoordinate Coordinate2D `json:"upperRightCoordinate"`
}

// APITimeInterval carries interval endpoints as epoch milliseconds.
type APITimeInterval struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// API converts the rectangle into its request body form.
func (q QueryRectangle) API() APIQueryRectangle {
	return APIQueryRectangle{
		SpatialBounds: APIBounds{
			LowerLeftCoordinate:  Coordinate2D{X: q.Bounds.XMin, Y: q.Bounds.YMin},
			UpperRightCoordinate: Coordinate2D{X: q.Bounds.XMax, Y: q.Bounds.YMax},
		},
		TimeInterval: APITimeInterval{
			Start: q.Time.Start.UnixMilli(),
			End:   q.Time.End.UnixMilli(),
		},
		SpatialResolution: q.Resolution,
	}
}

// GeoTransform locates a raster tile in its spatial reference.
type GeoTransform struct {
	Origin     Coordinate2D `json:"originCoordinate"`
	XPixelSize float64      `json:"xPixelSize"`
	YPixelSize float64      `json:"yPixelSize"`
}

// Coordinate2D is a point in some spatial reference.
type Coordinate2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// XMax returns the x coordinate one past the last pixel column.
func (g GeoTransform) XMax(xSize int) float64 {
	return g.Origin.X + float64(xSize)*g.XPixelSize
}

// YMin returns the y coordinate one past the last pixel row. YPixelSize is
// negative for north-up rasters.
func (g GeoTransform) YMin(ySize int) float64 {
	return g.Origin.Y + float64(ySize)*g.YPixelSize
}
