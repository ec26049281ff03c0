// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"geoengine/cli/internal/colorizer"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
)

// GetFeatures queries the workflow's vector result over the given extent
// through the WFS endpoint and returns the features as a collection.
func (w *Workflow) GetFeatures(ctx context.Context, rect geo.QueryRectangle) (*geo.FeatureCollection, error) {
	if !w.resultDescriptor.IsVector() {
		return nil, errors.New(errors.NotVector, "feature queries require a vector result")
	}

	query := url.Values{
		"service":         {"WFS"},
		"version":         {"2.0.0"},
		"request":         {"GetFeature"},
		"outputFormat":    {"application/json"},
		"typeNames":       {w.id.String()},
		"bbox":            {rect.BboxStr()},
		"time":            {rect.TimeStr()},
		"srsName":         {rect.SRS},
		"queryResolution": {rect.Resolution.String()},
	}

	var raw json.RawMessage
	if err := w.c.RequestAndDecode(ctx, &raw, "GET", "wfs/"+w.id.String(), query, nil); err != nil {
		return nil, err
	}
	return geo.DecodeFeatureCollection(raw, rect.SRS)
}

// GetMap renders the workflow's raster result over the given extent as a PNG
// through the WMS endpoint, colored with the given colorizer, and writes the
// image to dst.
func (w *Workflow) GetMap(ctx context.Context, rect geo.QueryRectangle, c colorizer.Colorizer, dst io.Writer) error {
	if !w.resultDescriptor.IsRaster() {
		return errors.New(errors.NotRaster, "map rendering requires a raster result")
	}

	style, err := colorizer.ToJSON(c)
	if err != nil {
		return err
	}

	width, height := rect.PixelSize()
	query := url.Values{
		"service": {"WMS"},
		"version": {"1.3.0"},
		"request": {"GetMap"},
		"layers":  {w.id.String()},
		"styles":  {"custom:" + style},
		"format":  {"image/png"},
		"width":   {strconv.Itoa(width)},
		"height":  {strconv.Itoa(height)},
		"bbox":    {rect.BboxOGCStr()},
		"crs":     {rect.SRS},
		"time":    {rect.TimeStr()},
	}

	resp, err := w.c.RequestRaw(ctx, "GET", "wms/"+w.id.String(), query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(dst, resp.Body)
	return err
}

// CoverageOptions tune a WCS coverage download.
type CoverageOptions struct {
	// Format of the returned raster file.
	Format string
	// ForceNoDataValue overrides the no data value of the requested raster
	// when set.
	ForceNoDataValue *float64
}

// DownloadRaster fetches the workflow's raster result over the given extent
// as a GeoTIFF through the WCS 1.1.1 endpoint and writes it to dst.
func (w *Workflow) DownloadRaster(ctx context.Context, rect geo.QueryRectangle, opts CoverageOptions, dst io.Writer) error {
	if !w.resultDescriptor.IsRaster() {
		return errors.New(errors.NotRaster, "raster downloads require a raster result")
	}

	format := opts.Format
	if format == "" {
		format = "image/tiff"
	}

	query := url.Values{
		"service":     {"WCS"},
		"version":     {"1.1.1"},
		"request":     {"GetCoverage"},
		"identifier":  {w.id.String()},
		"boundingbox": {rect.BboxOGCStr() + "," + rect.SRSURN()},
		"time":        {rect.TimeStr()},
		"format":      {format},
		"gridbasecrs": {rect.SRSURN()},
		"gridcs":      {"urn:ogc:def:cs:OGC:0.0:Grid2dSquareCS"},
		"gridtype":    {"urn:ogc:def:method:WCS:1.1:2dSimpleGrid"},
		"gridorigin":  {rect.GridOriginStr()},
		"gridoffsets": {rect.GridOffsetsStr()},
	}
	if opts.ForceNoDataValue != nil {
		query.Set("nodatavalue", formatFloat(*opts.ForceNoDataValue))
	}

	resp, err := w.c.RequestRaw(ctx, "GET", "wcs/"+w.id.String(), query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(dst, resp.Body)
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PlotResult is the output of a plot workflow query.
type PlotResult struct {
	OutputFormat string   `json:"outputFormat"`
	PlotType     string   `json:"plotType"`
	Data         PlotData `json:"data"`
}

// PlotData carries the plot payload. For Vega plots the specification is a
// JSON string together with optional embedding metadata.
type PlotData struct {
	VegaString string          `json:"vegaString"`
	Metadata   json.RawMessage `json:"metadata"`
}

// PlotChart queries the workflow's plot result over the given extent.
func (w *Workflow) PlotChart(ctx context.Context, rect geo.QueryRectangle) (*PlotResult, error) {
	if !w.resultDescriptor.IsPlot() {
		return nil, errors.New(errors.NotPlot, "chart queries require a plot result")
	}

	query := url.Values{
		"bbox":              {rect.BboxStr()},
		"crs":               {rect.SRS},
		"time":              {rect.TimeStr()},
		"spatialResolution": {rect.Resolution.String()},
	}

	var result PlotResult
	if err := w.c.RequestAndDecode(ctx, &result, "GET", "plot/"+w.id.String(), query, nil); err != nil {
		return nil, err
	}
	if result.OutputFormat == "" && result.PlotType == "" {
		return nil, errors.New(errors.MalformedResponse, fmt.Sprintf("plot response for workflow %s has no content", w.id))
	}
	return &result, nil
}
