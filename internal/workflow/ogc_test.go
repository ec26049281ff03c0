// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"geoengine/cli/internal/colorizer"
	"geoengine/cli/internal/errors"
)

const portsFeatureCollection = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [0.007420495, 5.631944444]},
			"properties": {
				"scalerank": 7,
				"website": "www.ghanaports.gov.gh",
				"NDVI": null,
				"natlscale": 10.0,
				"featurecla": "Port",
				"name": "Tema"
			},
			"when": {
				"start": "2014-04-01T00:00:00+00:00",
				"end": "2014-05-01T00:00:00+00:00",
				"type": "Interval"
			}
		},
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [-10.05265018, 5.858055556]},
			"properties": {
				"scalerank": 7,
				"website": "www.nationalportauthorityliberia.org",
				"NDVI": 178,
				"natlscale": 10.0,
				"featurecla": "Port",
				"name": "Buchanan"
			},
			"when": {
				"start": "2014-04-01T00:00:00+00:00",
				"end": "2014-05-01T00:00:00+00:00",
				"type": "Interval"
			}
		}
	]
}`

func TestGetFeatures(t *testing.T) {
	mux := http.NewServeMux()
	var gotQuery url.Values
	mux.HandleFunc("/wfs/"+testWorkflowId, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(portsFeatureCollection))
	})
	wf := newTestWorkflow(t, vectorDescriptor, mux)

	fc, err := wf.GetFeatures(context.Background(), testRect(t))
	if err != nil {
		t.Fatalf("GetFeatures returned error: %v", err)
	}

	if got := gotQuery.Get("request"); got != "GetFeature" {
		t.Errorf("request = %q", got)
	}
	if got := gotQuery.Get("version"); got != "2.0.0" {
		t.Errorf("version = %q", got)
	}
	if got := gotQuery.Get("typeNames"); got != testWorkflowId {
		t.Errorf("typeNames = %q", got)
	}
	if got := gotQuery.Get("bbox"); got != "-180,-90,180,90" {
		t.Errorf("bbox = %q", got)
	}
	if got := gotQuery.Get("srsName"); got != "EPSG:4326" {
		t.Errorf("srsName = %q", got)
	}
	if got := gotQuery.Get("time"); got != "2014-04-01T12:00:00.000+00:00" {
		t.Errorf("time = %q", got)
	}
	if got := gotQuery.Get("queryResolution"); got != "0.1,0.1" {
		t.Errorf("queryResolution = %q", got)
	}

	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	if fc.Features[0].Properties["name"] != "Tema" {
		t.Errorf("first feature name = %v", fc.Features[0].Properties["name"])
	}
	if fc.Features[0].When.Start == nil || fc.Features[0].When.Start.Month() != 4 {
		t.Errorf("first feature start = %v", fc.Features[0].When.Start)
	}
	if fc.SRS != "EPSG:4326" {
		t.Errorf("srs = %q", fc.SRS)
	}
}

func TestGetFeaturesRequiresVector(t *testing.T) {
	wf := newTestWorkflow(t, rasterDescriptor, http.NewServeMux())

	_, err := wf.GetFeatures(context.Background(), testRect(t))
	if err == nil {
		t.Fatal("GetFeatures accepted a raster workflow")
	}
	if !errors.HasKind(err, errors.NotVector) {
		t.Errorf("error kind = %v", err)
	}
}

func TestGetMap(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nimagedata")
	mux := http.NewServeMux()
	var gotQuery url.Values
	mux.HandleFunc("/wms/"+testWorkflowId, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})
	wf := newTestWorkflow(t, rasterDescriptor, mux)

	c := colorizer.NewLinearGradient([]colorizer.Breakpoint{
		{Value: 0, Color: colorizer.RGBA{0, 0, 0, 255}},
		{Value: 255, Color: colorizer.RGBA{255, 255, 255, 255}},
	}, colorizer.Transparent, colorizer.Transparent, colorizer.Transparent)

	var buf bytes.Buffer
	if err := wf.GetMap(context.Background(), testRect(t), c, &buf); err != nil {
		t.Fatalf("GetMap returned error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), png) {
		t.Errorf("image payload mismatch")
	}

	if got := gotQuery.Get("request"); got != "GetMap" {
		t.Errorf("request = %q", got)
	}
	if got := gotQuery.Get("version"); got != "1.3.0" {
		t.Errorf("version = %q", got)
	}
	if got := gotQuery.Get("layers"); got != testWorkflowId {
		t.Errorf("layers = %q", got)
	}
	if got := gotQuery.Get("styles"); !strings.HasPrefix(got, "custom:{") {
		t.Errorf("styles = %q", got)
	}
	// axis order is latitude first for EPSG:4326
	if got := gotQuery.Get("bbox"); got != "-90,-180,90,180" {
		t.Errorf("bbox = %q", got)
	}
	if got := gotQuery.Get("width"); got != "3600" {
		t.Errorf("width = %q", got)
	}
	if got := gotQuery.Get("height"); got != "1800" {
		t.Errorf("height = %q", got)
	}
}

func TestGetMapRejectsInvalidColorizer(t *testing.T) {
	wf := newTestWorkflow(t, rasterDescriptor, http.NewServeMux())

	bad := colorizer.NewLinearGradient([]colorizer.Breakpoint{
		{Value: 0, Color: colorizer.Transparent},
	}, colorizer.Transparent, colorizer.Transparent, colorizer.Transparent)

	err := wf.GetMap(context.Background(), testRect(t), bad, &bytes.Buffer{})
	if err == nil {
		t.Fatal("GetMap accepted a single-breakpoint gradient")
	}
	if !errors.HasKind(err, errors.InvalidInput) {
		t.Errorf("error kind = %v", err)
	}
}

func TestDownloadRaster(t *testing.T) {
	tiff := []byte("II*\x00rasterdata")
	mux := http.NewServeMux()
	var gotQuery url.Values
	mux.HandleFunc("/wcs/"+testWorkflowId, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "image/tiff")
		w.Write(tiff)
	})
	wf := newTestWorkflow(t, rasterDescriptor, mux)

	noData := 0.0
	var buf bytes.Buffer
	err := wf.DownloadRaster(context.Background(), testRect(t), CoverageOptions{ForceNoDataValue: &noData}, &buf)
	if err != nil {
		t.Fatalf("DownloadRaster returned error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), tiff) {
		t.Errorf("raster payload mismatch")
	}

	if got := gotQuery.Get("request"); got != "GetCoverage" {
		t.Errorf("request = %q", got)
	}
	if got := gotQuery.Get("version"); got != "1.1.1" {
		t.Errorf("version = %q", got)
	}
	if got := gotQuery.Get("identifier"); got != testWorkflowId {
		t.Errorf("identifier = %q", got)
	}
	if got := gotQuery.Get("boundingbox"); got != "-90,-180,90,180,urn:ogc:def:crs:EPSG::4326" {
		t.Errorf("boundingbox = %q", got)
	}
	if got := gotQuery.Get("gridbasecrs"); got != "urn:ogc:def:crs:EPSG::4326" {
		t.Errorf("gridbasecrs = %q", got)
	}
	if got := gotQuery.Get("gridorigin"); got != "90,-180" {
		t.Errorf("gridorigin = %q", got)
	}
	if got := gotQuery.Get("gridoffsets"); got != "-0.1,0.1" {
		t.Errorf("gridoffsets = %q", got)
	}
	if got := gotQuery.Get("format"); got != "image/tiff" {
		t.Errorf("format = %q", got)
	}
	if got := gotQuery.Get("nodatavalue"); got != "0" {
		t.Errorf("nodatavalue = %q", got)
	}
}

func TestDownloadRasterRequiresRaster(t *testing.T) {
	wf := newTestWorkflow(t, vectorDescriptor, http.NewServeMux())

	err := wf.DownloadRaster(context.Background(), testRect(t), CoverageOptions{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("DownloadRaster accepted a vector workflow")
	}
	if !errors.HasKind(err, errors.NotRaster) {
		t.Errorf("error kind = %v", err)
	}
}

func TestPlotChart(t *testing.T) {
	mux := http.NewServeMux()
	var gotQuery url.Values
	mux.HandleFunc("/plot/"+testWorkflowId, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"outputFormat": "JsonVega",
			"plotType": "Histogram",
			"data": {
				"vegaString": "{\"$schema\": \"https://vega.github.io/schema/vega-lite/v4.json\"}",
				"metadata": null
			}
		}`))
	})
	wf := newTestWorkflow(t, `{"type": "plot", "spatialReference": "EPSG:4326"}`, mux)

	result, err := wf.PlotChart(context.Background(), testRect(t))
	if err != nil {
		t.Fatalf("PlotChart returned error: %v", err)
	}
	if result.PlotType != "Histogram" {
		t.Errorf("plotType = %q", result.PlotType)
	}
	if !strings.Contains(result.Data.VegaString, "vega-lite") {
		t.Errorf("vegaString = %q", result.Data.VegaString)
	}

	if got := gotQuery.Get("bbox"); got != "-180,-90,180,90" {
		t.Errorf("bbox = %q", got)
	}
	if got := gotQuery.Get("spatialResolution"); got != "0.1,0.1" {
		t.Errorf("spatialResolution = %q", got)
	}
}

func TestPlotChartRequiresPlot(t *testing.T) {
	wf := newTestWorkflow(t, rasterDescriptor, http.NewServeMux())

	_, err := wf.PlotChart(context.Background(), testRect(t))
	if err == nil {
		t.Fatal("PlotChart accepted a raster workflow")
	}
	if !errors.HasKind(err, errors.NotPlot) {
		t.Errorf("error kind = %v", err)
	}
}
