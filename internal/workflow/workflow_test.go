// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
)

const (
	testWorkflowId = "956d3656-2d14-5951-96a0-f962b92371cd"
	testToken      = "e327d9c3-a4f3-4bd7-a5e1-30b26cae8064"
)

const vectorDescriptor = `{
	"type": "vector",
	"dataType": "MultiPoint",
	"spatialReference": "EPSG:4326",
	"columns": {
		"scalerank": {"dataType": "int"},
		"name": {"dataType": "text"}
	}
}`

const rasterDescriptor = `{
	"type": "raster",
	"dataType": "U8",
	"spatialReference": "EPSG:4326",
	"measurement": {"type": "unitless"}
}`

func newTestWorkflow(t *testing.T, descriptor string, mux *http.ServeMux) *Workflow {
	t.Helper()
	mux.HandleFunc("/workflow/"+testWorkflowId+"/metadata", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(descriptor))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := client.New(srv.URL)
	c.Token = testToken

	wf, err := NewService(c).Get(context.Background(), Id(testWorkflowId))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	return wf
}

func testRect(t *testing.T) geo.QueryRectangle {
	t.Helper()
	bounds, err := geo.NewBoundingBox(-180, -90, 180, 90)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2014, 4, 1, 12, 0, 0, 0, time.UTC)
	interval, err := geo.NewTimeInterval(start, start)
	if err != nil {
		t.Fatal(err)
	}
	res, err := geo.NewSpatialResolution(0.1, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	return geo.NewQueryRectangle(bounds, interval, res, "")
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	var gotAuth, gotBody string
	mux.HandleFunc("/workflow", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "` + testWorkflowId + `"}`))
	})
	mux.HandleFunc("/workflow/"+testWorkflowId+"/metadata", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(vectorDescriptor))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := client.New(srv.URL)
	c.Token = testToken

	definition := json.RawMessage(`{"type": "Vector", "operator": {"type": "OgrSource"}}`)
	wf, err := NewService(c).Register(context.Background(), definition)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if wf.Id() != Id(testWorkflowId) {
		t.Errorf("id = %s", wf.Id())
	}
	if !wf.ResultDescriptor().IsVector() {
		t.Error("descriptor is not vector")
	}
	if gotAuth != "Bearer "+testToken {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody != string(definition) {
		t.Errorf("body = %q", gotBody)
	}
}

func TestGetUnknownDescriptorType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workflow/"+testWorkflowId+"/metadata", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type": "tensor"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := client.New(srv.URL)
	_, err := NewService(c).Get(context.Background(), Id(testWorkflowId))
	if err == nil {
		t.Fatal("Get accepted unknown descriptor type")
	}
	if !errors.HasKind(err, errors.MalformedResponse) {
		t.Errorf("error kind = %v", err)
	}
}

func TestDefinition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workflow/"+testWorkflowId, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type": "Raster", "operator": {"type": "GdalSource"}}`))
	})
	wf := newTestWorkflow(t, rasterDescriptor, mux)

	def, err := wf.Definition(context.Background())
	if err != nil {
		t.Fatalf("Definition returned error: %v", err)
	}
	var parsed struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(def, &parsed); err != nil {
		t.Fatalf("decode definition: %v", err)
	}
	if parsed.Type != "Raster" {
		t.Errorf("type = %q", parsed.Type)
	}
}

func TestProvenance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workflow/"+testWorkflowId+"/provenance", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"dataId": {"type": "internal", "datasetId": "9ee3619e-d0f9-4ced-9c44-3d407c3aed69"},
			"provenance": {
				"citation": "Natural Earth v4",
				"license": "public domain",
				"uri": "https://www.naturalearthdata.com"
			}
		}]`))
	})
	wf := newTestWorkflow(t, vectorDescriptor, mux)

	entries, err := wf.Provenance(context.Background())
	if err != nil {
		t.Fatalf("Provenance returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].Provenance.Citation != "Natural Earth v4" {
		t.Errorf("citation = %q", entries[0].Provenance.Citation)
	}
	if entries[0].Data.DatasetId != "9ee3619e-d0f9-4ced-9c44-3d407c3aed69" {
		t.Errorf("dataset id = %q", entries[0].Data.DatasetId)
	}
}

func TestMetadataZip(t *testing.T) {
	payload := []byte("PK\x03\x04zipcontent")
	mux := http.NewServeMux()
	mux.HandleFunc("/workflow/"+testWorkflowId+"/allMetadata/zip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write(payload)
	})
	wf := newTestWorkflow(t, rasterDescriptor, mux)

	var buf bytes.Buffer
	if err := wf.MetadataZip(context.Background(), &buf); err != nil {
		t.Fatalf("MetadataZip returned error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("payload mismatch: %q", buf.Bytes())
	}
}

func TestSaveAsDataset(t *testing.T) {
	mux := http.NewServeMux()
	var gotBody map[string]any
	mux.HandleFunc("/workflow/"+testWorkflowId+"/dataset", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"task_id": "7f210984-8f2d-44dc-b211-9e57ed3e6e36"}`))
	})
	wf := newTestWorkflow(t, rasterDescriptor, mux)

	taskId, err := wf.SaveAsDataset(context.Background(), testRect(t), "", "My Dataset", "test description")
	if err != nil {
		t.Fatalf("SaveAsDataset returned error: %v", err)
	}
	if taskId.String() != "7f210984-8f2d-44dc-b211-9e57ed3e6e36" {
		t.Errorf("task id = %s", taskId)
	}

	if gotBody["displayName"] != "My Dataset" {
		t.Errorf("displayName = %v", gotBody["displayName"])
	}
	if gotBody["name"] != nil {
		t.Errorf("name = %v, want null", gotBody["name"])
	}
	query, ok := gotBody["query"].(map[string]any)
	if !ok {
		t.Fatalf("query = %v", gotBody["query"])
	}
	if _, ok := query["spatialBounds"]; !ok {
		t.Error("query has no spatialBounds")
	}
	if _, ok := query["spatialResolution"]; !ok {
		t.Error("query has no spatialResolution")
	}
}

func TestSaveAsDatasetRequiresRaster(t *testing.T) {
	wf := newTestWorkflow(t, vectorDescriptor, http.NewServeMux())

	_, err := wf.SaveAsDataset(context.Background(), testRect(t), "", "My Dataset", "")
	if err == nil {
		t.Fatal("SaveAsDataset accepted a vector workflow")
	}
	if !errors.HasKind(err, errors.NotRaster) {
		t.Errorf("error kind = %v", err)
	}
}

func TestParseId(t *testing.T) {
	if _, err := ParseId(testWorkflowId); err != nil {
		t.Errorf("ParseId rejected valid id: %v", err)
	}
	if _, err := ParseId("foo"); err == nil {
		t.Error("ParseId accepted malformed id")
	}
}
