// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package datasets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
)

const testToken = "c4983c3e-9b53-47ae-bda9-382223bd5081"

func newTestService(t *testing.T, mux *http.ServeMux) *Service {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := client.New(srv.URL)
	c.Token = testToken
	return NewService(c)
}

func polygonCollection(t *testing.T) *geo.FeatureCollection {
	t.Helper()
	payload := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"geometry": {"type": "Polygon", "coordinates": [[[ -121.46, 47.1 ], [ -99.3, 17.2 ], [ -56.4, 52.0 ], [ -121.46, 47.1 ]]]},
				"properties": {"label": "NA", "index": 0, "rnd": 34.34}
			},
			{
				"type": "Feature",
				"geometry": {"type": "Polygon", "coordinates": [[[ 4.7, 53.6 ], [ 5.0, 43.0 ], [ 15.1, 43.7 ], [ 15.1, 54.4 ], [ 4.7, 53.6 ]]]},
				"properties": {"label": "DE", "index": 1, "rnd": 567.547}
			}
		]
	}`
	fc, err := geo.DecodeFeatureCollection([]byte(payload), "EPSG:4326")
	if err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestUploadFeatures(t *testing.T) {
	mux := http.NewServeMux()
	var gotAuth, gotContentType string
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("geo.json"); err != nil {
			t.Errorf("form file geo.json: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "c314ff6d-3e37-41b4-b9b2-3669f13f7369"}`))
	})

	var gotCreate map[string]any
	mux.HandleFunc("/dataset", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotCreate); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": {"type": "internal", "datasetId": "fc5f9e0f-ac97-421f-a5be-d701915ceb6f"}}`))
	})

	svc := newTestService(t, mux)

	id, err := svc.UploadFeatures(context.Background(), polygonCollection(t), "Countries", NoTime(), OnErrorAbort)
	if err != nil {
		t.Fatalf("UploadFeatures returned error: %v", err)
	}
	if id != "fc5f9e0f-ac97-421f-a5be-d701915ceb6f" {
		t.Errorf("dataset id = %s", id)
	}
	if gotAuth != "Bearer "+testToken {
		t.Errorf("auth header = %q", gotAuth)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("content type = %q", gotContentType)
	}

	if gotCreate["upload"] != "c314ff6d-3e37-41b4-b9b2-3669f13f7369" {
		t.Errorf("upload = %v", gotCreate["upload"])
	}
	definition := gotCreate["definition"].(map[string]any)
	metaData := definition["metaData"].(map[string]any)
	loadingInfo := metaData["loadingInfo"].(map[string]any)
	if loadingInfo["dataType"] != "MultiPolygon" {
		t.Errorf("dataType = %v", loadingInfo["dataType"])
	}
	timeSpec := loadingInfo["time"].(map[string]any)
	if timeSpec["type"] != "none" {
		t.Errorf("time = %v", timeSpec)
	}

	columns := loadingInfo["columns"].(map[string]any)
	floats := toStrings(columns["float"])
	ints := toStrings(columns["int"])
	texts := toStrings(columns["text"])
	if len(floats) != 1 || floats[0] != "rnd" {
		t.Errorf("float columns = %v", floats)
	}
	if len(ints) != 1 || ints[0] != "index" {
		t.Errorf("int columns = %v", ints)
	}
	if len(texts) != 1 || texts[0] != "label" {
		t.Errorf("text columns = %v", texts)
	}

	rd := metaData["resultDescriptor"].(map[string]any)
	if rd["spatialReference"] != "EPSG:4326" {
		t.Errorf("spatialReference = %v", rd["spatialReference"])
	}
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestUploadFeaturesRejectsEmpty(t *testing.T) {
	svc := newTestService(t, http.NewServeMux())

	_, err := svc.UploadFeatures(context.Background(), &geo.FeatureCollection{SRS: "EPSG:4326"}, "x", NoTime(), OnErrorAbort)
	if err == nil {
		t.Fatal("UploadFeatures accepted an empty collection")
	}
	if !errors.HasKind(err, errors.InvalidInput) {
		t.Errorf("error kind = %v", err)
	}
}

func TestUploadErrorEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "Unauthorized", "message": "invalid session"}`))
	})
	svc := newTestService(t, mux)

	_, err := svc.Upload(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("Upload ignored the error envelope")
	}
	apiErr, ok := err.(*client.APIError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if !apiErr.IsUnauthorized() {
		t.Errorf("kind = %q", apiErr.Kind)
	}
}

func TestVolumes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/datasets/volumes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name": "test_data", "path": "/data/test"}]`))
	})
	svc := newTestService(t, mux)

	volumes, err := svc.Volumes(context.Background())
	if err != nil {
		t.Fatalf("Volumes returned error: %v", err)
	}
	if len(volumes) != 1 || volumes[0].Name != "test_data" {
		t.Errorf("volumes = %+v", volumes)
	}
}

func TestTimeSpecJSON(t *testing.T) {
	tests := []struct {
		name string
		spec TimeSpec
		want string
	}{
		{
			name: "none",
			spec: NoTime(),
			want: `{"type":"none"}`,
		},
		{
			name: "start",
			spec: StartTime("t", SecondsTimeFormat(), ZeroDuration()),
			want: `{"duration":{"type":"zero"},"startField":"t","startFormat":{"format":"seconds"},"type":"start"}`,
		},
		{
			name: "start+end",
			spec: StartEndTime("begin", AutoTimeFormat(), "end", CustomTimeFormat("%Y-%m-%d")),
			want: `{"endField":"end","endFormat":{"customFormat":"%Y-%m-%d","format":"custom"},` +
				`"startField":"begin","startFormat":{"format":"auto"},"type":"start+end"}`,
		},
		{
			name: "start+duration",
			spec: StartDurationTime("t", SecondsTimeFormat(), "d"),
			want: `{"durationField":"d","startField":"t","startFormat":{"format":"seconds"},"type":"start+duration"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.spec)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("json = %s, want %s", got, tt.want)
			}
		})
	}
}
