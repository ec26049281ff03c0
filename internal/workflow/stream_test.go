// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"golang.org/x/net/websocket"

	"geoengine/cli/internal/client"
)

func rasterFrame(t *testing.T) []byte {
	t.Helper()
	md := arrow.NewMetadata(
		[]string{"geoTransform", "xSize", "ySize", "spatialReference", "time"},
		[]string{
			`{"originCoordinate": {"x": -180.0, "y": 90.0}, "xPixelSize": 45.0, "yPixelSize": -22.5}`,
			"8",
			"8",
			"EPSG:4326",
			`{"start": 1396353600000, "end": 1396353600000}`,
		},
	)
	schema := arrow.NewSchema([]arrow.Field{{Name: "data", Type: arrow.PrimitiveTypes.Uint8}}, &md)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	cells := make([]uint8, 64)
	for i := range cells {
		cells[i] = uint8(i)
	}
	builder.Field(0).(*array.Uint8Builder).AppendValues(cells, nil)
	rec := builder.NewRecord()
	defer rec.Release()

	f, err := os.CreateTemp(t.TempDir(), "frame-*.arrow")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema))
	if err != nil {
		t.Fatalf("ipc writer: %v", err)
	}
	if err := w.Write(rec); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read temp file: %v", err)
	}
	return data
}

func vectorFrame(t *testing.T, wkts []string) []byte {
	t.Helper()
	md := arrow.NewMetadata([]string{"spatialReference"}, []string{"EPSG:4326"})
	schema := arrow.NewSchema([]arrow.Field{
		{Name: GeometryColumn, Type: arrow.BinaryTypes.String},
	}, &md)

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	builder.Field(0).(*array.StringBuilder).AppendValues(wkts, nil)
	rec := builder.NewRecord()
	defer rec.Release()

	f, err := os.CreateTemp(t.TempDir(), "frame-*.arrow")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema))
	if err != nil {
		t.Fatalf("ipc writer: %v", err)
	}
	if err := w.Write(rec); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read temp file: %v", err)
	}
	return data
}

func TestDecodeRasterTile(t *testing.T) {
	tile, err := decodeRasterTile(rasterFrame(t))
	if err != nil {
		t.Fatalf("decodeRasterTile: %v", err)
	}
	defer tile.Release()

	if tile.XSize != 8 || tile.YSize != 8 {
		t.Errorf("size = %dx%d", tile.XSize, tile.YSize)
	}
	if tile.SpatialReference != "EPSG:4326" {
		t.Errorf("srs = %s", tile.SpatialReference)
	}
	if tile.GeoTransform.Origin.X != -180 || tile.GeoTransform.Origin.Y != 90 {
		t.Errorf("origin = %+v", tile.GeoTransform.Origin)
	}
	if tile.GeoTransform.XPixelSize != 45 || tile.GeoTransform.YPixelSize != -22.5 {
		t.Errorf("pixel size = %v/%v", tile.GeoTransform.XPixelSize, tile.GeoTransform.YPixelSize)
	}
	want := time.Date(2014, 4, 1, 12, 0, 0, 0, time.UTC)
	if !tile.Time.Start.Equal(want) {
		t.Errorf("time = %v, want %v", tile.Time.Start, want)
	}
	if tile.Record.NumRows() != 64 {
		t.Errorf("rows = %d", tile.Record.NumRows())
	}
}

func TestDecodeRasterTileMissingMetadata(t *testing.T) {
	_, err := decodeVectorChunk(rasterFrame(t)) // ok, has spatialReference
	if err != nil {
		t.Fatalf("decodeVectorChunk on raster frame: %v", err)
	}

	frame := vectorFrame(t, []string{"POINT(0 0)"})
	if _, err := decodeRasterTile(frame); err == nil {
		t.Error("decodeRasterTile accepted a frame without raster metadata")
	}
}

func TestVectorChunkGeometries(t *testing.T) {
	wkts := []string{"POINT(0.0 5.6)", "POINT(-10.05 5.88)"}
	chunk, err := decodeVectorChunk(vectorFrame(t, wkts))
	if err != nil {
		t.Fatalf("decodeVectorChunk: %v", err)
	}
	defer chunk.Release()

	got, err := chunk.Geometries()
	if err != nil {
		t.Fatalf("Geometries: %v", err)
	}
	if len(got) != 2 || got[0] != wkts[0] || got[1] != wkts[1] {
		t.Errorf("Geometries = %v, want %v", got, wkts)
	}
}

func TestRasterStream(t *testing.T) {
	frame := rasterFrame(t)

	mux := http.NewServeMux()
	mux.Handle("/workflow/"+testWorkflowId+"/rasterStream", websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()
		if got := ws.Request().URL.Query().Get("resultType"); got != "arrow" {
			t.Errorf("resultType = %s", got)
		}
		if got := ws.Request().URL.Query().Get("spatialBounds"); got != "-180,-90,180,90" {
			t.Errorf("spatialBounds = %s", got)
		}
		if got := ws.Request().Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("authorization = %s", got)
		}
		for i := 0; i < 2; i++ {
			var msg string
			if err := websocket.Message.Receive(ws, &msg); err != nil {
				return
			}
			if msg != "NEXT" {
				t.Errorf("client sent %q", msg)
				return
			}
			if err := websocket.Message.Send(ws, frame); err != nil {
				return
			}
		}
		// swallow the final request, then close to end the stream
		var msg string
		_ = websocket.Message.Receive(ws, &msg)
	}))

	w := newTestWorkflow(t, rasterDescriptor, mux)

	var tiles int
	err := w.RasterStream(context.Background(), testRect(t), func(tile *RasterTile) error {
		tiles++
		if tile.XSize != 8 {
			t.Errorf("tile xSize = %d", tile.XSize)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RasterStream: %v", err)
	}
	if tiles != 2 {
		t.Errorf("got %d tiles, want 2", tiles)
	}
}

func TestVectorStreamServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/workflow/"+testWorkflowId+"/vectorStream", websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			return
		}
		// text frames carry error messages instead of Arrow data
		_ = websocket.Message.Send(ws, "Operator: could not create operator")
	}))

	w := newTestWorkflow(t, vectorDescriptor, mux)

	err := w.VectorStream(context.Background(), testRect(t), func(*VectorChunk) error {
		t.Error("callback ran for an error frame")
		return nil
	})
	apiErr, ok := err.(*client.APIError)
	if !ok {
		t.Fatalf("want *APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != "StreamError" || apiErr.Message != "Operator: could not create operator" {
		t.Errorf("error = %v", apiErr)
	}
}

func TestStreamRequiresMatchingResultType(t *testing.T) {
	w := newTestWorkflow(t, vectorDescriptor, http.NewServeMux())
	if err := w.RasterStream(context.Background(), testRect(t), nil); err == nil {
		t.Error("RasterStream accepted a vector workflow")
	}
	w = newTestWorkflow(t, rasterDescriptor, http.NewServeMux())
	if err := w.VectorStream(context.Background(), testRect(t), nil); err == nil {
		t.Error("VectorStream accepted a raster workflow")
	}
}
