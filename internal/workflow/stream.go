// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"golang.org/x/net/websocket"

	"geoengine/cli/internal/client"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
)

// Column names the engine uses for geometry and time in vector streams.
const (
	GeometryColumn = "__geometry"
	TimeColumn     = "__time"
)

// arrowMagic starts every Arrow IPC file. Frames without it carry a server
// error message instead of data.
var arrowMagic = []byte("ARROW1")

// RasterTile is one tile of a streamed raster result.
type RasterTile struct {
	GeoTransform     geo.GeoTransform
	XSize            int
	YSize            int
	SpatialReference string
	Time             geo.TimeInterval

	// Record holds the single column of cell values. It stays valid until
	// Release is called.
	Record arrow.Record
	// Raw is the Arrow IPC file payload as received, for writing to disk.
	Raw []byte
}

// Release frees the tile's Arrow buffers.
func (t *RasterTile) Release() {
	if t.Record != nil {
		t.Record.Release()
		t.Record = nil
	}
}

// VectorChunk is one batch of a streamed vector result.
type VectorChunk struct {
	SpatialReference string

	// Record holds the feature columns, including the geometry and time
	// columns. It stays valid until Release is called.
	Record arrow.Record
	// Raw is the Arrow IPC file payload as received, for writing to disk.
	Raw []byte
}

// Release frees the chunk's Arrow buffers.
func (c *VectorChunk) Release() {
	if c.Record != nil {
		c.Record.Release()
		c.Record = nil
	}
}

// Geometries returns the chunk's geometry column as WKT strings.
func (c *VectorChunk) Geometries() ([]string, error) {
	idx := c.Record.Schema().FieldIndices(GeometryColumn)
	if len(idx) == 0 {
		return nil, errors.New(errors.MalformedResponse, "vector chunk has no geometry column")
	}
	col, ok := c.Record.Column(idx[0]).(*array.String)
	if !ok {
		return nil, errors.New(errors.MalformedResponse,
			fmt.Sprintf("geometry column has unexpected type %s", c.Record.Column(idx[0]).DataType()))
	}
	wkts := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		wkts[i] = col.Value(i)
	}
	return wkts, nil
}

// RasterStream streams the workflow's raster result over the given extent
// tile by tile. The callback runs for every tile; returning an error stops
// the stream. Tiles are released after the callback returns.
func (w *Workflow) RasterStream(ctx context.Context, rect geo.QueryRectangle, fn func(*RasterTile) error) error {
	if !w.resultDescriptor.IsRaster() {
		return errors.New(errors.NotRaster, "raster streaming requires a raster result")
	}
	return w.stream(ctx, "rasterStream", rect, func(raw []byte) error {
		tile, err := decodeRasterTile(raw)
		if err != nil {
			return err
		}
		defer tile.Release()
		return fn(tile)
	})
}

// VectorStream streams the workflow's vector result over the given extent
// batch by batch. The callback runs for every batch; returning an error
// stops the stream. Chunks are released after the callback returns.
func (w *Workflow) VectorStream(ctx context.Context, rect geo.QueryRectangle, fn func(*VectorChunk) error) error {
	if !w.resultDescriptor.IsVector() {
		return errors.New(errors.NotVector, "vector streaming requires a vector result")
	}
	return w.stream(ctx, "vectorStream", rect, func(raw []byte) error {
		chunk, err := decodeVectorChunk(raw)
		if err != nil {
			return err
		}
		defer chunk.Release()
		return fn(chunk)
	})
}

// stream drives the websocket protocol shared by both stream endpoints:
// send "NEXT", receive one Arrow IPC frame, repeat until the server closes.
func (w *Workflow) stream(ctx context.Context, endpoint string, rect geo.QueryRectangle, fn func([]byte) error) error {
	query := url.Values{
		"resultType":        {"arrow"},
		"spatialBounds":     {rect.BboxStr()},
		"timeInterval":      {rect.TimeStr()},
		"spatialResolution": {rect.Resolution.String()},
	}
	wsURL := w.c.WebsocketURL("workflow/"+w.id.String()+"/"+endpoint, query)

	cfg, err := websocket.NewConfig(wsURL, w.c.BaseURL)
	if err != nil {
		return errors.Wrap(errors.InvalidInput, "stream url", err)
	}
	cfg.Header.Set("Authorization", "Bearer "+w.c.Token)

	ws, err := websocket.DialConfig(cfg)
	if err != nil {
		return errors.Wrap(errors.ExportFailed, "opening stream", err)
	}
	defer ws.Close()
	// frame size is capped by the server's chunk size, not by us
	ws.MaxPayloadBytes = 1 << 30

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := websocket.Message.Send(ws, "NEXT"); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var frame []byte
		if err := websocket.Message.Receive(ws, &frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if !bytes.HasPrefix(frame, arrowMagic) {
			// text frames carry server errors
			return &client.APIError{Kind: "StreamError", Message: strings.TrimSpace(string(frame))}
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

func openRecord(raw []byte) (arrow.Record, error) {
	rdr, err := ipc.NewFileReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(errors.MalformedResponse, "stream frame", err)
	}
	defer rdr.Close()

	// each frame holds exactly one record batch
	rec, err := rdr.Record(0)
	if err != nil {
		return nil, errors.Wrap(errors.MalformedResponse, "stream frame record", err)
	}
	rec.Retain()
	return rec, nil
}

func decodeRasterTile(raw []byte) (*RasterTile, error) {
	rec, err := openRecord(raw)
	if err != nil {
		return nil, err
	}

	md := rec.Schema().Metadata()
	tile := &RasterTile{Record: rec, Raw: raw}

	transform, err := metadataValue(md, "geoTransform")
	if err == nil {
		err = json.Unmarshal([]byte(transform), &tile.GeoTransform)
	}
	if err != nil {
		rec.Release()
		return nil, errors.Wrap(errors.MalformedResponse, "tile geo transform", err)
	}

	if tile.XSize, err = metadataInt(md, "xSize"); err != nil {
		rec.Release()
		return nil, err
	}
	if tile.YSize, err = metadataInt(md, "ySize"); err != nil {
		rec.Release()
		return nil, err
	}
	if tile.SpatialReference, err = metadataValue(md, "spatialReference"); err != nil {
		rec.Release()
		return nil, err
	}

	rawTime, err := metadataValue(md, "time")
	if err == nil {
		var interval geo.APITimeInterval
		if err = json.Unmarshal([]byte(rawTime), &interval); err == nil {
			tile.Time = geo.TimeIntervalFromMillis(interval.Start, interval.End)
		}
	}
	if err != nil {
		rec.Release()
		return nil, errors.Wrap(errors.MalformedResponse, "tile time", err)
	}

	return tile, nil
}

func decodeVectorChunk(raw []byte) (*VectorChunk, error) {
	rec, err := openRecord(raw)
	if err != nil {
		return nil, err
	}
	srs, err := metadataValue(rec.Schema().Metadata(), "spatialReference")
	if err != nil {
		rec.Release()
		return nil, err
	}
	return &VectorChunk{SpatialReference: srs, Record: rec, Raw: raw}, nil
}

func metadataValue(md arrow.Metadata, key string) (string, error) {
	idx := md.FindKey(key)
	if idx < 0 {
		return "", errors.New(errors.MalformedResponse, fmt.Sprintf("stream frame metadata is missing %q", key))
	}
	return md.Values()[idx], nil
}

func metadataInt(md arrow.Metadata, key string) (int, error) {
	v, err := metadataValue(md, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(errors.MalformedResponse, fmt.Sprintf("stream frame metadata %q", key), err)
	}
	return n, nil
}
