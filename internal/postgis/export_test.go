// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package postgis

import (
	"encoding/json"
	"testing"
	"time"

	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
)

func TestCreateTableSQL(t *testing.T) {
	columns := []string{"index", "label", "rnd"}
	types := map[string]geo.ColumnType{
		"index": geo.ColumnInt,
		"label": geo.ColumnText,
		"rnd":   geo.ColumnFloat,
	}

	got := CreateTableSQL("ports", columns, types)
	want := `CREATE TABLE "ports" (geom geometry, time_start timestamptz, time_end timestamptz, "index" bigint, "label" text, "rnd" double precision)`
	if got != want {
		t.Errorf("CreateTableSQL = %s, want %s", got, want)
	}
}

func TestCreateTableSQLBoolColumn(t *testing.T) {
	got := CreateTableSQL("flags", []string{"active"}, map[string]geo.ColumnType{"active": geo.ColumnBool})
	want := `CREATE TABLE "flags" (geom geometry, time_start timestamptz, time_end timestamptz, "active" boolean)`
	if got != want {
		t.Errorf("CreateTableSQL = %s, want %s", got, want)
	}
}

func TestInsertSQL(t *testing.T) {
	got := InsertSQL("ports", []string{"index", "label"}, 4326)
	want := `INSERT INTO "ports" (geom, time_start, time_end, "index", "label") ` +
		`VALUES (ST_SetSRID(ST_GeomFromGeoJSON($1), 4326), $2, $3, $4, $5)`
	if got != want {
		t.Errorf("InsertSQL = %s, want %s", got, want)
	}
}

func TestInsertSQLNoColumns(t *testing.T) {
	got := InsertSQL("bare", nil, 32633)
	want := `INSERT INTO "bare" (geom, time_start, time_end) ` +
		`VALUES (ST_SetSRID(ST_GeomFromGeoJSON($1), 32633), $2, $3)`
	if got != want {
		t.Errorf("InsertSQL = %s, want %s", got, want)
	}
}

func TestInsertArgs(t *testing.T) {
	start := time.Date(2014, 4, 1, 0, 0, 0, 0, time.UTC)
	f := geo.Feature{
		Geometry: geo.Geometry{
			Type:        "Point",
			Coordinates: json.RawMessage(`[1.0,2.0]`),
		},
		Properties: map[string]any{"label": "Tema", "index": float64(0)},
		When:       geo.TimeSpan{Start: &start},
	}

	args, err := insertArgs(f, []string{"index", "label"})
	if err != nil {
		t.Fatalf("insertArgs: %v", err)
	}
	if len(args) != 5 {
		t.Fatalf("got %d args, want 5", len(args))
	}
	if got := args[0].(string); got != `{"type":"Point","coordinates":[1.0,2.0]}` {
		t.Errorf("geometry arg = %s", got)
	}
	if got := args[1].(time.Time); !got.Equal(start) {
		t.Errorf("start arg = %v, want %v", got, start)
	}
	if args[2] != nil {
		t.Errorf("end arg = %v, want nil", args[2])
	}
	if args[3] != float64(0) || args[4] != "Tema" {
		t.Errorf("column args = %v, %v", args[3], args[4])
	}
}

func TestValidateIdentifier(t *testing.T) {
	for _, name := range []string{"ports", "my_table", "t2"} {
		if err := validateIdentifier(name); err != nil {
			t.Errorf("validateIdentifier(%q) = %v, want nil", name, err)
		}
	}
	for _, name := range []string{"", "2fast", "Ports", `x"; DROP TABLE y`} {
		err := validateIdentifier(name)
		if !errors.HasKind(err, errors.InvalidInput) {
			t.Errorf("validateIdentifier(%q) = %v, want invalid input", name, err)
		}
	}
}

func TestSridFromSRS(t *testing.T) {
	srid, err := sridFromSRS("EPSG:4326")
	if err != nil {
		t.Fatalf("sridFromSRS: %v", err)
	}
	if srid != 4326 {
		t.Errorf("srid = %d, want 4326", srid)
	}

	if _, err := sridFromSRS("urn:ogc:def:crs:EPSG::4326"); !errors.HasKind(err, errors.InvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}
