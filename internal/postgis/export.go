// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package postgis exports vector query results into a PostGIS table over a
// pgx connection pool. Column types follow the feature collection's inferred
// column types; geometries travel as GeoJSON and are converted server side.
package postgis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoengine/cli/internal/dsn"
	"geoengine/cli/internal/errors"
	"geoengine/cli/internal/geo"
	"geoengine/cli/internal/logging"
)

// Exporter writes feature collections into PostGIS tables.
type Exporter struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool to the PostGIS instance behind the DSN.
func Connect(ctx context.Context, rawDSN string) (*Exporter, error) {
	normalized, err := dsn.Normalize(rawDSN)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, normalized)
	if err != nil {
		return nil, errors.Wrap(errors.ExportFailed, "connecting to postgis", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ExportFailed, "pinging postgis", err)
	}
	return &Exporter{pool: pool}, nil
}

// Close releases the connection pool.
func (e *Exporter) Close() {
	e.pool.Close()
}

// Export creates the target table and inserts all features of the
// collection. The table must not exist yet. Returns the number of rows
// written.
func (e *Exporter) Export(ctx context.Context, fc *geo.FeatureCollection, table string) (int64, error) {
	if len(fc.Features) == 0 {
		return 0, errors.New(errors.InvalidInput, "nothing to export: feature collection is empty")
	}
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}

	srid, err := sridFromSRS(fc.SRS)
	if err != nil {
		return 0, err
	}

	columns := orderedColumns(fc)
	types := fc.ColumnTypes()

	createStmt := CreateTableSQL(table, columns, types)
	logging.Logger().WithField("table", table).Debug("creating export table")
	if _, err := e.pool.Exec(ctx, createStmt); err != nil {
		return 0, errors.Wrap(errors.ExportFailed, fmt.Sprintf("creating table %s", table), err)
	}

	insertStmt := InsertSQL(table, columns, srid)

	batch := &pgx.Batch{}
	for _, f := range fc.Features {
		args, err := insertArgs(f, columns)
		if err != nil {
			return 0, err
		}
		batch.Queue(insertStmt, args...)
	}

	results := e.pool.SendBatch(ctx, batch)
	defer results.Close()

	var written int64
	for range fc.Features {
		tag, err := results.Exec()
		if err != nil {
			return written, errors.Wrap(errors.ExportFailed, fmt.Sprintf("inserting into %s", table), err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// orderedColumns returns the property columns in stable order.
func orderedColumns(fc *geo.FeatureCollection) []string {
	columns := fc.Columns()
	sort.Strings(columns)
	return columns
}

// CreateTableSQL builds the CREATE TABLE statement for an export target.
// Besides the property columns every table gets a geometry column and the
// feature validity interval.
func CreateTableSQL(table string, columns []string, types map[string]geo.ColumnType) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdentifier(table))
	b.WriteString(" (geom geometry, time_start timestamptz, time_end timestamptz")
	for _, col := range columns {
		b.WriteString(", ")
		b.WriteString(quoteIdentifier(col))
		b.WriteString(" ")
		b.WriteString(sqlType(types[col]))
	}
	b.WriteString(")")
	return b.String()
}

// InsertSQL builds the parameterized INSERT statement for an export target.
// The geometry parameter is GeoJSON, converted with ST_GeomFromGeoJSON and
// stamped with the collection's SRID.
func InsertSQL(table string, columns []string, srid int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdentifier(table))
	b.WriteString(" (geom, time_start, time_end")
	for _, col := range columns {
		b.WriteString(", ")
		b.WriteString(quoteIdentifier(col))
	}
	b.WriteString(") VALUES (ST_SetSRID(ST_GeomFromGeoJSON($1), ")
	b.WriteString(strconv.Itoa(srid))
	b.WriteString("), $2, $3")
	for i := range columns {
		b.WriteString(", $")
		b.WriteString(strconv.Itoa(i + 4))
	}
	b.WriteString(")")
	return b.String()
}

func insertArgs(f geo.Feature, columns []string) ([]any, error) {
	geomJSON, err := json.Marshal(f.Geometry)
	if err != nil {
		return nil, errors.Wrap(errors.ExportFailed, "encoding geometry", err)
	}

	args := make([]any, 0, len(columns)+3)
	args = append(args, string(geomJSON))
	if f.When.Start != nil {
		args = append(args, *f.When.Start)
	} else {
		args = append(args, nil)
	}
	if f.When.End != nil {
		args = append(args, *f.When.End)
	} else {
		args = append(args, nil)
	}
	for _, col := range columns {
		args = append(args, f.Properties[col])
	}
	return args, nil
}

func sqlType(t geo.ColumnType) string {
	switch t {
	case geo.ColumnFloat:
		return "double precision"
	case geo.ColumnInt:
		return "bigint"
	case geo.ColumnBool:
		return "boolean"
	default:
		return "text"
	}
}

// validateIdentifier restricts table names to plain identifiers so the
// generated DDL stays unambiguous.
func validateIdentifier(name string) error {
	if name == "" {
		return errors.New(errors.InvalidInput, "table name must not be empty")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return errors.New(errors.InvalidInput,
				fmt.Sprintf("table name %q: use lowercase letters, digits and underscores", name))
		}
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sridFromSRS extracts the numeric SRID from an "EPSG:nnnn" spatial
// reference string.
func sridFromSRS(srs string) (int, error) {
	const prefix = "EPSG:"
	if !strings.HasPrefix(srs, prefix) {
		return 0, errors.New(errors.InvalidInput, fmt.Sprintf("unsupported spatial reference %q", srs))
	}
	srid, err := strconv.Atoi(strings.TrimPrefix(srs, prefix))
	if err != nil {
		return 0, errors.Wrap(errors.InvalidInput, fmt.Sprintf("spatial reference %q", srs), err)
	}
	return srid, nil
}
