package geo

import (
	"testing"

	"geoengine/cli/internal/errors"
)

func TestDecodeResultDescriptorRaster(t *testing.T) {
	data := `{
		"type": "raster",
		"dataType": "U8",
		"spatialReference": "EPSG:4326",
		"measurement": {"type": "unitless"}
	}`

	d, err := DecodeResultDescriptor([]byte(data))
	if err != nil {
		t.Fatalf("DecodeResultDescriptor: %v", err)
	}
	if !d.IsRaster() || d.IsVector() || d.IsPlot() {
		t.Errorf("type predicates wrong for %+v", d)
	}
	if d.DataType != "U8" {
		t.Errorf("DataType = %s", d.DataType)
	}
	if d.Measurement == nil || d.Measurement.Type != "unitless" {
		t.Errorf("Measurement = %+v", d.Measurement)
	}
}

func TestDecodeResultDescriptorVector(t *testing.T) {
	data := `{
		"type": "vector",
		"dataType": "MultiPoint",
		"spatialReference": "EPSG:4326",
		"columns": {
			"natlscale": {"dataType": "float"},
			"name": {"dataType": "text"}
		}
	}`

	d, err := DecodeResultDescriptor([]byte(data))
	if err != nil {
		t.Fatalf("DecodeResultDescriptor: %v", err)
	}
	if !d.IsVector() {
		t.Errorf("IsVector = false for %+v", d)
	}
	if d.Columns["natlscale"].DataType != "float" {
		t.Errorf("columns = %+v", d.Columns)
	}
}

func TestDecodeResultDescriptorUnknownType(t *testing.T) {
	_, err := DecodeResultDescriptor([]byte(`{"type": "hologram"}`))
	if !errors.HasKind(err, errors.MalformedResponse) {
		t.Errorf("want malformed response, got %v", err)
	}
	_, err = DecodeResultDescriptor([]byte(`{}`))
	if !errors.HasKind(err, errors.MalformedResponse) {
		t.Errorf("want malformed response, got %v", err)
	}
}
