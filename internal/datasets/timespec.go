// Copyright (c) 2025 Geo Engine CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package datasets

import (
	"encoding/json"

	"geoengine/cli/internal/errors"
)

// TimeFormat tells the OGR source how to parse a time column.
type TimeFormat struct {
	Format       string `json:"format"`
	CustomFormat string `json:"customFormat,omitempty"`
}

// SecondsTimeFormat parses time columns as Unix seconds.
func SecondsTimeFormat() TimeFormat {
	return TimeFormat{Format: "seconds"}
}

// AutoTimeFormat lets the source guess the time format.
func AutoTimeFormat() TimeFormat {
	return TimeFormat{Format: "auto"}
}

// CustomTimeFormat parses time columns with an explicit format string.
func CustomTimeFormat(format string) TimeFormat {
	return TimeFormat{Format: "custom", CustomFormat: format}
}

// Duration is the validity duration attached to features with only a start
// time.
type Duration struct {
	Type        string `json:"type"`
	Step        int    `json:"step,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// ZeroDuration makes features valid only at their start instant.
func ZeroDuration() Duration {
	return Duration{Type: "zero"}
}

// InfiniteDuration makes features valid forever from their start.
func InfiniteDuration() Duration {
	return Duration{Type: "infinite"}
}

// ValueDuration makes features valid for a fixed time step, for example
// ValueDuration(1, "days").
func ValueDuration(step int, granularity string) Duration {
	return Duration{Type: "value", Step: step, Granularity: granularity}
}

// Time spec variants of the OGR source.
const (
	timeNone          = "none"
	timeStart         = "start"
	timeStartEnd      = "start+end"
	timeStartDuration = "start+duration"
)

// TimeSpec describes where the OGR source finds feature validity times in
// an uploaded dataset. Construct it with one of NoTime, StartTime,
// StartEndTime or StartDurationTime.
type TimeSpec struct {
	variant       string
	startField    string
	startFormat   TimeFormat
	duration      Duration
	endField      string
	endFormat     TimeFormat
	durationField string
}

// NoTime declares the dataset as time-invariant.
func NoTime() TimeSpec {
	return TimeSpec{variant: timeNone}
}

// StartTime reads a start column and applies a fixed duration.
func StartTime(field string, format TimeFormat, duration Duration) TimeSpec {
	return TimeSpec{variant: timeStart, startField: field, startFormat: format, duration: duration}
}

// StartEndTime reads separate start and end columns.
func StartEndTime(startField string, startFormat TimeFormat, endField string, endFormat TimeFormat) TimeSpec {
	return TimeSpec{
		variant:     timeStartEnd,
		startField:  startField,
		startFormat: startFormat,
		endField:    endField,
		endFormat:   endFormat,
	}
}

// StartDurationTime reads a start column and a per-feature duration column.
func StartDurationTime(startField string, startFormat TimeFormat, durationField string) TimeSpec {
	return TimeSpec{
		variant:       timeStartDuration,
		startField:    startField,
		startFormat:   startFormat,
		durationField: durationField,
	}
}

// MarshalJSON renders the tagged union the dataset API expects.
func (t TimeSpec) MarshalJSON() ([]byte, error) {
	switch t.variant {
	case "", timeNone:
		return json.Marshal(map[string]any{"type": timeNone})
	case timeStart:
		return json.Marshal(map[string]any{
			"type":        timeStart,
			"startField":  t.startField,
			"startFormat": t.startFormat,
			"duration":    t.duration,
		})
	case timeStartEnd:
		return json.Marshal(map[string]any{
			"type":        timeStartEnd,
			"startField":  t.startField,
			"startFormat": t.startFormat,
			"endField":    t.endField,
			"endFormat":   t.endFormat,
		})
	case timeStartDuration:
		return json.Marshal(map[string]any{
			"type":          timeStartDuration,
			"startField":    t.startField,
			"startFormat":   t.startFormat,
			"durationField": t.durationField,
		})
	default:
		return nil, errors.New(errors.InvalidInput, "unknown time spec variant "+t.variant)
	}
}
