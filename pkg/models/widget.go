package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VisualizationKind identifies how a widget renders its data
type VisualizationKind string

const (
	KindLineChart  VisualizationKind = "linechart"
	KindTable      VisualizationKind = "table"
	KindBullet     VisualizationKind = "bullet"
	KindEntityCard VisualizationKind = "entitycard"
	KindSparkline  VisualizationKind = "sparkline"
)

// Validate checks if the visualization kind is known
func (k VisualizationKind) Validate() error {
	switch k {
	case KindLineChart, KindTable, KindBullet, KindEntityCard, KindSparkline:
		return nil
	}
	return fmt.Errorf("invalid visualization kind: %s (valid: linechart, table, bullet, entitycard, sparkline)", k)
}

// SampleCount returns how many aggregated buckets a widget of this kind
// requests per fetch. The aggregation resolution is derived from it.
func (k VisualizationKind) SampleCount() int {
	if k == KindLineChart {
		return 96
	}
	return 32
}

// AggregateFunc names a server-side aggregation applied to a data series
type AggregateFunc string

const (
	AggregateAvg   AggregateFunc = "avg"
	AggregateMin   AggregateFunc = "min"
	AggregateMax   AggregateFunc = "max"
	AggregateSum   AggregateFunc = "sum"
	AggregateCount AggregateFunc = "count"
	AggregateFirst AggregateFunc = "first"

	// AggregateLast is the realtime sentinel: rows using it read the live
	// snapshot store instead of being polled on a cadence.
	AggregateLast AggregateFunc = "last"
)

var validAggregates = []AggregateFunc{
	AggregateAvg, AggregateMin, AggregateMax, AggregateSum,
	AggregateCount, AggregateFirst, AggregateLast,
}

// Validate checks if the aggregation function is supported
func (f AggregateFunc) Validate() error {
	for _, valid := range validAggregates {
		if f == valid {
			return nil
		}
	}
	names := make([]string, len(validAggregates))
	for i, valid := range validAggregates {
		names[i] = string(valid)
	}
	return fmt.Errorf("invalid aggregate function: %s (valid: %s)", f, strings.Join(names, ", "))
}

// IsRealtime reports whether the function is the live-snapshot sentinel
func (f AggregateFunc) IsRealtime() bool {
	return f == AggregateLast
}

// WidgetDetail pairs a layout item's id with its visualization configuration.
// Config is an opaque blob produced by the external form builder; the core
// stores it and hands it back unchanged, reading only the row fields that
// drive polling.
type WidgetDetail struct {
	ID     string            `json:"id"`
	Kind   VisualizationKind `json:"kind"`
	Config json.RawMessage   `json:"config"`
}

// RowConfig is the slice of a widget's configuration the scheduler reads:
// one independently polled data source within the widget.
type RowConfig struct {
	DeviceID    string        `json:"deviceId"`
	ParameterID string        `json:"parameterId"`
	Field       string        `json:"field"`
	Aggregate   AggregateFunc `json:"aggregate"`
	TimeFrame   string        `json:"timeFrame"`
	Decimals    int           `json:"decimals,omitempty"`
}

// TimeFrameHours parses the user-entered time window (hours, as a string)
func (r RowConfig) TimeFrameHours() (float64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(r.TimeFrame), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time frame %q: %w", r.TimeFrame, err)
	}
	if hours <= 0 {
		return 0, fmt.Errorf("time frame must be positive, got %q", r.TimeFrame)
	}
	return hours, nil
}

// ResolutionMinutes returns the aggregation bucket size for the row's window,
// rounded up so the bucket count never exceeds sampleCount.
func (r RowConfig) ResolutionMinutes(sampleCount int) (int, error) {
	hours, err := r.TimeFrameHours()
	if err != nil {
		return 0, err
	}
	minutes := int(math.Ceil(hours * 60 / float64(sampleCount)))
	if minutes < 1 {
		minutes = 1
	}
	return minutes, nil
}

// Validate checks the scheduler-facing fields of a row
func (r RowConfig) Validate() error {
	if r.DeviceID == "" {
		return fmt.Errorf("row must reference a device")
	}
	if r.ParameterID == "" {
		return fmt.Errorf("row must reference a parameter")
	}
	if err := r.Aggregate.Validate(); err != nil {
		return err
	}
	if !r.Aggregate.IsRealtime() {
		if _, err := r.TimeFrameHours(); err != nil {
			return err
		}
	}
	return nil
}

// widgetConfigRows is the partial shape of Config the scheduler decodes
type widgetConfigRows struct {
	Rows []RowConfig `json:"rows"`
}

// DataRows decodes the polling-relevant rows out of the opaque config blob
func (d WidgetDetail) DataRows() ([]RowConfig, error) {
	if len(d.Config) == 0 {
		return nil, nil
	}
	var partial widgetConfigRows
	if err := json.Unmarshal(d.Config, &partial); err != nil {
		return nil, fmt.Errorf("failed to decode config rows for widget %s: %w", d.ID, err)
	}
	return partial.Rows, nil
}

// Validate checks the detail and its scheduler-facing rows
func (d WidgetDetail) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("widget detail must have an id")
	}
	if err := d.Kind.Validate(); err != nil {
		return err
	}
	rows, err := d.DataRows()
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("widget %s row %d: %w", d.ID, i, err)
		}
	}
	return nil
}
