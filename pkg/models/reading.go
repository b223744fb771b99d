package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reading is a single stored measurement document for a device parameter.
// Data holds the raw per-timestamp JSON payload as delivered by the device;
// consumers extract the fields they need.
type Reading struct {
	ID          uuid.UUID       `json:"id"`
	DeviceID    uuid.UUID       `json:"device_id"`
	ParameterID uuid.UUID       `json:"parameter_id"`
	Data        json.RawMessage `json:"data"`
	DateUTC     time.Time       `json:"date_utc"`
}

// SensorKey identifies one polled (device, parameter) pair and the payload
// fields requested from it
type SensorKey struct {
	DeviceID    string   `json:"device_id"`
	ParameterID string   `json:"parameter_id"`
	Fields      []string `json:"fields"`
}

// AggregateRequest describes one aggregated-series query against the
// readings store
type AggregateRequest struct {
	Keys              []SensorKey   `json:"keys"`
	From              time.Time     `json:"from"`
	ResolutionMinutes int           `json:"resolution_minutes"`
	Aggregate         AggregateFunc `json:"aggregate"`
}

// Validate checks the request parameters
func (r AggregateRequest) Validate() error {
	if len(r.Keys) == 0 {
		return fmt.Errorf("aggregate request must name at least one sensor key")
	}
	for i, key := range r.Keys {
		if key.DeviceID == "" || key.ParameterID == "" {
			return fmt.Errorf("sensor key %d must name a device and parameter", i)
		}
	}
	if r.From.IsZero() {
		return fmt.Errorf("aggregate request must set a lookback boundary")
	}
	if r.ResolutionMinutes < 1 {
		return fmt.Errorf("resolution must be at least 1 minute, got %d", r.ResolutionMinutes)
	}
	if err := r.Aggregate.Validate(); err != nil {
		return err
	}
	if r.Aggregate.IsRealtime() {
		return fmt.Errorf("aggregate function %s is realtime-only and cannot be queried", r.Aggregate)
	}
	return nil
}

// AggregateRow is one bucketed result item. Data is the aggregated JSON
// payload for the bucket; malformed items are skipped by consumers.
type AggregateRow struct {
	DeviceID    string          `json:"device_id"`
	ParameterID string          `json:"parameter_id"`
	Time        time.Time       `json:"time"`
	Data        json.RawMessage `json:"data"`
}

// ExtractField pulls a named numeric field out of the row's JSON payload
func (r AggregateRow) ExtractField(field string) (float64, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &payload); err != nil {
		return 0, fmt.Errorf("malformed payload for device %s parameter %s: %w", r.DeviceID, r.ParameterID, err)
	}
	raw, ok := payload[field]
	if !ok {
		return 0, fmt.Errorf("field %q missing in payload for device %s parameter %s", field, r.DeviceID, r.ParameterID)
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("field %q is not numeric for device %s parameter %s: %w", field, r.DeviceID, r.ParameterID, err)
	}
	return value, nil
}
