package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/griddeck/griddeck/pkg/models"
)

// ReadingsOptions contains options for querying stored readings
type ReadingsOptions struct {
	DeviceID    uuid.UUID
	ParameterID uuid.UUID
	Start       time.Time
	End         time.Time
	Limit       int
}

// GetReadings retrieves stored readings for one (device, parameter) pair,
// newest first
func (c *Client) GetReadings(opts ReadingsOptions) ([]models.Reading, error) {
	params := url.Values{}
	params.Set("device_id", opts.DeviceID.String())
	params.Set("parameter_id", opts.ParameterID.String())

	if !opts.Start.IsZero() {
		params.Set("start", opts.Start.Format(time.RFC3339))
	}
	if !opts.End.IsZero() {
		params.Set("end", opts.End.Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var readings []models.Reading
	if err := c.getJSON("/api/v1/readings?"+params.Encode(), &readings); err != nil {
		return nil, err
	}

	return readings, nil
}

// PushReading describes one measurement to submit to the ingest endpoint.
// Either DeviceID + ParameterID or DeviceName + Parameter must be set.
type PushReading struct {
	DeviceID    *uuid.UUID      `json:"device_id,omitempty"`
	DeviceName  string          `json:"device_name,omitempty"`
	DeviceModel string          `json:"device_model,omitempty"`
	DeviceKind  string          `json:"device_kind,omitempty"`
	ParameterID *uuid.UUID      `json:"parameter_id,omitempty"`
	Parameter   string          `json:"parameter,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Data        json.RawMessage `json:"data"`
	DateUTC     *time.Time      `json:"date_utc,omitempty"`
}

// SubmitReading pushes one measurement and returns the stored reading ID
func (c *Client) SubmitReading(reading PushReading) (uuid.UUID, error) {
	resp, err := c.doRequest("POST", "/ingest/readings", reading)
	if err != nil {
		return uuid.Nil, err
	}
	defer resp.Body.Close()

	var result struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.ID, nil
}
