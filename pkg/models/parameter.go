package models

import (
	"time"

	"github.com/google/uuid"
)

// Parameter represents a single measurable value exposed by a device
type Parameter struct {
	ID        uuid.UUID `json:"id"`
	DeviceID  uuid.UUID `json:"device_id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit,omitempty"`
	RemoteID  string    `json:"remote_id,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParameterQueryParams holds query parameters for parameter lookups
type ParameterQueryParams struct {
	DeviceID      *uuid.UUID
	Name          string
	Enabled       *bool
	IncludeLatest bool
}

// ParameterWithSnapshot combines a parameter with its latest live value
type ParameterWithSnapshot struct {
	Parameter Parameter      `json:"parameter"`
	Snapshot  *SnapshotValue `json:"snapshot,omitempty"`
}

// SnapshotValue is the latest known value of a (device, parameter) pair,
// maintained outside the polling cadence
type SnapshotValue struct {
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
