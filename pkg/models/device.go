package models

import (
	"time"

	"github.com/google/uuid"
)

// Device represents a managed IoT device
type Device struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Model     string                 `json:"model"`
	Kind      string                 `json:"kind"`
	Location  string                 `json:"location,omitempty"`
	Config    map[string]interface{} `json:"config"`
	LastSeen  *time.Time             `json:"last_seen,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type DeviceListItem struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Model    string     `json:"model"`
	Kind     string     `json:"kind"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type DeviceDetail struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Model         string    `json:"model"`
	Kind          string    `json:"kind"`
	TotalReadings int       `json:"total_readings"`
	FirstReading  time.Time `json:"first_reading"`
	LastReading   time.Time `json:"last_reading"`
}
