package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Dashboard is a persisted dashboard row. Config carries the serialized
// DashboardState as delivered by the client.
type Dashboard struct {
	ID          uuid.UUID       `json:"id"`
	UserID      *uuid.UUID      `json:"user_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
	IsDefault   bool            `json:"is_default"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
