package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/griddeck/griddeck/pkg/models"
)

// IngestReadingRequest is one pushed device measurement. Devices can push by
// id, or by name + parameter so they self-register on first contact.
type IngestReadingRequest struct {
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

// ingestReadingHandler stores a pushed measurement and refreshes the live
// snapshot for the (device, parameter) pair
func (rm *RouteManager) ingestReadingHandler(w http.ResponseWriter, r *http.Request) {
	var req IngestReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	deviceID, parameterID, err := rm.resolveIngestTarget(r, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dateUTC := time.Now().UTC()
	if req.DateUTC != nil {
		dateUTC = req.DateUTC.UTC()
	}

	reading := &models.Reading{
		DeviceID:    deviceID,
		ParameterID: parameterID,
		Data:        req.Data,
		DateUTC:     dateUTC,
	}

	if err := rm.dbManager.StoreReading(r.Context(), reading); err != nil {
		log.Printf("❌ Failed to store reading: %v", err)
		http.Error(w, "Failed to store reading", http.StatusInternalServerError)
		return
	}

	if err := rm.dbManager.TouchDevice(r.Context(), deviceID); err != nil {
		log.Printf("⚠ Failed to update device last_seen: %v", err)
	}

	if value, ok := snapshotValueFromPayload(req.Data); ok {
		rm.snapshots.Record(deviceID.String(), parameterID.String(), value, dateUTC)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": reading.ID.String()})
}

// resolveIngestTarget turns a push request into concrete ids, registering
// named devices and parameters on first contact
func (rm *RouteManager) resolveIngestTarget(r *http.Request, req IngestReadingRequest) (uuid.UUID, uuid.UUID, error) {
	if req.DeviceID != nil && req.ParameterID != nil {
		return *req.DeviceID, *req.ParameterID, nil
	}

	if req.DeviceName == "" || req.Parameter == "" {
		return uuid.Nil, uuid.Nil, errBadIngestTarget
	}

	deviceID, err := rm.dbManager.EnsureDevice(r.Context(), &models.Device{
		Name:  req.DeviceName,
		Model: req.DeviceModel,
		Kind:  req.DeviceKind,
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	parameterID, err := rm.dbManager.EnsureParameter(r.Context(), deviceID, req.Parameter, req.Unit)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return deviceID, parameterID, nil
}

var errBadIngestTarget = errors.New("either device_id + parameter_id or device_name + parameter are required")

// snapshotValueFromPayload picks the value the live snapshot should carry:
// the "value" field when present, otherwise the payload's only numeric field
func snapshotValueFromPayload(data json.RawMessage) (float64, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, false
	}

	numeric := make(map[string]float64)
	for field, raw := range payload {
		if value, ok := raw.(float64); ok {
			numeric[field] = value
		}
	}

	if value, ok := numeric["value"]; ok {
		return value, true
	}
	if len(numeric) == 1 {
		for _, value := range numeric {
			return value, true
		}
	}
	return 0, false
}

// getReadingsHandler returns raw readings for one (device, parameter) pair
// Query params:
//   - device_id: device UUID (required)
//   - parameter_id: parameter UUID (required)
//   - start, end: RFC3339 time bounds (default: last 24h)
//   - limit: max number of results (default: 100, max: 10000)
func (rm *RouteManager) getReadingsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	deviceID, err := uuid.Parse(query.Get("device_id"))
	if err != nil {
		http.Error(w, "Invalid or missing device_id", http.StatusBadRequest)
		return
	}

	parameterID, err := uuid.Parse(query.Get("parameter_id"))
	if err != nil {
		http.Error(w, "Invalid or missing parameter_id", http.StatusBadRequest)
		return
	}

	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)
	if raw := query.Get("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			http.Error(w, "Invalid start time", http.StatusBadRequest)
			return
		}
	}
	if raw := query.Get("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			http.Error(w, "Invalid end time", http.StatusBadRequest)
			return
		}
	}

	limit := 100
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 10000 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	readings, err := rm.dbManager.GetReadings(r.Context(), deviceID, parameterID, start, end, limit)
	if err != nil {
		log.Printf("❌ Failed to query readings: %v", err)
		http.Error(w, "Failed to query readings", http.StatusInternalServerError)
		return
	}

	if readings == nil {
		readings = []models.Reading{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(readings)
}
