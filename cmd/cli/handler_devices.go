package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// getDevicesHandler returns all registered devices
func (rm *RouteManager) getDevicesHandler(w http.ResponseWriter, r *http.Request) {
	devices, err := rm.dbManager.GetDeviceList(r.Context())
	if err != nil {
		log.Printf("❌ Failed to query devices: %v", err)
		http.Error(w, "Failed to query devices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(devices)
}

// getDeviceHandler returns details for a specific device
func (rm *RouteManager) getDeviceHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid device_id format", http.StatusBadRequest)
		return
	}

	device, err := rm.dbManager.GetDevice(r.Context(), deviceID)
	if err != nil {
		log.Printf("❌ Failed to query device: %v", err)
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(device)
}

// getParametersHandler returns a device's parameters, with the live snapshot
// value overlaid where one is known
func (rm *RouteManager) getParametersHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "Invalid device_id format", http.StatusBadRequest)
		return
	}

	parameters, err := rm.dbManager.GetParametersByDevice(r.Context(), deviceID)
	if err != nil {
		log.Printf("❌ Failed to query parameters: %v", err)
		http.Error(w, "Failed to query parameters", http.StatusInternalServerError)
		return
	}

	// Prefer the in-memory latest value over the stored timestamp
	for i := range parameters {
		p := parameters[i].Parameter
		if snapshot, ok := rm.snapshots.Snapshot(p.DeviceID.String(), p.ID.String()); ok {
			parameters[i].Snapshot = &snapshot
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(parameters)
}
