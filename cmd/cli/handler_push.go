package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/griddeck/griddeck/pkg/models"
	"github.com/griddeck/griddeck/pkg/parser"
)

// devicePushHandler builds the handler for one vendor push endpoint. The
// parser normalizes the form payload; every extracted field becomes one
// stored reading on a self-registered parameter.
func (rm *RouteManager) devicePushHandler(p parser.Parser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		batch, err := p.Parse(r.Form)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		deviceID, err := rm.dbManager.EnsureDevice(r.Context(), &models.Device{
			Name:  batch.DeviceName,
			Model: batch.DeviceModel,
			Kind:  batch.DeviceKind,
		})
		if err != nil {
			log.Printf("❌ Failed to register device %s: %v", batch.DeviceName, err)
			http.Error(w, "Failed to register device", http.StatusInternalServerError)
			return
		}

		stored := 0
		for name, field := range batch.Fields {
			parameterID, err := rm.dbManager.EnsureParameter(r.Context(), deviceID, name, field.Unit)
			if err != nil {
				log.Printf("⚠ Failed to register parameter %s for device %s: %v", name, batch.DeviceName, err)
				continue
			}

			payload, err := json.Marshal(map[string]float64{"value": field.Value})
			if err != nil {
				continue
			}

			reading := &models.Reading{
				DeviceID:    deviceID,
				ParameterID: parameterID,
				Data:        payload,
				DateUTC:     batch.DateUTC,
			}
			if err := rm.dbManager.StoreReading(r.Context(), reading); err != nil {
				log.Printf("⚠ Failed to store %s for device %s: %v", name, batch.DeviceName, err)
				continue
			}

			rm.snapshots.Record(deviceID.String(), parameterID.String(), field.Value, batch.DateUTC)
			stored++
		}

		if stored == 0 {
			http.Error(w, "Failed to store readings", http.StatusInternalServerError)
			return
		}

		if err := rm.dbManager.TouchDevice(r.Context(), deviceID); err != nil {
			log.Printf("⚠ Failed to update last_seen for device %s: %v", batch.DeviceName, err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"device_id": deviceID.String(),
			"stored":    stored,
		})
	}
}
