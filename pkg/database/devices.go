package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/griddeck/griddeck/pkg/models"
)

// LoadDevices loads all devices from the database
func (dm *DatabaseManager) LoadDevices(ctx context.Context) ([]models.Device, error) {
	query := `
        SELECT id, name, model, kind, location, config, last_seen, created_at, updated_at
        FROM devices
        ORDER BY created_at DESC
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var device models.Device
		var configJSON []byte

		err := rows.Scan(
			&device.ID,
			&device.Name,
			&device.Model,
			&device.Kind,
			&device.Location,
			&configJSON,
			&device.LastSeen,
			&device.CreatedAt,
			&device.UpdatedAt,
		)
		if err != nil {
			log.Printf("Failed to scan device: %v", err)
			continue
		}

		device.Config = make(map[string]interface{})
		if err := json.Unmarshal(configJSON, &device.Config); err != nil {
			log.Printf("Failed to parse config for device %s: %v", device.Name, err)
		}

		devices = append(devices, device)
	}

	return devices, rows.Err()
}

// GetDeviceList retrieves a summary list of all devices
func (dm *DatabaseManager) GetDeviceList(ctx context.Context) ([]models.DeviceListItem, error) {
	query := `
        SELECT DISTINCT
            d.id,
            d.name,
            d.model,
            d.kind,
            MAX(r.date_utc) as last_seen
        FROM devices d
        LEFT JOIN readings r ON d.id = r.device_id
        GROUP BY d.id, d.name, d.model, d.kind
        ORDER BY last_seen DESC NULLS LAST
    `

	var devices []models.DeviceListItem

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return devices, err
	}
	defer rows.Close()

	for rows.Next() {
		var d models.DeviceListItem
		err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Model,
			&d.Kind,
			&d.LastSeen,
		)
		if err != nil {
			log.Printf("❌ Failed to scan device: %v", err)
			continue
		}

		devices = append(devices, d)
	}

	return devices, rows.Err()
}

// GetDevice retrieves detailed information about a specific device
func (dm *DatabaseManager) GetDevice(ctx context.Context, deviceID uuid.UUID) (models.DeviceDetail, error) {
	query := `
        SELECT
            d.id,
            d.name,
            d.model,
            d.kind,
            COUNT(r.id) as total_readings,
            COALESCE(MIN(r.date_utc), CURRENT_TIMESTAMP) as first_reading,
            COALESCE(MAX(r.date_utc), CURRENT_TIMESTAMP) as last_reading
        FROM devices d
        LEFT JOIN readings r ON d.id = r.device_id
        WHERE d.id = $1
        GROUP BY d.id, d.name, d.model, d.kind
    `

	var device models.DeviceDetail
	err := dm.QueryRowWithHealthCheck(ctx, query, deviceID).Scan(
		&device.ID,
		&device.Name,
		&device.Model,
		&device.Kind,
		&device.TotalReadings,
		&device.FirstReading,
		&device.LastReading,
	)

	return device, err
}

// EnsureDevice checks if a device exists by name and creates it if not
func (dm *DatabaseManager) EnsureDevice(ctx context.Context, device *models.Device) (uuid.UUID, error) {
	config := device.Config
	if config == nil {
		config = map[string]interface{}{}
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to serialize device config: %w", err)
	}

	query := `
        INSERT INTO devices (name, model, kind, location, config)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (name) DO UPDATE
        SET model = $2, kind = $3, location = $4, updated_at = CURRENT_TIMESTAMP
        RETURNING id
    `

	var deviceIDString string
	err = dm.QueryRowWithHealthCheck(ctx, query,
		device.Name,
		device.Model,
		device.Kind,
		device.Location,
		configJSON,
	).Scan(&deviceIDString)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to ensure device: %w", err)
	}

	deviceID, err := uuid.Parse(deviceIDString)

	return deviceID, err
}

// TouchDevice records that a device was heard from
func (dm *DatabaseManager) TouchDevice(ctx context.Context, deviceID uuid.UUID) error {
	query := `UPDATE devices SET last_seen = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := dm.ExecWithHealthCheck(ctx, query, deviceID)
	return err
}

// DeleteDevice deletes a device together with its parameters and readings
func (dm *DatabaseManager) DeleteDevice(ctx context.Context, deviceID uuid.UUID) error {
	result, err := dm.ExecWithHealthCheck(ctx, `DELETE FROM devices WHERE id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.New("device not found")
	}

	return nil
}

// GetDeviceConfig retrieves the configuration for a specific device
func (dm *DatabaseManager) GetDeviceConfig(ctx context.Context, id uuid.UUID) (map[string]interface{}, error) {
	var config map[string]interface{}

	query := `SELECT config FROM devices WHERE id = $1`
	var configJSON []byte
	err := dm.QueryRowWithHealthCheck(ctx, query, id).Scan(&configJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return config, errors.New("device not found")
		}
		return config, err
	}

	if err := json.Unmarshal(configJSON, &config); err != nil {
		return config, fmt.Errorf("failed to parse device config: %w", err)
	}

	return config, nil
}
