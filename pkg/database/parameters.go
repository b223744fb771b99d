package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/griddeck/griddeck/pkg/models"
)

// CreateParameter creates a new parameter for a device
func (dm *DatabaseManager) CreateParameter(ctx context.Context, parameter *models.Parameter) error {
	query := `
        INSERT INTO parameters (device_id, name, unit, remote_id, enabled)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `

	err := dm.QueryRowWithHealthCheck(ctx, query,
		parameter.DeviceID,
		parameter.Name,
		parameter.Unit,
		parameter.RemoteID,
		parameter.Enabled,
	).Scan(&parameter.ID, &parameter.CreatedAt, &parameter.UpdatedAt)

	return err
}

// EnsureParameter creates the named parameter for a device if it does not
// exist yet and returns its id either way.
func (dm *DatabaseManager) EnsureParameter(ctx context.Context, deviceID uuid.UUID, name, unit string) (uuid.UUID, error) {
	query := `
        INSERT INTO parameters (device_id, name, unit)
        VALUES ($1, $2, $3)
        ON CONFLICT (device_id, name) DO UPDATE
        SET unit = $3, updated_at = CURRENT_TIMESTAMP
        RETURNING id
    `

	var parameterID uuid.UUID
	err := dm.QueryRowWithHealthCheck(ctx, query, deviceID, name, unit).Scan(&parameterID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to ensure parameter: %w", err)
	}

	return parameterID, nil
}

// GetParametersByDevice retrieves all parameters of a device together with
// the most recent stored reading for each one
func (dm *DatabaseManager) GetParametersByDevice(ctx context.Context, deviceID uuid.UUID) ([]models.ParameterWithSnapshot, error) {
	query := `
        SELECT
            p.id, p.device_id, p.name, p.unit, p.remote_id, p.enabled, p.created_at, p.updated_at,
            r.date_utc
        FROM parameters p
        LEFT JOIN LATERAL (
            SELECT date_utc
            FROM readings
            WHERE parameter_id = p.id
            ORDER BY date_utc DESC
            LIMIT 1
        ) r ON TRUE
        WHERE p.device_id = $1
        ORDER BY p.name, p.created_at
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parameters []models.ParameterWithSnapshot
	for rows.Next() {
		var pws models.ParameterWithSnapshot
		var lastSeen *time.Time

		err := rows.Scan(
			&pws.Parameter.ID, &pws.Parameter.DeviceID, &pws.Parameter.Name,
			&pws.Parameter.Unit, &pws.Parameter.RemoteID, &pws.Parameter.Enabled,
			&pws.Parameter.CreatedAt, &pws.Parameter.UpdatedAt,
			&lastSeen,
		)
		if err != nil {
			log.Printf("Failed to scan parameter: %v", err)
			continue
		}

		if lastSeen != nil {
			pws.Snapshot = &models.SnapshotValue{UpdatedAt: *lastSeen}
		}

		parameters = append(parameters, pws)
	}

	return parameters, rows.Err()
}

// GetParameters retrieves parameters with optional filtering
func (dm *DatabaseManager) GetParameters(ctx context.Context, params models.ParameterQueryParams) ([]models.Parameter, error) {
	query := `
        SELECT id, device_id, name, unit, remote_id, enabled, created_at, updated_at
        FROM parameters
        WHERE 1=1
    `

	args := []interface{}{}
	argCount := 1

	if params.DeviceID != nil {
		query += fmt.Sprintf(" AND device_id = $%d", argCount)
		args = append(args, *params.DeviceID)
		argCount++
	}

	if params.Name != "" {
		query += fmt.Sprintf(" AND name = $%d", argCount)
		args = append(args, params.Name)
		argCount++
	}

	if params.Enabled != nil {
		query += fmt.Sprintf(" AND enabled = $%d", argCount)
		args = append(args, *params.Enabled)
		argCount++
	}

	query += " ORDER BY name, created_at"

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parameters []models.Parameter
	for rows.Next() {
		var p models.Parameter
		err := rows.Scan(
			&p.ID, &p.DeviceID, &p.Name, &p.Unit, &p.RemoteID,
			&p.Enabled, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			log.Printf("Failed to scan parameter: %v", err)
			continue
		}
		parameters = append(parameters, p)
	}

	return parameters, rows.Err()
}

// SetParameterEnabled toggles collection for a parameter
func (dm *DatabaseManager) SetParameterEnabled(ctx context.Context, parameterID uuid.UUID, enabled bool) error {
	query := `
        UPDATE parameters
        SET enabled = $1, updated_at = CURRENT_TIMESTAMP
        WHERE id = $2
    `

	result, err := dm.ExecWithHealthCheck(ctx, query, enabled, parameterID)
	if err != nil {
		return fmt.Errorf("failed to update parameter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("parameter not found")
	}

	return nil
}
