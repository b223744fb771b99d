package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/griddeck/griddeck/pkg/models"
)

// SaveDashboardState serializes the grid state into the default dashboard
// row, creating it on first save.
func (dm *DatabaseManager) SaveDashboardState(ctx context.Context, state *models.DashboardState) error {
	config, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize dashboard state: %w", err)
	}

	query := `
        UPDATE dashboards
        SET config = $1, updated_at = CURRENT_TIMESTAMP
        WHERE is_default = true
    `

	result, err := dm.ExecWithHealthCheck(ctx, query, config)
	if err != nil {
		return fmt.Errorf("failed to save dashboard state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		insertQuery := `
            INSERT INTO dashboards (name, config, is_default)
            VALUES ($1, $2, true)
        `
		if _, err := dm.ExecWithHealthCheck(ctx, insertQuery, models.DefaultTabLabel, config); err != nil {
			return fmt.Errorf("failed to create default dashboard: %w", err)
		}
	}

	return nil
}

// LoadDashboardState restores the grid state from the default dashboard row.
// A missing row or an unreadable config yields the default state rather
// than an error.
func (dm *DatabaseManager) LoadDashboardState(ctx context.Context) (*models.DashboardState, error) {
	query := `
        SELECT config
        FROM dashboards
        WHERE is_default = true
        LIMIT 1
    `

	var config json.RawMessage
	err := dm.QueryRowWithHealthCheck(ctx, query).Scan(&config)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultDashboardState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard state: %w", err)
	}

	state, err := models.ParseDashboardState(config)
	if err != nil {
		log.Printf("Stored dashboard config unusable, starting fresh: %v", err)
		return models.DefaultDashboardState(), nil
	}

	return state, nil
}

// CreateDashboard creates a new dashboard
func (dm *DatabaseManager) CreateDashboard(ctx context.Context, dashboard *models.Dashboard) error {
	query := `
        INSERT INTO dashboards (user_id, name, description, config, is_default)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `

	err := dm.QueryRowWithHealthCheck(ctx, query,
		dashboard.UserID,
		dashboard.Name,
		dashboard.Description,
		dashboard.Config,
		dashboard.IsDefault,
	).Scan(&dashboard.ID, &dashboard.CreatedAt, &dashboard.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	return nil
}

// GetDashboards retrieves all dashboards
func (dm *DatabaseManager) GetDashboards(ctx context.Context) ([]models.Dashboard, error) {
	query := `
        SELECT id, user_id, name, description, config, is_default, created_at, updated_at
        FROM dashboards
        ORDER BY is_default DESC, created_at DESC
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboards: %w", err)
	}
	defer rows.Close()

	dashboards := []models.Dashboard{}
	for rows.Next() {
		var d models.Dashboard
		err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.Name,
			&d.Description,
			&d.Config,
			&d.IsDefault,
			&d.CreatedAt,
			&d.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		dashboards = append(dashboards, d)
	}

	return dashboards, rows.Err()
}

// GetDashboard retrieves a single dashboard by ID
func (dm *DatabaseManager) GetDashboard(ctx context.Context, id uuid.UUID) (*models.Dashboard, error) {
	query := `
        SELECT id, user_id, name, description, config, is_default, created_at, updated_at
        FROM dashboards
        WHERE id = $1
    `

	var d models.Dashboard
	err := dm.QueryRowWithHealthCheck(ctx, query, id).Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Description,
		&d.Config,
		&d.IsDefault,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dashboard not found")
		}
		return nil, fmt.Errorf("failed to query dashboard: %w", err)
	}

	return &d, nil
}

// UpdateDashboard updates an existing dashboard
func (dm *DatabaseManager) UpdateDashboard(ctx context.Context, dashboard *models.Dashboard) error {
	query := `
        UPDATE dashboards
        SET name = $1, description = $2, config = $3, is_default = $4, updated_at = $5
        WHERE id = $6
    `

	dashboard.UpdatedAt = time.Now()

	result, err := dm.ExecWithHealthCheck(ctx, query,
		dashboard.Name,
		dashboard.Description,
		dashboard.Config,
		dashboard.IsDefault,
		dashboard.UpdatedAt,
		dashboard.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("dashboard not found")
	}

	return nil
}

// DeleteDashboard deletes a dashboard
func (dm *DatabaseManager) DeleteDashboard(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM dashboards WHERE id = $1`

	result, err := dm.ExecWithHealthCheck(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("dashboard not found")
	}

	return nil
}
