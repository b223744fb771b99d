package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/griddeck/griddeck/pkg/models"
)

// StoreReading stores a single reading document
func (dm *DatabaseManager) StoreReading(ctx context.Context, reading *models.Reading) error {
	if len(reading.Data) == 0 {
		return fmt.Errorf("reading payload must not be empty")
	}
	if !json.Valid(reading.Data) {
		return fmt.Errorf("reading payload is not valid JSON")
	}

	query := `
        INSERT INTO readings (device_id, parameter_id, data, date_utc)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `

	dateUTC := reading.DateUTC
	if dateUTC.IsZero() {
		dateUTC = time.Now().UTC()
		reading.DateUTC = dateUTC
	}

	err := dm.QueryRowWithHealthCheck(ctx, query,
		reading.DeviceID,
		reading.ParameterID,
		[]byte(reading.Data),
		dateUTC,
	).Scan(&reading.ID)
	if err != nil {
		return fmt.Errorf("failed to store reading: %w", err)
	}

	return nil
}

// GetReadings retrieves raw readings for one (device, parameter) pair
// within a time range, newest first
func (dm *DatabaseManager) GetReadings(ctx context.Context, deviceID, parameterID uuid.UUID, startTime, endTime time.Time, limit int) ([]models.Reading, error) {
	query := `
        SELECT id, device_id, parameter_id, data, date_utc
        FROM readings
        WHERE device_id = $1 AND parameter_id = $2 AND date_utc >= $3 AND date_utc <= $4
        ORDER BY date_utc DESC
        LIMIT $5
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query, deviceID, parameterID, startTime, endTime, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var reading models.Reading
		var data []byte
		err := rows.Scan(&reading.ID, &reading.DeviceID, &reading.ParameterID, &data, &reading.DateUTC)
		if err != nil {
			log.Printf("Failed to scan reading: %v", err)
			continue
		}
		reading.Data = json.RawMessage(data)
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

// QueryAggregates buckets stored readings by time and applies the requested
// aggregate function to each payload field named in the request. Buckets
// where no requested field yields a value are omitted.
func (dm *DatabaseManager) QueryAggregates(ctx context.Context, req models.AggregateRequest) ([]models.AggregateRow, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var results []models.AggregateRow
	for _, key := range req.Keys {
		deviceID, err := uuid.Parse(key.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("invalid device id %q: %w", key.DeviceID, err)
		}
		parameterID, err := uuid.Parse(key.ParameterID)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter id %q: %w", key.ParameterID, err)
		}

		rows, err := dm.queryKeyAggregates(ctx, key, deviceID, parameterID, req)
		if err != nil {
			return nil, err
		}
		results = append(results, rows...)
	}

	return results, nil
}

// queryKeyAggregates runs the bucketed aggregation for one sensor key
func (dm *DatabaseManager) queryKeyAggregates(ctx context.Context, key models.SensorKey, deviceID, parameterID uuid.UUID, req models.AggregateRequest) ([]models.AggregateRow, error) {
	bucketSeconds := req.ResolutionMinutes * 60

	// Same epoch-floor bucketing for every resolution
	bucketExpr := "to_timestamp(floor(extract('epoch' from r.date_utc) / $4) * $4)"

	args := []interface{}{deviceID, parameterID, req.From, bucketSeconds}
	selectCols := []string{bucketExpr + " as time_bucket"}
	for _, field := range key.Fields {
		args = append(args, field)
		valueExpr := fmt.Sprintf("(r.data->>$%d)::double precision", len(args))
		selectCols = append(selectCols, buildAggregateExpr(req.Aggregate, valueExpr))
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM readings r
        WHERE r.device_id = $1 AND r.parameter_id = $2 AND r.date_utc >= $3
        GROUP BY time_bucket
        ORDER BY time_bucket ASC
    `, strings.Join(selectCols, ", "))

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates for device %s parameter %s: %w", key.DeviceID, key.ParameterID, err)
	}
	defer rows.Close()

	var results []models.AggregateRow
	for rows.Next() {
		var bucket time.Time
		values := make([]sql.NullFloat64, len(key.Fields))
		dest := make([]interface{}, 0, len(key.Fields)+1)
		dest = append(dest, &bucket)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			log.Printf("Failed to scan aggregate bucket: %v", err)
			continue
		}

		payload := make(map[string]float64, len(key.Fields))
		for i, field := range key.Fields {
			if values[i].Valid {
				payload[field] = values[i].Float64
			}
		}
		if len(payload) == 0 {
			continue
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize aggregate payload: %w", err)
		}

		results = append(results, models.AggregateRow{
			DeviceID:    key.DeviceID,
			ParameterID: key.ParameterID,
			Time:        bucket.UTC(),
			Data:        data,
		})
	}

	return results, rows.Err()
}

// buildAggregateExpr builds the SQL aggregate over one extracted payload field
func buildAggregateExpr(fn models.AggregateFunc, valueExpr string) string {
	switch fn {
	case models.AggregateAvg:
		return fmt.Sprintf("AVG(%s)", valueExpr)
	case models.AggregateMin:
		return fmt.Sprintf("MIN(%s)", valueExpr)
	case models.AggregateMax:
		return fmt.Sprintf("MAX(%s)", valueExpr)
	case models.AggregateSum:
		return fmt.Sprintf("SUM(%s)", valueExpr)
	case models.AggregateCount:
		return fmt.Sprintf("COUNT(%s)::double precision", valueExpr)
	case models.AggregateFirst:
		return fmt.Sprintf("(ARRAY_AGG(%s ORDER BY r.date_utc ASC))[1]", valueExpr)
	default:
		return fmt.Sprintf("AVG(%s)", valueExpr)
	}
}

// PruneReadingsBefore deletes readings older than the cutoff and reports
// how many rows went away
func (dm *DatabaseManager) PruneReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := dm.ExecWithHealthCheck(ctx, `DELETE FROM readings WHERE date_utc < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune readings: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
