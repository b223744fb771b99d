package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/griddeck/griddeck/pkg/models"
)

// seedPair creates a device with one parameter and returns both ids
func seedPair(t *testing.T, dm *DatabaseManager) (uuid.UUID, uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	deviceID, err := dm.EnsureDevice(ctx, &models.Device{
		Name:  "station_" + generateRandomString(8),
		Model: "WS-2902",
		Kind:  "weather",
	})
	if err != nil {
		t.Fatalf("Failed to ensure device: %v", err)
	}

	parameterID, err := dm.EnsureParameter(ctx, deviceID, "climate", "")
	if err != nil {
		t.Fatalf("Failed to ensure parameter: %v", err)
	}

	return deviceID, parameterID
}

func storeReadingAt(t *testing.T, dm *DatabaseManager, deviceID, parameterID uuid.UUID, payload string, at time.Time) {
	t.Helper()

	err := dm.StoreReading(context.Background(), &models.Reading{
		DeviceID:    deviceID,
		ParameterID: parameterID,
		Data:        json.RawMessage(payload),
		DateUTC:     at,
	})
	if err != nil {
		t.Fatalf("Failed to store reading: %v", err)
	}
}

func TestStoreReadingRejectsBadPayload(t *testing.T) {
	dm := &DatabaseManager{}
	ctx := context.Background()

	err := dm.StoreReading(ctx, &models.Reading{Data: nil})
	if err == nil {
		t.Error("Expected error for empty payload")
	}

	err = dm.StoreReading(ctx, &models.Reading{Data: json.RawMessage(`{"temp":`)})
	if err == nil {
		t.Error("Expected error for malformed payload")
	}
}

func TestQueryAggregatesRejectsInvalidRequest(t *testing.T) {
	dm := &DatabaseManager{}

	// Realtime aggregate never reaches the store
	_, err := dm.QueryAggregates(context.Background(), models.AggregateRequest{
		Keys:              []models.SensorKey{{DeviceID: uuid.NewString(), ParameterID: uuid.NewString(), Fields: []string{"temp"}}},
		From:              time.Now().Add(-time.Hour),
		ResolutionMinutes: 15,
		Aggregate:         models.AggregateLast,
	})
	if err == nil {
		t.Error("Expected realtime aggregate to be rejected")
	}

	_, err = dm.QueryAggregates(context.Background(), models.AggregateRequest{
		Keys:              []models.SensorKey{{DeviceID: "not-a-uuid", ParameterID: uuid.NewString()}},
		From:              time.Now().Add(-time.Hour),
		ResolutionMinutes: 15,
		Aggregate:         models.AggregateAvg,
	})
	if err == nil {
		t.Error("Expected invalid device id to be rejected")
	}
}

func TestStoreAndGetReadings(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	deviceID, parameterID := seedPair(t, dm)
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 20.5, "humidity": 61}`, base)
	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 21.5, "humidity": 60}`, base.Add(time.Minute))

	readings, err := dm.GetReadings(context.Background(), deviceID, parameterID, base.Add(-time.Minute), base.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}

	if len(readings) != 2 {
		t.Fatalf("Expected 2 readings, got %d", len(readings))
	}

	// Newest first
	if !readings[0].DateUTC.After(readings[1].DateUTC) {
		t.Error("Expected readings ordered newest first")
	}
}

func TestQueryAggregatesBuckets(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	deviceID, parameterID := seedPair(t, dm)

	// Two readings inside one 15-minute bucket, one in the next
	base := time.Now().UTC().Truncate(time.Hour).Add(-2 * time.Hour)
	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 10}`, base.Add(1*time.Minute))
	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 20}`, base.Add(2*time.Minute))
	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 40}`, base.Add(20*time.Minute))

	rows, err := dm.QueryAggregates(context.Background(), models.AggregateRequest{
		Keys: []models.SensorKey{{
			DeviceID:    deviceID.String(),
			ParameterID: parameterID.String(),
			Fields:      []string{"temp"},
		}},
		From:              base.Add(-time.Minute),
		ResolutionMinutes: 15,
		Aggregate:         models.AggregateAvg,
	})
	if err != nil {
		t.Fatalf("Failed to query aggregates: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(rows))
	}

	first, err := rows[0].ExtractField("temp")
	if err != nil {
		t.Fatalf("Failed to extract field: %v", err)
	}
	if first != 15 {
		t.Errorf("Expected first bucket avg 15, got %v", first)
	}

	second, err := rows[1].ExtractField("temp")
	if err != nil {
		t.Fatalf("Failed to extract field: %v", err)
	}
	if second != 40 {
		t.Errorf("Expected second bucket avg 40, got %v", second)
	}

	if !rows[0].Time.Before(rows[1].Time) {
		t.Error("Expected buckets ordered oldest first")
	}
}

func TestQueryAggregatesHonorsWindow(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	deviceID, parameterID := seedPair(t, dm)
	now := time.Now().UTC()

	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 99}`, now.Add(-48*time.Hour))
	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 12}`, now.Add(-10*time.Minute))

	rows, err := dm.QueryAggregates(context.Background(), models.AggregateRequest{
		Keys: []models.SensorKey{{
			DeviceID:    deviceID.String(),
			ParameterID: parameterID.String(),
			Fields:      []string{"temp"},
		}},
		From:              now.Add(-24 * time.Hour),
		ResolutionMinutes: 45,
		Aggregate:         models.AggregateMax,
	})
	if err != nil {
		t.Fatalf("Failed to query aggregates: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("Expected the old reading to fall outside the window, got %d buckets", len(rows))
	}

	value, err := rows[0].ExtractField("temp")
	if err != nil {
		t.Fatalf("Failed to extract field: %v", err)
	}
	if value != 12 {
		t.Errorf("Expected max 12, got %v", value)
	}
}

func TestQueryAggregatesSkipsMissingFields(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	deviceID, parameterID := seedPair(t, dm)
	base := time.Now().UTC().Add(-time.Hour)

	storeReadingAt(t, dm, deviceID, parameterID, `{"humidity": 55}`, base)

	rows, err := dm.QueryAggregates(context.Background(), models.AggregateRequest{
		Keys: []models.SensorKey{{
			DeviceID:    deviceID.String(),
			ParameterID: parameterID.String(),
			Fields:      []string{"temp"},
		}},
		From:              base.Add(-time.Minute),
		ResolutionMinutes: 15,
		Aggregate:         models.AggregateAvg,
	})
	if err != nil {
		t.Fatalf("Failed to query aggregates: %v", err)
	}

	if len(rows) != 0 {
		t.Errorf("Expected no buckets when the requested field is absent, got %d", len(rows))
	}
}

func TestPruneReadingsBefore(t *testing.T) {
	dm := setupTestDatabaseManager(t)
	if dm == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer dm.Close()

	deviceID, parameterID := seedPair(t, dm)
	now := time.Now().UTC()

	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 1}`, now.Add(-72*time.Hour))
	storeReadingAt(t, dm, deviceID, parameterID, `{"temp": 2}`, now.Add(-time.Minute))

	deleted, err := dm.PruneReadingsBefore(context.Background(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to prune readings: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 pruned reading, got %d", deleted)
	}

	readings, err := dm.GetReadings(context.Background(), deviceID, parameterID, now.Add(-96*time.Hour), now, 10)
	if err != nil {
		t.Fatalf("Failed to get readings: %v", err)
	}
	if len(readings) != 1 {
		t.Errorf("Expected 1 surviving reading, got %d", len(readings))
	}
}
