package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/griddeck/griddeck/pkg/models"
)

// mockQuerier implements Querier for testing with call counting
type mockQuerier struct {
	mu        sync.Mutex
	callCount int
	perDevice map[string]int
	rows      []models.AggregateRow
	err       error
	release   chan struct{} // when set, QueryAggregates blocks until closed
}

func (m *mockQuerier) QueryAggregates(ctx context.Context, req models.AggregateRequest) ([]models.AggregateRow, error) {
	m.mu.Lock()
	m.callCount++
	if m.perDevice == nil {
		m.perDevice = make(map[string]int)
	}
	for _, key := range req.Keys {
		m.perDevice[key.DeviceID]++
	}
	release := m.release
	m.mu.Unlock()

	if release != nil {
		<-release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockQuerier) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// mockSnapshots implements SnapshotProvider for testing
type mockSnapshots struct {
	values map[string]models.SnapshotValue
}

func (m *mockSnapshots) Snapshot(deviceID, parameterID string) (models.SnapshotValue, bool) {
	v, ok := m.values[deviceID+"/"+parameterID]
	return v, ok
}

func payloadRow(value float64, at time.Time) models.AggregateRow {
	return models.AggregateRow{
		DeviceID:    "d1",
		ParameterID: "p1",
		Time:        at,
		Data:        json.RawMessage(fmt.Sprintf(`{"value": %g}`, value)),
	}
}

func tableDetail(t *testing.T, rows string) models.WidgetDetail {
	t.Helper()
	return models.WidgetDetail{
		ID:     "1",
		Kind:   models.KindTable,
		Config: json.RawMessage(`{"rows": ` + rows + `}`),
	}
}

// fastRow is a polled row whose cadence is a few milliseconds, so tests can
// observe multiple ticks
const fastRow = `{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "0.00002"}`

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestConfigure_ImmediateFetch(t *testing.T) {
	querier := &mockQuerier{rows: []models.AggregateRow{payloadRow(1, time.Now())}}
	s := New(querier, nil)
	defer s.StopAll()

	detail := tableDetail(t, `[{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	// One fetch must be issued immediately, before any timer fires
	waitFor(t, time.Second, func() bool { return querier.calls() >= 1 })

	key := Key("1", 0)
	waitFor(t, time.Second, func() bool {
		cell, ok := s.Store().Get(key)
		return ok && cell.Status == CellOK
	})
}

func TestConfigure_CadenceIsQuarterOfTimeFrame(t *testing.T) {
	querier := &mockQuerier{}
	s := New(querier, nil)
	defer s.StopAll()

	detail := tableDetail(t, `[{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	s.mu.Lock()
	target, ok := s.targets[Key("1", 0)]
	s.mu.Unlock()
	if !ok {
		t.Fatal("Expected a polling target")
	}
	if target.interval != 6*time.Hour {
		t.Errorf("Expected 6h cadence for a 24h window, got %v", target.interval)
	}
}

func TestConfigure_RealtimeRowsAreNeverScheduled(t *testing.T) {
	querier := &mockQuerier{}
	s := New(querier, nil)
	defer s.StopAll()

	// Three rows share a "last" column: zero polling targets for it.
	// A fourth row aggregates with avg and is polled.
	detail := tableDetail(t, `[
		{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "last"},
		{"deviceId": "d2", "parameterId": "p2", "field": "value", "aggregate": "last"},
		{"deviceId": "d3", "parameterId": "p3", "field": "value", "aggregate": "last"},
		{"deviceId": "d4", "parameterId": "p4", "field": "value", "aggregate": "avg", "timeFrame": "24"}
	]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	if got := s.TargetCount("1"); got != 1 {
		t.Errorf("Expected 1 polling target (realtime rows skipped), got %d", got)
	}
}

func TestConfigure_OneTargetPerAggregatedRow(t *testing.T) {
	querier := &mockQuerier{}
	s := New(querier, nil)
	defer s.StopAll()

	detail := tableDetail(t, `[
		{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"},
		{"deviceId": "d2", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"},
		{"deviceId": "d3", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}
	]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	if got := s.TargetCount("1"); got != 3 {
		t.Errorf("Expected one target per row, got %d", got)
	}
	s.mu.Lock()
	for _, target := range s.targets {
		if target.interval != 6*time.Hour {
			t.Errorf("Expected 6h cadence, got %v", target.interval)
		}
	}
	s.mu.Unlock()
}

func TestScheduler_RepeatedFetches(t *testing.T) {
	querier := &mockQuerier{rows: []models.AggregateRow{payloadRow(1, time.Now())}}
	s := New(querier, nil)
	defer s.StopAll()

	if err := s.Configure(tableDetail(t, `[`+fastRow+`]`)); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	// With a ~18µs interval the timer re-fires essentially immediately
	waitFor(t, time.Second, func() bool { return querier.calls() >= 3 })
}

func TestScheduler_FailureKeepsCadence(t *testing.T) {
	querier := &mockQuerier{err: errors.New("backend down")}
	s := New(querier, nil)
	defer s.StopAll()

	if err := s.Configure(tableDetail(t, `[`+fastRow+`]`)); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	// Failures are rescheduled, never stuck
	waitFor(t, time.Second, func() bool { return querier.calls() >= 3 })

	cell, ok := s.Store().Get(Key("1", 0))
	if !ok || cell.Status != CellUnavailable {
		t.Fatalf("Expected unavailable cell, got %+v (ok=%v)", cell, ok)
	}
	// The message names the identifiers the tooltip shows
	if cell.Message == "" {
		t.Error("Expected an identifying message on the unavailable cell")
	}
}

func TestScheduler_StaleWriteRejected(t *testing.T) {
	release := make(chan struct{})
	querier := &mockQuerier{
		rows:    []models.AggregateRow{payloadRow(1, time.Now())},
		release: release,
	}
	s := New(querier, nil)

	detail := tableDetail(t, `[{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	// Wait until the fetch is in flight, then tear the widget down
	waitFor(t, time.Second, func() bool { return querier.calls() >= 1 })
	s.Stop("1")
	close(release)

	// Give the in-flight fetch time to complete and (wrongly) write
	time.Sleep(50 * time.Millisecond)
	if _, ok := s.Store().Get(Key("1", 0)); ok {
		t.Error("Expected the in-flight result to be dropped after teardown")
	}
}

func TestScheduler_ReconfigureDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	querier := &mockQuerier{
		rows:    []models.AggregateRow{payloadRow(99, time.Now())},
		release: release,
	}
	s := New(querier, nil)
	defer s.StopAll()

	detail := tableDetail(t, `[{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}
	waitFor(t, time.Second, func() bool { return querier.calls() >= 1 })

	// Reconfigure while the first fetch is still blocked; its generation is
	// superseded, so releasing it must not overwrite the fresh target's data
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to reconfigure: %v", err)
	}
	if got := s.TargetCount("1"); got != 1 {
		t.Errorf("Expected reconfiguration to replace targets, got %d", got)
	}
	close(release)
	time.Sleep(50 * time.Millisecond)
}

func TestScheduler_StopCancelsAllRowTimers(t *testing.T) {
	querier := &mockQuerier{rows: []models.AggregateRow{payloadRow(1, time.Now())}}
	s := New(querier, nil)

	if err := s.Configure(tableDetail(t, `[`+fastRow+`, `+fastRow+`, `+fastRow+`]`)); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}
	if got := s.TargetCount("1"); got != 3 {
		t.Fatalf("Expected 3 targets, got %d", got)
	}

	waitFor(t, time.Second, func() bool { return querier.calls() >= 3 })
	s.Stop("1")

	if got := s.TargetCount("1"); got != 0 {
		t.Errorf("Expected all targets removed, got %d", got)
	}

	// Zero further fetches after teardown
	time.Sleep(20 * time.Millisecond)
	before := querier.calls()
	time.Sleep(50 * time.Millisecond)
	if after := querier.calls(); after != before {
		t.Errorf("Observed %d fetches after teardown", after-before)
	}
}

func TestFetchOne_SkipsMalformedItemsAndSorts(t *testing.T) {
	now := time.Now()
	querier := &mockQuerier{rows: []models.AggregateRow{
		payloadRow(3, now),
		{DeviceID: "d1", ParameterID: "p1", Time: now.Add(-time.Hour), Data: json.RawMessage(`{broken`)},
		payloadRow(1, now.Add(-2*time.Hour)),
	}}
	s := New(querier, nil)

	row := models.RowConfig{
		DeviceID: "d1", ParameterID: "p1", Field: "value",
		Aggregate: models.AggregateAvg, TimeFrame: "24",
	}
	series, err := s.fetchOne(context.Background(), row, models.KindSparkline)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("Expected malformed item skipped, got %d points", len(series))
	}
	if !series[0].Timestamp.Before(series[1].Timestamp) {
		t.Error("Expected series ordered by time")
	}
	if series[0].Value != 1 || series[1].Value != 3 {
		t.Errorf("Unexpected values: %+v", series)
	}
}

func TestScheduler_EmptyResultIsNoData(t *testing.T) {
	querier := &mockQuerier{}
	s := New(querier, nil)
	defer s.StopAll()

	detail := tableDetail(t, `[{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}]`)
	if err := s.Configure(detail); err != nil {
		t.Fatalf("Failed to configure: %v", err)
	}

	key := Key("1", 0)
	waitFor(t, time.Second, func() bool {
		cell, ok := s.Store().Get(key)
		return ok && cell.Status == CellNoData
	})
}

func TestCell_PendingBeforeFirstFetch(t *testing.T) {
	s := New(&mockQuerier{}, nil)
	detail := tableDetail(t, `[{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "avg", "timeFrame": "24"}]`)

	cell, err := s.Cell(detail, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cell.Status != CellPending {
		t.Errorf("Expected pending before any fetch, got %s", cell.Status)
	}
}

func TestCell_RealtimeReadsSnapshotProvider(t *testing.T) {
	now := time.Now()
	live := &mockSnapshots{values: map[string]models.SnapshotValue{
		"d1/p1": {Value: 42, UpdatedAt: now},
	}}
	s := New(&mockQuerier{}, live)

	detail := tableDetail(t, `[
		{"deviceId": "d1", "parameterId": "p1", "field": "value", "aggregate": "last"},
		{"deviceId": "d9", "parameterId": "p9", "field": "value", "aggregate": "last"}
	]`)

	cell, err := s.Cell(detail, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cell.Status != CellOK || len(cell.Series) != 1 || cell.Series[0].Value != 42 {
		t.Errorf("Expected live value 42, got %+v", cell)
	}

	// Unknown pair: no data rather than an error
	cell, err = s.Cell(detail, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cell.Status != CellNoData {
		t.Errorf("Expected nodata for unknown pair, got %s", cell.Status)
	}

	if _, err := s.Cell(detail, 5); err == nil {
		t.Error("Expected error for out-of-range row index")
	}
}
