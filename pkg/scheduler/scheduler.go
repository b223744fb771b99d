package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/griddeck/griddeck/pkg/models"
)

// FetchesPerTimeFrame is the fixed cadence divisor: each polled row is
// refetched FetchesPerTimeFrame times per configured time window.
const FetchesPerTimeFrame = 4

// Querier executes aggregated-series queries against the readings source
type Querier interface {
	QueryAggregates(ctx context.Context, req models.AggregateRequest) ([]models.AggregateRow, error)
}

// SnapshotProvider serves the live latest value behind the "last" sentinel
type SnapshotProvider interface {
	Snapshot(deviceID, parameterID string) (models.SnapshotValue, bool)
}

// target is one scheduled polling key: a widget row with its own cadence,
// timer, and generation stamp for the stale-write guard
type target struct {
	key           string
	widgetID      string
	row           models.RowConfig
	kind          models.VisualizationKind
	interval      time.Duration
	generation    uint64
	timer         *time.Timer
	lastFetchedAt time.Time
}

// Scheduler keeps every visible widget's data fresh: one self-rearming timer
// per polled row, deduplicated in-flight fetches via generation stamps, and
// results merged into a keyed store.
type Scheduler struct {
	querier Querier
	live    SnapshotProvider
	store   *Store

	mu         sync.Mutex
	targets    map[string]*target
	byWidget   map[string][]string
	generation uint64
}

// New creates a scheduler. live may be nil when no realtime source exists.
func New(querier Querier, live SnapshotProvider) *Scheduler {
	return &Scheduler{
		querier:  querier,
		live:     live,
		store:    NewStore(),
		targets:  make(map[string]*target),
		byWidget: make(map[string][]string),
	}
}

// Store exposes the keyed view model for rendering
func (s *Scheduler) Store() *Store {
	return s.store
}

// Key names the store entry for one widget row
func Key(widgetID string, rowIndex int) string {
	return fmt.Sprintf("%s:%d", widgetID, rowIndex)
}

// Configure (re)schedules polling for a widget: any existing timers for its
// keys are cancelled, a fresh per-row cadence is computed, and one immediate
// fetch per key runs before the next timer is armed. Called when a widget
// becomes visible or its configuration changes.
func (s *Scheduler) Configure(detail models.WidgetDetail) error {
	rows, err := detail.DataRows()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stopLocked(detail.ID)

	var started []*target
	for i, row := range rows {
		if row.Aggregate.IsRealtime() {
			continue // served by the live snapshot store, never polled
		}
		hours, err := row.TimeFrameHours()
		if err != nil {
			log.Printf("widget %s row %d: %v, skipping", detail.ID, i, err)
			continue
		}
		s.generation++
		t := &target{
			key:        Key(detail.ID, i),
			widgetID:   detail.ID,
			row:        row,
			kind:       detail.Kind,
			interval:   time.Duration(hours / FetchesPerTimeFrame * float64(time.Hour)),
			generation: s.generation,
		}
		s.targets[t.key] = t
		s.byWidget[detail.ID] = append(s.byWidget[detail.ID], t.key)
		started = append(started, t)
	}
	s.mu.Unlock()

	for _, t := range started {
		go s.runFetch(t.key, t.generation)
	}
	return nil
}

// Stop tears down every polling key of a widget and cancels its timers.
// In-flight fetches are allowed to complete but their results are dropped.
// Called on unmount or when the widget becomes invisible.
func (s *Scheduler) Stop(widgetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(widgetID)
}

// StopAll tears down every widget's polling keys
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for widgetID := range s.byWidget {
		s.stopLocked(widgetID)
	}
}

// stopLocked cancels and removes a widget's targets. Callers hold the mutex.
// Removing the target invalidates its generation stamp, which is what makes
// late fetch results bounce off.
func (s *Scheduler) stopLocked(widgetID string) {
	for _, key := range s.byWidget[widgetID] {
		if t, ok := s.targets[key]; ok {
			if t.timer != nil {
				t.timer.Stop()
			}
			delete(s.targets, key)
		}
	}
	delete(s.byWidget, widgetID)
}

// TargetCount returns how many polling keys a widget currently has
func (s *Scheduler) TargetCount(widgetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byWidget[widgetID])
}

// runFetch performs one fetch for a key, writes the result if the target is
// still current, and arms the next timer. A target torn down or reconfigured
// while the fetch was in flight fails the generation check and the result is
// discarded, keeping per-key writes monotonic by issue time.
func (s *Scheduler) runFetch(key string, generation uint64) {
	var (
		t  *target
		ok bool
	)
	s.mu.Lock()
	t, ok = s.targets[key]
	if !ok || t.generation != generation {
		s.mu.Unlock()
		return
	}
	row, kind := t.row, t.kind
	s.mu.Unlock()

	series, err := s.fetchOne(context.Background(), row, kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok = s.targets[key]
	if !ok || t.generation != generation {
		return // stale: torn down or reconfigured while in flight
	}
	t.lastFetchedAt = time.Now()
	t.timer = time.AfterFunc(t.interval, func() {
		s.runFetch(key, generation)
	})

	switch {
	case err != nil:
		// Failure does not stop the cadence: at most stale, never stuck
		log.Printf("fetch failed for %s (device %s parameter %s): %v", key, row.DeviceID, row.ParameterID, err)
		s.store.SetUnavailable(key, fmt.Sprintf("device %s parameter %s unavailable", row.DeviceID, row.ParameterID))
	case len(series) == 0:
		s.store.SetNoData(key)
	default:
		s.store.SetSeries(key, series)
	}
}

// fetchOne queries one row's (device, parameter) pair over the configured
// window and parses the per-timestamp payloads into a series. Malformed
// items are skipped so their siblings still render.
func (s *Scheduler) fetchOne(ctx context.Context, row models.RowConfig, kind models.VisualizationKind) (models.Series, error) {
	hours, err := row.TimeFrameHours()
	if err != nil {
		return nil, err
	}
	resolution, err := row.ResolutionMinutes(kind.SampleCount())
	if err != nil {
		return nil, err
	}

	req := models.AggregateRequest{
		Keys: []models.SensorKey{{
			DeviceID:    row.DeviceID,
			ParameterID: row.ParameterID,
			Fields:      []string{row.Field},
		}},
		From:              time.Now().Add(-time.Duration(hours * float64(time.Hour))),
		ResolutionMinutes: resolution,
		Aggregate:         row.Aggregate,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.querier.QueryAggregates(ctx, req)
	if err != nil {
		return nil, err
	}

	series := make(models.Series, 0, len(rows))
	for _, item := range rows {
		value, err := item.ExtractField(row.Field)
		if err != nil {
			log.Printf("skipping item: %v", err)
			continue
		}
		series = append(series, models.SeriesDatum{Timestamp: item.Time, Value: value})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
	return series, nil
}

// Cell resolves one row's view-model cell. Polled rows read the store;
// realtime rows read the live snapshot provider instead.
func (s *Scheduler) Cell(detail models.WidgetDetail, rowIndex int) (Cell, error) {
	rows, err := detail.DataRows()
	if err != nil {
		return Cell{}, err
	}
	if rowIndex < 0 || rowIndex >= len(rows) {
		return Cell{}, fmt.Errorf("widget %s has no row %d", detail.ID, rowIndex)
	}
	row := rows[rowIndex]

	if row.Aggregate.IsRealtime() {
		if s.live == nil {
			return Cell{Status: CellUnavailable, Message: "no realtime source configured"}, nil
		}
		snapshot, ok := s.live.Snapshot(row.DeviceID, row.ParameterID)
		if !ok {
			return Cell{Status: CellNoData}, nil
		}
		return Cell{
			Status:    CellOK,
			Series:    models.Series{{Timestamp: snapshot.UpdatedAt, Value: snapshot.Value}},
			UpdatedAt: snapshot.UpdatedAt,
		}, nil
	}

	cell, ok := s.store.Get(Key(detail.ID, rowIndex))
	if !ok {
		return Cell{Status: CellPending}, nil
	}
	return cell, nil
}
