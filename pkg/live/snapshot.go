// Package live maintains the latest known value per (device, parameter)
// pair, outside the polling scheduler's cadence. Rows whose aggregation
// function is the "last" sentinel read from here instead of being polled.
package live

import (
	"sync"
	"time"

	"github.com/griddeck/griddeck/pkg/models"
)

type pairKey struct {
	deviceID    string
	parameterID string
}

// Snapshots is an in-memory latest-value store, safe for concurrent use
type Snapshots struct {
	mu     sync.RWMutex
	values map[pairKey]models.SnapshotValue
}

// NewSnapshots creates an empty snapshot store
func NewSnapshots() *Snapshots {
	return &Snapshots{values: make(map[pairKey]models.SnapshotValue)}
}

// Record stores a new latest value for a pair, ignoring values older than
// the one already held
func (s *Snapshots) Record(deviceID, parameterID string, value float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{deviceID, parameterID}
	if current, ok := s.values[key]; ok && at.Before(current.UpdatedAt) {
		return
	}
	s.values[key] = models.SnapshotValue{Value: value, UpdatedAt: at}
}

// Snapshot returns the latest value for a pair
func (s *Snapshots) Snapshot(deviceID, parameterID string) (models.SnapshotValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[pairKey{deviceID, parameterID}]
	return value, ok
}

// Len returns how many pairs currently hold a value
func (s *Snapshots) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
