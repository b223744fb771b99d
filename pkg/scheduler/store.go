package scheduler

import (
	"sync"
	"time"

	"github.com/griddeck/griddeck/pkg/models"
)

// CellStatus tells the renderer how to treat a cell's data
type CellStatus string

const (
	// CellPending means no fetch has completed yet (loading)
	CellPending CellStatus = "pending"
	// CellOK means the cell holds a fresh series
	CellOK CellStatus = "ok"
	// CellNoData means the fetch succeeded but the window holds no points;
	// distinct from pending so the UI can tell loading from unavailable
	CellNoData CellStatus = "nodata"
	// CellUnavailable means the last fetch or parse failed
	CellUnavailable CellStatus = "unavailable"
)

// Cell is one key's slice of the shared view model
type Cell struct {
	Status    CellStatus    `json:"status"`
	Series    models.Series `json:"series,omitempty"`
	Message   string        `json:"message,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store holds the per-key fetch results consumed by rendering. Each fetch
// completion writes exactly its own key, so concurrent writes to different
// keys never interfere.
type Store struct {
	mu    sync.RWMutex
	cells map[string]Cell
}

// NewStore creates an empty series store
func NewStore() *Store {
	return &Store{cells: make(map[string]Cell)}
}

// Get returns one key's cell; ok is false when nothing was written yet
func (s *Store) Get(key string) (Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.cells[key]
	return cell, ok
}

// SetSeries merges a successful fetch result into the store, replacing only
// the given key's entry
func (s *Store) SetSeries(key string, series models.Series) {
	s.set(key, Cell{Status: CellOK, Series: series, UpdatedAt: time.Now()})
}

// SetNoData marks a key as fetched-but-empty
func (s *Store) SetNoData(key string) {
	s.set(key, Cell{Status: CellNoData, UpdatedAt: time.Now()})
}

// SetUnavailable marks a key as failed with a renderer-visible message
func (s *Store) SetUnavailable(key, message string) {
	s.set(key, Cell{Status: CellUnavailable, Message: message, UpdatedAt: time.Now()})
}

func (s *Store) set(key string, cell Cell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[key] = cell
}

// Remove drops the given keys, typically when a widget is deleted
func (s *Store) Remove(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.cells, key)
	}
}

// Snapshot returns a copy of every cell, keyed as written
func (s *Store) Snapshot() map[string]Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cells := make(map[string]Cell, len(s.cells))
	for key, cell := range s.cells {
		cells[key] = cell
	}
	return cells
}
