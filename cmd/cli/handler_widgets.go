package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/griddeck/griddeck/pkg/layout"
	"github.com/griddeck/griddeck/pkg/models"
	"github.com/griddeck/griddeck/pkg/scheduler"
)

type AddWidgetRequest struct {
	Kind   models.VisualizationKind `json:"kind"`
	Config json.RawMessage          `json:"config"`
	Hint   models.SizingHint        `json:"hint"`
}

type ResizeWidgetRequest struct {
	Breakpoint models.Breakpoint `json:"breakpoint"`
	W          int               `json:"w"`
	H          int               `json:"h"`
}

type NudgeWidgetRequest struct {
	Breakpoint models.Breakpoint `json:"breakpoint"`
	Direction  layout.Direction  `json:"direction"`
}

// findWidgetDetail looks a widget up across all tabs
func (rm *RouteManager) findWidgetDetail(id string) (models.WidgetDetail, bool) {
	for _, tab := range rm.engine.State().Tabs {
		if detail, ok := tab.Details[id]; ok {
			return detail, true
		}
	}
	return models.WidgetDetail{}, false
}

// respondEngineError maps layout engine errors to status codes
func respondEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, layout.ErrPersistFailed) {
		log.Printf("❌ %v", err)
		http.Error(w, "Failed to persist dashboard", http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (rm *RouteManager) addWidgetHandler(w http.ResponseWriter, r *http.Request) {
	var req AddWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := rm.engine.AddWidget(r.Context(), req.Kind, req.Config, req.Hint)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	// Start polling the new widget's aggregated rows
	if detail, ok := rm.findWidgetDetail(id); ok {
		if err := rm.scheduler.Configure(detail); err != nil {
			log.Printf("⚠ Failed to start polling for widget %s: %v", id, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (rm *RouteManager) deleteWidgetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, found := rm.findWidgetDetail(id)

	if err := rm.engine.DeleteWidget(r.Context(), id); err != nil {
		respondEngineError(w, err)
		return
	}

	// Tear down polling and drop cached cells
	rm.scheduler.Stop(id)
	if found {
		if rows, err := detail.DataRows(); err == nil {
			keys := make([]string, len(rows))
			for i := range rows {
				keys[i] = scheduler.Key(id, i)
			}
			rm.scheduler.Store().Remove(keys...)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (rm *RouteManager) resizeWidgetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req ResizeWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := rm.engine.ResizeWidget(r.Context(), id, req.Breakpoint, req.W, req.H); err != nil {
		respondEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (rm *RouteManager) nudgeWidgetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req NudgeWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := rm.engine.Nudge(r.Context(), id, req.Breakpoint, req.Direction); err != nil {
		respondEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (rm *RouteManager) applyLayoutHandler(w http.ResponseWriter, r *http.Request) {
	var incoming models.Layout
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	changed, err := rm.engine.ApplyLayoutChange(r.Context(), incoming)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"changed": changed})
}

func (rm *RouteManager) setBreakpointHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Breakpoint models.Breakpoint `json:"breakpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := rm.engine.SetBreakpoint(req.Breakpoint); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (rm *RouteManager) addTabHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
		Icon  string `json:"icon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := rm.engine.AddTab(r.Context(), req.Label, req.Icon)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int{"id": id})
}

func (rm *RouteManager) deleteTabHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid tab id", http.StatusBadRequest)
		return
	}

	// Remember the tab's widgets so their polling can be torn down
	var details []models.WidgetDetail
	for _, tab := range rm.engine.State().Tabs {
		if tab.ID == id {
			for _, detail := range tab.Details {
				details = append(details, detail)
			}
		}
	}

	if err := rm.engine.DeleteTab(r.Context(), id); err != nil {
		respondEngineError(w, err)
		return
	}

	for _, detail := range details {
		rm.scheduler.Stop(detail.ID)
		if rows, err := detail.DataRows(); err == nil {
			keys := make([]string, len(rows))
			for i := range rows {
				keys[i] = scheduler.Key(detail.ID, i)
			}
			rm.scheduler.Store().Remove(keys...)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (rm *RouteManager) selectTabHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid tab id", http.StatusBadRequest)
		return
	}

	if err := rm.engine.SelectTab(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// WidgetCell is one row's data cell in the API response. Display carries the
// latest value rendered at the row's configured precision; raw series values
// stay untouched.
type WidgetCell struct {
	Row     models.RowConfig `json:"row"`
	Cell    scheduler.Cell   `json:"cell"`
	Display string           `json:"display,omitempty"`
}

func (rm *RouteManager) getWidgetCellsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, ok := rm.findWidgetDetail(id)
	if !ok {
		http.Error(w, "Widget not found", http.StatusNotFound)
		return
	}

	rows, err := detail.DataRows()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cells := make([]WidgetCell, 0, len(rows))
	for i, row := range rows {
		cell, err := rm.scheduler.Cell(detail, i)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := WidgetCell{Row: row, Cell: cell}
		if n := len(cell.Series); n > 0 {
			out.Display = models.FormatValue(cell.Series[n-1].Value, row.Decimals)
		}
		cells = append(cells, out)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cells)
}
