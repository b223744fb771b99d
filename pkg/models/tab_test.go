package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseDashboardState_Valid(t *testing.T) {
	raw := []byte(`{
		"tabs": [{
			"id": 1,
			"label": "Main",
			"layout": {
				"lg": [{"id": "1", "x": 0, "y": 0, "w": 2, "h": 2}]
			},
			"details": {
				"1": {"id": "1", "kind": "sparkline", "config": {"rows": []}}
			}
		}]
	}`)

	state, err := ParseDashboardState(raw)
	if err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}

	if len(state.Tabs) != 1 {
		t.Fatalf("Expected 1 tab, got %d", len(state.Tabs))
	}

	// Breakpoints missing from the stored JSON are backfilled empty
	for _, bp := range Breakpoints {
		if _, ok := state.Tabs[0].Layout[bp]; !ok {
			t.Errorf("Expected breakpoint %s to be backfilled", bp)
		}
	}
}

func TestParseDashboardState_InvalidJSONFallsBackToDefault(t *testing.T) {
	for _, raw := range [][]byte{
		nil,
		[]byte("not json"),
		[]byte(`{"tabs": []}`),
	} {
		if _, err := ParseDashboardState(raw); err == nil {
			t.Errorf("Expected error for %q", raw)
			continue
		}

		// Callers substitute the default on error: exactly one tab with the
		// default label and empty layout for every configured breakpoint.
		state := DefaultDashboardState()
		if len(state.Tabs) != 1 {
			t.Fatalf("Expected 1 default tab, got %d", len(state.Tabs))
		}
		tab := state.Tabs[0]
		if tab.Label != DefaultTabLabel {
			t.Errorf("Expected default label %q, got %q", DefaultTabLabel, tab.Label)
		}
		if len(tab.Details) != 0 {
			t.Errorf("Expected empty details, got %d entries", len(tab.Details))
		}
		for _, bp := range Breakpoints {
			items, ok := tab.Layout[bp]
			if !ok {
				t.Errorf("Expected layout entry for breakpoint %s", bp)
			}
			if len(items) != 0 {
				t.Errorf("Expected empty layout for breakpoint %s, got %d items", bp, len(items))
			}
		}
	}
}

func TestTab_Validate_GeometryDetailConsistency(t *testing.T) {
	tab := NewTab(1, "Main", "")
	tab.Layout[BreakpointLG] = []LayoutItem{{ID: "1", X: 0, Y: 0, W: 2, H: 2}}

	err := tab.Validate()
	if err == nil || !strings.Contains(err.Error(), "no widget detail") {
		t.Errorf("Expected orphaned geometry error, got %v", err)
	}

	tab.Details["1"] = WidgetDetail{ID: "1", Kind: KindTable}
	if err := tab.Validate(); err != nil {
		t.Errorf("Expected consistent tab to validate, got %v", err)
	}

	tab.Details["2"] = WidgetDetail{ID: "2", Kind: KindTable}
	err = tab.Validate()
	if err == nil || !strings.Contains(err.Error(), "no layout item") {
		t.Errorf("Expected orphaned detail error, got %v", err)
	}
}

func TestDashboardState_Validate_DuplicateTabIDs(t *testing.T) {
	state := DashboardState{Tabs: []Tab{NewTab(1, "A", ""), NewTab(1, "B", "")}}
	err := state.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate tab id") {
		t.Errorf("Expected duplicate tab id error, got %v", err)
	}
}

func TestDashboardState_RoundTrip(t *testing.T) {
	state := DefaultDashboardState()
	state.Tabs[0].Layout[BreakpointLG] = []LayoutItem{{ID: "1", X: 0, Y: 0, W: 2, H: 2, MinW: 1, MinH: 1}}
	state.Tabs[0].Details["1"] = WidgetDetail{
		ID:     "1",
		Kind:   KindLineChart,
		Config: json.RawMessage(`{"rows":[{"deviceId":"d1","parameterId":"p1","field":"value","aggregate":"avg","timeFrame":"24"}]}`),
	}

	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	parsed, err := ParseDashboardState(raw)
	if err != nil {
		t.Fatalf("Failed to parse marshaled state: %v", err)
	}
	if len(parsed.Tabs) != 1 || len(parsed.Tabs[0].Layout[BreakpointLG]) != 1 {
		t.Error("Expected layout to survive the round trip")
	}
	rows, err := parsed.Tabs[0].Details["1"].DataRows()
	if err != nil || len(rows) != 1 {
		t.Errorf("Expected config rows to survive the round trip, got %v, %v", rows, err)
	}
}
