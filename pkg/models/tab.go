package models

import (
	"encoding/json"
	"fmt"
)

// DefaultTabLabel names the tab substituted when no valid state exists
const DefaultTabLabel = "Dashboard"

// Tab groups one grid of widgets; a dashboard is an ordered sequence of tabs
type Tab struct {
	ID      int                     `json:"id"`
	Label   string                  `json:"label"`
	Icon    string                  `json:"icon,omitempty"`
	Layout  Layout                  `json:"layout"`
	Details map[string]WidgetDetail `json:"details"`
}

// Validate checks the tab's layout invariants and geometry/detail consistency
func (t Tab) Validate() error {
	if err := t.Layout.Validate(); err != nil {
		return fmt.Errorf("tab %d: %w", t.ID, err)
	}
	ids := t.Layout.IDs()
	for id := range ids {
		detail, ok := t.Details[id]
		if !ok {
			return fmt.Errorf("tab %d: layout item %s has no widget detail", t.ID, id)
		}
		if err := detail.Validate(); err != nil {
			return fmt.Errorf("tab %d: %w", t.ID, err)
		}
	}
	for id := range t.Details {
		if !ids[id] {
			return fmt.Errorf("tab %d: widget detail %s has no layout item", t.ID, id)
		}
	}
	return nil
}

// DashboardState is the full persisted dashboard: the ordered tab list
type DashboardState struct {
	Tabs []Tab `json:"tabs"`
}

// Validate checks every tab
func (s DashboardState) Validate() error {
	if len(s.Tabs) == 0 {
		return fmt.Errorf("dashboard must have at least one tab")
	}
	seen := make(map[int]bool, len(s.Tabs))
	for _, tab := range s.Tabs {
		if seen[tab.ID] {
			return fmt.Errorf("duplicate tab id %d", tab.ID)
		}
		seen[tab.ID] = true
		if err := tab.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NewTab creates an empty tab with an empty layout for every breakpoint
func NewTab(id int, label, icon string) Tab {
	layout := make(Layout, len(Breakpoints))
	for _, bp := range Breakpoints {
		layout[bp] = []LayoutItem{}
	}
	return Tab{
		ID:      id,
		Label:   label,
		Icon:    icon,
		Layout:  layout,
		Details: make(map[string]WidgetDetail),
	}
}

// DefaultDashboardState returns the fallback state: one default-labelled tab,
// empty for every configured breakpoint
func DefaultDashboardState() *DashboardState {
	return &DashboardState{Tabs: []Tab{NewTab(1, DefaultTabLabel, "")}}
}

// ParseDashboardState decodes and validates a persisted dashboard config.
// Callers substitute DefaultDashboardState on error.
func ParseDashboardState(raw []byte) (*DashboardState, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty dashboard config")
	}
	var state DashboardState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to parse dashboard config: %w", err)
	}
	// Stored tabs may omit breakpoints added after they were saved
	for i := range state.Tabs {
		if state.Tabs[i].Layout == nil {
			state.Tabs[i].Layout = make(Layout, len(Breakpoints))
		}
		for _, bp := range Breakpoints {
			if _, ok := state.Tabs[i].Layout[bp]; !ok {
				state.Tabs[i].Layout[bp] = []LayoutItem{}
			}
		}
		if state.Tabs[i].Details == nil {
			state.Tabs[i].Details = make(map[string]WidgetDetail)
		}
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}
