package layout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/griddeck/griddeck/pkg/models"
)

// ErrPersistFailed marks save failures so callers can tell them apart from
// validation errors. The in-memory state is current either way.
var ErrPersistFailed = errors.New("failed to persist dashboard")

// Saver persists the full dashboard state. Saving is invoked exactly once
// per logical user action; failures are surfaced to the caller but the
// in-memory state is not rolled back.
type Saver interface {
	SaveDashboardState(ctx context.Context, state *models.DashboardState) error
}

// Direction is a single-unit keyboard move or resize step
type Direction string

const (
	DirectionLeft        Direction = "left"
	DirectionRight       Direction = "right"
	DirectionUp          Direction = "up"
	DirectionDown        Direction = "down"
	DirectionWidthMinus  Direction = "widthminus"
	DirectionWidthPlus   Direction = "widthplus"
	DirectionHeightMinus Direction = "heightminus"
	DirectionHeightPlus  Direction = "heightplus"
)

// Validate checks if the direction is one of the supported steps
func (d Direction) Validate() error {
	switch d {
	case DirectionLeft, DirectionRight, DirectionUp, DirectionDown,
		DirectionWidthMinus, DirectionWidthPlus, DirectionHeightMinus, DirectionHeightPlus:
		return nil
	}
	return fmt.Errorf("invalid direction: %s (valid: left, right, up, down, widthminus, widthplus, heightminus, heightplus)", d)
}

// Engine owns the dashboard's grid geometry and widget detail maps. All
// mutations go through its operations, which keep every breakpoint's item
// list consistent and trigger persistence once per logical action. There is
// one logical writer (the active session), so a single mutex suffices.
type Engine struct {
	mu         sync.Mutex
	state      *models.DashboardState
	activeTab  int
	breakpoint models.Breakpoint
	saver      Saver
}

// NewEngine builds an engine around a loaded state. A nil or empty state is
// replaced with the default single-tab dashboard.
func NewEngine(state *models.DashboardState, saver Saver) *Engine {
	if state == nil || len(state.Tabs) == 0 {
		state = models.DefaultDashboardState()
	}
	return &Engine{
		state:      state,
		activeTab:  state.Tabs[0].ID,
		breakpoint: models.BreakpointLG,
		saver:      saver,
	}
}

// State returns a deep copy of the current dashboard state
func (e *Engine) State() *models.DashboardState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyState(e.state)
}

// Breakpoint returns the breakpoint subsequent operations target
func (e *Engine) Breakpoint() models.Breakpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.breakpoint
}

// SetBreakpoint switches the target breakpoint. Pure state transition: no
// geometry is mutated and nothing is persisted.
func (e *Engine) SetBreakpoint(bp models.Breakpoint) error {
	if err := bp.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.breakpoint = bp
	return nil
}

// ActiveTab returns a copy of the active tab
func (e *Engine) ActiveTab() models.Tab {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyTab(*e.tab())
}

// SelectTab makes the given tab the target of subsequent operations
func (e *Engine) SelectTab(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tab := range e.state.Tabs {
		if tab.ID == id {
			e.activeTab = id
			return nil
		}
	}
	return fmt.Errorf("tab %d not found", id)
}

// AddTab appends an empty tab and makes it active
func (e *Engine) AddTab(ctx context.Context, label, icon string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := 0
	for _, tab := range e.state.Tabs {
		if tab.ID > id {
			id = tab.ID
		}
	}
	id++
	if label == "" {
		label = models.DefaultTabLabel
	}
	e.state.Tabs = append(e.state.Tabs, models.NewTab(id, label, icon))
	e.activeTab = id
	return id, e.persist(ctx)
}

// DeleteTab removes a tab. The last remaining tab cannot be deleted.
func (e *Engine) DeleteTab(ctx context.Context, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.state.Tabs) == 1 {
		return fmt.Errorf("cannot delete the last remaining tab")
	}
	index := -1
	for i, tab := range e.state.Tabs {
		if tab.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("tab %d not found", id)
	}
	e.state.Tabs = append(e.state.Tabs[:index], e.state.Tabs[index+1:]...)
	if e.activeTab == id {
		e.activeTab = e.state.Tabs[0].ID
	}
	return e.persist(ctx)
}

// AddWidget places a new widget on every breakpoint of the active tab: the
// sizing hint is clamped per breakpoint, the item is placed at the first
// free position scanning left-to-right then down, and the whole breakpoint
// is compacted vertically. The matching detail entry is created and the full
// state persisted.
func (e *Engine) AddWidget(ctx context.Context, kind models.VisualizationKind, config []byte, hint models.SizingHint) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextWidgetID()
	detail := models.WidgetDetail{ID: id, Kind: kind, Config: config}
	if err := detail.Validate(); err != nil {
		return "", err
	}
	tab := e.tab()

	for _, bp := range models.Breakpoints {
		item := models.LayoutItem{
			ID:   id,
			W:    hint.W,
			H:    hint.H,
			MinW: hint.MinW,
			MinH: hint.MinH,
			MaxW: hint.MaxW,
			MaxH: hint.MaxH,
		}
		item = clampToBounds(item, bp)
		item.X, item.Y = firstFreePosition(tab.Layout[bp], item.W, item.H, bp.Columns())
		tab.Layout[bp] = compactVertical(append(tab.Layout[bp], item))
	}
	tab.Details[id] = detail

	return id, e.persist(ctx)
}

// ResizeWidget updates a widget's size in one breakpoint only; other
// breakpoints deliberately keep their own geometry. A zero dimension leaves
// that axis unchanged. The breakpoint is re-compacted afterwards.
func (e *Engine) ResizeWidget(ctx context.Context, id string, bp models.Breakpoint, newW, newH int) error {
	if err := bp.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	tab := e.tab()
	items := tab.Layout[bp]
	index := indexOf(items, id)
	if index < 0 {
		return fmt.Errorf("widget %s not found in breakpoint %s", id, bp)
	}

	item := items[index]
	if newW > 0 {
		item.W = newW
	}
	if newH > 0 {
		item.H = newH
	}
	item = clampToBounds(item, bp)
	if item == items[index] {
		return nil
	}
	items[index] = item
	tab.Layout[bp] = compactVertical(items)
	return e.persist(ctx)
}

// Nudge is the keyboard-accessible equivalent of a single-unit drag or
// resize. A move step blocked by bounds or another widget is a silent no-op,
// never an error. Resize steps clamp and re-compact exactly like a pointer
// resize, so both input paths land on the same geometry.
func (e *Engine) Nudge(ctx context.Context, id string, bp models.Breakpoint, dir Direction) error {
	if err := bp.Validate(); err != nil {
		return err
	}
	if err := dir.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tab := e.tab()
	items := tab.Layout[bp]
	index := indexOf(items, id)
	if index < 0 {
		return fmt.Errorf("widget %s not found in breakpoint %s", id, bp)
	}

	item := items[index]
	resize := false
	switch dir {
	case DirectionLeft:
		item.X--
	case DirectionRight:
		item.X++
	case DirectionUp:
		item.Y--
	case DirectionDown:
		item.Y++
	case DirectionWidthMinus:
		item.W--
		resize = true
	case DirectionWidthPlus:
		item.W++
		resize = true
	case DirectionHeightMinus:
		item.H--
		resize = true
	case DirectionHeightPlus:
		item.H++
		resize = true
	}

	if resize {
		item = clampToBounds(item, bp)
		if item == items[index] {
			return nil // blocked by min/max
		}
		items[index] = item
		tab.Layout[bp] = compactVertical(items)
		return e.persist(ctx)
	}

	if clampToBounds(item, bp) != item {
		return nil // blocked by bounds
	}
	if firstCollision(items, item) != nil {
		return nil // blocked by a neighbour
	}
	items[index] = item
	tab.Layout[bp] = items
	return e.persist(ctx)
}

// DeleteWidget removes a widget's geometry from every breakpoint and its
// detail entry. Remaining items keep their explicit positions: the vacated
// hole stays until the next manual move.
func (e *Engine) DeleteWidget(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tab := e.tab()
	if _, ok := tab.Details[id]; !ok {
		return fmt.Errorf("widget %s not found", id)
	}
	for bp, items := range tab.Layout {
		index := indexOf(items, id)
		if index < 0 {
			continue
		}
		tab.Layout[bp] = append(items[:index], items[index+1:]...)
	}
	delete(tab.Details, id)
	return e.persist(ctx)
}

// ApplyLayoutChange replaces the active tab's geometry after a drag/resize
// gesture reported by the external grid renderer. Both sides are normalized
// first; a structurally equal layout is a no-op and does not persist,
// breaking redundant save/render loops. Returns whether state changed.
func (e *Engine) ApplyLayoutChange(ctx context.Context, incoming models.Layout) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tab := e.tab()
	if LayoutsEqual(tab.Layout, incoming) {
		return false, nil
	}

	replacement := make(models.Layout, len(models.Breakpoints))
	for _, bp := range models.Breakpoints {
		items := normalizeItems(incoming[bp])
		clamped := make([]models.LayoutItem, 0, len(items))
		for _, item := range items {
			if _, ok := tab.Details[item.ID]; !ok {
				continue // geometry without a detail entry is dropped
			}
			clamped = append(clamped, clampToBounds(item, bp))
		}
		// The renderer's payload is not trusted to be overlap-free;
		// compaction re-separates any colliding rectangles.
		replacement[bp] = compactVertical(clamped)
	}
	tab.Layout = replacement
	return true, e.persist(ctx)
}

// tab returns the active tab. Callers hold the mutex.
func (e *Engine) tab() *models.Tab {
	for i := range e.state.Tabs {
		if e.state.Tabs[i].ID == e.activeTab {
			return &e.state.Tabs[i]
		}
	}
	return &e.state.Tabs[0]
}

// nextWidgetID computes max(existing numeric ids)+1 across ALL tabs, so ids
// stay unique even when widgets move between tabs. Callers hold the mutex.
func (e *Engine) nextWidgetID() string {
	max := 0
	for _, tab := range e.state.Tabs {
		for id := range tab.Details {
			if n, err := strconv.Atoi(id); err == nil && n > max {
				max = n
			}
		}
	}
	return strconv.Itoa(max + 1)
}

func (e *Engine) persist(ctx context.Context) error {
	if e.saver == nil {
		return nil
	}
	if err := e.saver.SaveDashboardState(ctx, copyState(e.state)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return nil
}

func indexOf(items []models.LayoutItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func copyTab(src models.Tab) models.Tab {
	dst := src
	dst.Layout = make(models.Layout, len(src.Layout))
	for bp, items := range src.Layout {
		dst.Layout[bp] = append([]models.LayoutItem(nil), items...)
	}
	dst.Details = make(map[string]models.WidgetDetail, len(src.Details))
	for id, detail := range src.Details {
		dst.Details[id] = detail
	}
	return dst
}

func copyState(src *models.DashboardState) *models.DashboardState {
	dst := &models.DashboardState{Tabs: make([]models.Tab, len(src.Tabs))}
	for i, tab := range src.Tabs {
		dst.Tabs[i] = copyTab(tab)
	}
	return dst
}
