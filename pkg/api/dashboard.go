package api

import (
	"encoding/json"
	"fmt"

	"github.com/griddeck/griddeck/pkg/layout"
	"github.com/griddeck/griddeck/pkg/models"
	"github.com/griddeck/griddeck/pkg/scheduler"
)

// DashboardState bundles the grid state with the renderer context, as
// returned by the state endpoint
type DashboardState struct {
	State      *models.DashboardState `json:"state"`
	ActiveTab  int                    `json:"active_tab"`
	Breakpoint models.Breakpoint      `json:"breakpoint"`
}

// GetDashboardState retrieves the current in-memory grid state
func (c *Client) GetDashboardState() (*DashboardState, error) {
	var state DashboardState
	if err := c.getJSON("/api/v1/dashboard/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// WidgetCell is one row's data cell of a widget
type WidgetCell struct {
	Row  models.RowConfig `json:"row"`
	Cell scheduler.Cell   `json:"cell"`
}

// GetWidgetCells retrieves the polled data cells of a widget
func (c *Client) GetWidgetCells(widgetID string) ([]WidgetCell, error) {
	var cells []WidgetCell
	if err := c.getJSON(fmt.Sprintf("/api/v1/widgets/%s/cells", widgetID), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// AddWidget places a new widget on the active tab and returns its ID.
// Requires a token.
func (c *Client) AddWidget(kind models.VisualizationKind, config json.RawMessage, hint models.SizingHint) (string, error) {
	resp, err := c.doRequest("POST", "/api/v1/dashboard/widgets", map[string]interface{}{
		"kind":   kind,
		"config": config,
		"hint":   hint,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.ID, nil
}

// DeleteWidget removes a widget from the dashboard. Requires a token.
func (c *Client) DeleteWidget(widgetID string) error {
	resp, err := c.doRequest("DELETE", fmt.Sprintf("/api/v1/dashboard/widgets/%s", widgetID), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ResizeWidget changes a widget's size at one breakpoint. Requires a token.
func (c *Client) ResizeWidget(widgetID string, bp models.Breakpoint, w, h int) error {
	resp, err := c.doRequest("PUT", fmt.Sprintf("/api/v1/dashboard/widgets/%s/resize", widgetID), map[string]interface{}{
		"breakpoint": bp,
		"w":          w,
		"h":          h,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// NudgeWidget moves a widget one cell in the given direction. Requires a token.
func (c *Client) NudgeWidget(widgetID string, bp models.Breakpoint, dir layout.Direction) error {
	resp, err := c.doRequest("POST", fmt.Sprintf("/api/v1/dashboard/widgets/%s/nudge", widgetID), map[string]interface{}{
		"breakpoint": bp,
		"direction":  dir,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// AddTab creates a new dashboard tab and returns its ID. Requires a token.
func (c *Client) AddTab(label, icon string) (int, error) {
	resp, err := c.doRequest("POST", "/api/v1/dashboard/tabs", map[string]string{
		"label": label,
		"icon":  icon,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.ID, nil
}

// SelectTab switches the active tab. Requires a token.
func (c *Client) SelectTab(tabID int) error {
	resp, err := c.doRequest("POST", fmt.Sprintf("/api/v1/dashboard/tabs/%d/select", tabID), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
