package api

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/griddeck/griddeck/pkg/models"
)

// GetDevices retrieves all registered devices
func (c *Client) GetDevices() ([]models.DeviceListItem, error) {
	var devices []models.DeviceListItem
	if err := c.getJSON("/api/v1/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice retrieves a specific device by ID
func (c *Client) GetDevice(id uuid.UUID) (*models.DeviceDetail, error) {
	var device models.DeviceDetail
	if err := c.getJSON(fmt.Sprintf("/api/v1/devices/%s", id), &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// GetParameters retrieves a device's parameters with their latest live values
func (c *Client) GetParameters(deviceID uuid.UUID) ([]models.ParameterWithSnapshot, error) {
	var parameters []models.ParameterWithSnapshot
	if err := c.getJSON(fmt.Sprintf("/api/v1/devices/%s/parameters", deviceID), &parameters); err != nil {
		return nil, err
	}
	return parameters, nil
}
