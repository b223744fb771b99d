package api

// HealthStatus represents the API health status
type HealthStatus struct {
	Status string `json:"status"`
}

// Health checks if the API is healthy
func (c *Client) Health() (*HealthStatus, error) {
	var health HealthStatus
	if err := c.getJSON("/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}
