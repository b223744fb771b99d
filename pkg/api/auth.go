package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session is the result of a successful login
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Message string `json:"message"`
}

// Login authenticates against the API and stores the returned token on the
// client, so subsequent calls reach protected endpoints.
func (c *Client) Login(username, password string) (*Session, error) {
	resp, err := c.doRequest("POST", "/api/v1/auth/login", loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("login failed: %s", result.Message)
	}

	c.token = result.Token

	return &Session{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		UserID:    result.User.ID,
		Username:  result.User.Username,
	}, nil
}
