package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/griddeck/griddeck/pkg/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the shared payload of the login and refresh endpoints
type AuthResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	User      UserInfo  `json:"user,omitempty"`
	Message   string    `json:"message,omitempty"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func userInfo(user *models.User) UserInfo {
	return UserInfo{ID: user.ID.String(), Username: user.Username}
}

func writeAuthResponse(w http.ResponseWriter, status int, resp AuthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// issueSession signs a fresh token for the user and writes the success
// payload. Shared by login and refresh.
func (rm *RouteManager) issueSession(w http.ResponseWriter, user *models.User) {
	token, expiresAt, err := GenerateJWT(user)
	if err != nil {
		writeAuthResponse(w, http.StatusInternalServerError, AuthResponse{
			Message: "Failed to generate token",
		})
		return
	}

	writeAuthResponse(w, http.StatusOK, AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userInfo(user),
	})
}

func (rm *RouteManager) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthResponse(w, http.StatusBadRequest, AuthResponse{
			Message: "Invalid request body",
		})
		return
	}

	user, err := rm.dbManager.ValidateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthResponse(w, http.StatusUnauthorized, AuthResponse{
			Message: "Invalid username or password",
		})
		return
	}

	rm.issueSession(w, user)
}

func (rm *RouteManager) handleLogout(w http.ResponseWriter, r *http.Request) {
	// With JWT, logout is handled client-side by removing the token
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (rm *RouteManager) handleMe(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userInfo(user))
}

func (rm *RouteManager) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rm.issueSession(w, user)
}
