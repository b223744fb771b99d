package main

import (
	"context"
	"log"
	"net/http"
	"strings"
)

// defaultOrigins covers the local dashboard dev servers when
// SERVER_ALLOWED_ORIGINS is unset
var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

// allowedOrigins reads the comma-separated origin allowlist from the
// environment
func allowedOrigins() []string {
	env := getEnv("SERVER_ALLOWED_ORIGINS", "")
	if env == "" {
		return defaultOrigins
	}
	origins := strings.Split(env, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// corsMiddleware reflects allowlisted origins and answers preflights
func (rm *RouteManager) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			allowed := false
			for _, candidate := range allowedOrigins() {
				if candidate == origin {
					allowed = true
					break
				}
			}
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			} else {
				log.Printf("⚠ Origin %s is not in the allowlist", origin)
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// contextMiddleware makes the database manager reachable from the request
// context, mirroring how the CLI commands receive it
func (rm *RouteManager) contextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), "dbManager", rm.dbManager)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
