package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/griddeck/griddeck/pkg/database"
	"github.com/griddeck/griddeck/pkg/layout"
	"github.com/griddeck/griddeck/pkg/live"
	"github.com/griddeck/griddeck/pkg/parser"
	"github.com/griddeck/griddeck/pkg/parser/ecowitt"
	"github.com/griddeck/griddeck/pkg/scheduler"
)

// RouteManager handles all API routes
type RouteManager struct {
	dbManager *database.DatabaseManager
	engine    *layout.Engine
	scheduler *scheduler.Scheduler
	snapshots *live.Snapshots
	Router    *mux.Router
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(dbManager *database.DatabaseManager, engine *layout.Engine, sched *scheduler.Scheduler, snapshots *live.Snapshots) *RouteManager {
	return &RouteManager{
		dbManager: dbManager,
		engine:    engine,
		scheduler: sched,
		snapshots: snapshots,
		Router:    mux.NewRouter(),
	}
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.corsMiddleware)
	r.Use(rm.contextMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods("GET")

	// Device data ingest (devices push without auth, like any station firmware)
	r.HandleFunc("/ingest/readings", rm.ingestReadingHandler).Methods("POST")

	// Vendor push endpoints - firmware submits form-encoded values
	registry := parser.NewRegistry()
	registry.Register(&ecowitt.Parser{})
	for _, p := range registry.All() {
		r.HandleFunc(p.GetEndpoint(), rm.devicePushHandler(p)).Methods("GET", "POST")
	}

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	// Public auth endpoints (no auth required)
	api.HandleFunc("/auth/login", rm.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", rm.handleLogout).Methods("POST")

	// Dashboard state (read-only view of the grid)
	api.HandleFunc("/dashboard/state", rm.getDashboardStateHandler).Methods("GET")

	// Widget data cells
	api.HandleFunc("/widgets/{id}/cells", rm.getWidgetCellsHandler).Methods("GET")

	// Devices
	api.HandleFunc("/devices", rm.getDevicesHandler).Methods("GET")
	api.HandleFunc("/devices/{id}", rm.getDeviceHandler).Methods("GET")
	api.HandleFunc("/devices/{id}/parameters", rm.getParametersHandler).Methods("GET")

	// Readings
	api.HandleFunc("/readings", rm.getReadingsHandler).Methods("GET")

	// Dashboards
	api.HandleFunc("/dashboards", rm.handleGetPublicDashboards).Methods("GET")
	api.HandleFunc("/dashboards/{id}", rm.handleGetDashboard).Methods("GET")

	// Protected endpoints (auth required)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(rm.JWTAuthMiddleware)

	// User info
	protected.HandleFunc("/auth/me", rm.handleMe).Methods("GET")
	protected.HandleFunc("/auth/refresh", rm.handleRefreshToken).Methods("POST")

	// Grid editing
	protected.HandleFunc("/dashboard/widgets", rm.addWidgetHandler).Methods("POST")
	protected.HandleFunc("/dashboard/widgets/{id}", rm.deleteWidgetHandler).Methods("DELETE")
	protected.HandleFunc("/dashboard/widgets/{id}/resize", rm.resizeWidgetHandler).Methods("PUT")
	protected.HandleFunc("/dashboard/widgets/{id}/nudge", rm.nudgeWidgetHandler).Methods("POST")
	protected.HandleFunc("/dashboard/layout", rm.applyLayoutHandler).Methods("PUT")
	protected.HandleFunc("/dashboard/breakpoint", rm.setBreakpointHandler).Methods("PUT")
	protected.HandleFunc("/dashboard/tabs", rm.addTabHandler).Methods("POST")
	protected.HandleFunc("/dashboard/tabs/{id}", rm.deleteTabHandler).Methods("DELETE")
	protected.HandleFunc("/dashboard/tabs/{id}/select", rm.selectTabHandler).Methods("POST")

	// Dashboard management
	protected.HandleFunc("/dashboards", rm.handleCreateDashboard).Methods("POST")
	protected.HandleFunc("/dashboards/{id}", rm.handleUpdateDashboard).Methods("PUT")
	protected.HandleFunc("/dashboards/{id}", rm.handleDeleteDashboard).Methods("DELETE")
}
