package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/griddeck/griddeck/pkg/database"
	"github.com/griddeck/griddeck/pkg/layout"
	"github.com/griddeck/griddeck/pkg/live"
	"github.com/griddeck/griddeck/pkg/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GridDeck server",
	Long:  `Start the GridDeck server to manage dashboards and poll widget data.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" || jwtSecret == "change_me_in_production" {
		return errors.New("JWT_SECRET environment variable is not set or has an invalid value")
	}

	dbManager := cmd.Context().Value("dbManager").(*database.DatabaseManager)

	// Run migrations
	if err := dbManager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Restore the persisted dashboard state
	state, err := dbManager.LoadDashboardState(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load dashboard state: %w", err)
	}

	engine := layout.NewEngine(state, dbManager)
	snapshots := live.NewSnapshots()
	sched := scheduler.New(dbManager, snapshots)

	// Start polling every widget that survived the restart
	for _, tab := range engine.State().Tabs {
		for _, detail := range tab.Details {
			if err := sched.Configure(detail); err != nil {
				log.Printf("⚠ Skipping polling for widget %s: %v", detail.ID, err)
			}
		}
	}

	retention := startRetention(dbManager)

	// Setup Router
	routeManager := NewRouteManager(dbManager, engine, sched, snapshots)
	routeManager.Setup()

	// Get server port
	port := getEnv("SERVER_PORT", "8059")
	addr := ":" + port

	server := &http.Server{
		Handler:      routeManager.Router,
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received")

		sched.StopAll()
		if retention != nil {
			retention.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting GridDeck server on %s...", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// startRetention starts the readings prune job unless disabled via env
func startRetention(dbManager *database.DatabaseManager) *database.RetentionRunner {
	cronExpr := getEnv("RETENTION_CRON", "0 3 * * *")
	if cronExpr == "off" {
		log.Println("Readings retention disabled")
		return nil
	}

	maxAgeDays, err := strconv.Atoi(getEnv("RETENTION_MAX_AGE_DAYS", "90"))
	if err != nil || maxAgeDays <= 0 {
		log.Printf("⚠ Invalid RETENTION_MAX_AGE_DAYS, falling back to 90")
		maxAgeDays = 90
	}

	retention := database.NewRetentionRunner(dbManager, cronExpr, time.Duration(maxAgeDays)*24*time.Hour)
	if err := retention.Start(); err != nil {
		log.Printf("⚠ Failed to start retention job: %v", err)
		return nil
	}

	return retention
}
