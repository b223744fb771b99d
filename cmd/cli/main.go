package main

import (
	"context"
	"fmt"
	"os"

	"github.com/griddeck/griddeck/pkg/database"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "griddeck",
	Short: "GridDeck - IoT Dashboard Server",
	Long: `GridDeck serves a grid-based IoT dashboard: widget layout management
across breakpoints, per-widget data polling and device data ingest.`,
}

func main() {
	dbManager, err := database.NewDatabaseManager()
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer dbManager.Close()

	ctx := context.WithValue(context.Background(), "dbManager", dbManager)
	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
