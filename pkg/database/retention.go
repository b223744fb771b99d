package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionRunner prunes old readings on a cron cadence
type RetentionRunner struct {
	cron     *cron.Cron
	dm       *DatabaseManager
	maxAge   time.Duration
	cronExpr string
	entryID  cron.EntryID
}

// NewRetentionRunner creates a retention runner. cronExpr uses the standard
// five-field format; maxAge is how much reading history to keep.
func NewRetentionRunner(dm *DatabaseManager, cronExpr string, maxAge time.Duration) *RetentionRunner {
	return &RetentionRunner{
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		dm:       dm,
		maxAge:   maxAge,
		cronExpr: cronExpr,
	}
}

// Start registers and starts the prune job
func (r *RetentionRunner) Start() error {
	if r.maxAge <= 0 {
		return fmt.Errorf("retention max age must be positive, got %s", r.maxAge)
	}

	entryID, err := r.cron.AddFunc(r.cronExpr, r.prune)
	if err != nil {
		return fmt.Errorf("failed to register retention job: %w", err)
	}
	r.entryID = entryID

	r.cron.Start()
	log.Printf("Retention job scheduled (%s), keeping %s of readings", r.cronExpr, r.maxAge)
	return nil
}

// Stop stops the cron scheduler and waits for a running prune to finish
func (r *RetentionRunner) Stop() {
	ctx := r.cron.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		log.Println("Timeout waiting for retention job to complete")
	}
}

// prune deletes readings that fell out of the retention window
func (r *RetentionRunner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-r.maxAge)
	deleted, err := r.dm.PruneReadingsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Retention prune failed: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("✓ Pruned %d reading(s) older than %s", deleted, cutoff.Format(time.RFC3339))
	}
}
