// dedup-audit detects duplicate rows across the three pipeline tables
// and, with --cleanup and an operator confirmation, removes everything
// but the newest row per natural key in a single transaction.
//
// Usage:
//
//	dedup-audit             # read-only detection report
//	dedup-audit --cleanup   # detect, confirm, clean, verify
//
// Connection parameters come from local.settings.json (SETTINGS_FILE
// overrides the path) or PG* environment variables. BACKUP_REPORT
// overrides where the pre-cleanup backup report is written.
//
// Exit code 0 covers every completed run, duplicates found or not; 1
// means the run itself failed (configuration, connection, query or
// transaction error).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/graemeboulton/job-insights-project/internal/dedup"
	"github.com/graemeboulton/job-insights-project/internal/logging"
	"github.com/graemeboulton/job-insights-project/internal/settings"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

func main() {
	cleanup := flag.Bool("cleanup", false, "remove duplicates after detection (default: detection only)")
	flag.Parse()

	if err := run(*cleanup); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cleanup bool) error {
	log, err := logging.New("dedup-audit")
	if err != nil {
		return err
	}
	defer log.Sync()

	mode := "DISABLED (detection only)"
	if cleanup {
		mode = "ENABLED (will remove duplicates)"
	}
	fmt.Printf("\nJOBS PIPELINE DUPLICATE DETECTION & CLEANUP\n")
	fmt.Printf("   Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("   Cleanup mode: %s\n", mode)

	cfg, err := settings.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer st.Close()

	outcome, err := dedup.Run(ctx, st, dedup.Options{
		Cleanup:    cleanup,
		BackupPath: backupPath(cleanup),
		In:         os.Stdin,
		Out:        os.Stdout,
		Log:        log,
	})
	if err != nil {
		return err
	}

	log.Infow("duplicate check complete", "outcome", outcome.String())
	fmt.Println("Duplicate check complete.")
	return nil
}

// backupPath resolves where the pre-cleanup backup report goes. Only
// meaningful in cleanup mode; empty disables the backup.
func backupPath(cleanup bool) string {
	if !cleanup {
		return ""
	}
	if p := strings.TrimSpace(os.Getenv("BACKUP_REPORT")); p != "" {
		return p
	}
	return fmt.Sprintf("duplicate_backup_%s.jsonl", time.Now().Format("20060102-150405"))
}
