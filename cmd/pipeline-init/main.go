// pipeline-init creates the pipeline schemas and tables, and can seed
// a small synthetic data set for local development.
//
// Usage:
//
//	pipeline-init --mode init
//	pipeline-init --mode seed [--with-duplicates]
//
// Seeding with --with-duplicates reproduces the standard dirty fixture
// used to exercise dedup-audit end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/graemeboulton/job-insights-project/internal/logging"
	"github.com/graemeboulton/job-insights-project/internal/settings"
	"github.com/graemeboulton/job-insights-project/internal/store"
)

func main() {
	mode := flag.String("mode", "init", "init|seed")
	withDuplicates := flag.Bool("with-duplicates", false, "seed duplicate rows for dedup testing")
	flag.Parse()

	if err := run(*mode, *withDuplicates); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(mode string, withDuplicates bool) error {
	log, err := logging.New("pipeline-init")
	if err != nil {
		return err
	}
	defer log.Sync()

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

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "init":
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		fmt.Println("OK: schemas and tables ensured.")
		return nil
	case "seed":
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := st.SeedSynthetic(ctx, withDuplicates); err != nil {
			return err
		}
		log.Infow("seeded synthetic data", "with_duplicates", withDuplicates)
		fmt.Println("OK: synthetic data seeded.")
		return nil
	default:
		return fmt.Errorf("unknown --mode %q (expected init|seed)", mode)
	}
}
