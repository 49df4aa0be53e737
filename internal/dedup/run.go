package dedup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/graemeboulton/job-insights-project/internal/store"
)

// Outcome is the terminal state of one maintenance run.
type Outcome int

const (
	// OutcomeClean: no duplicates found; nothing to do.
	OutcomeClean Outcome = iota
	// OutcomeDirty: duplicates found, cleanup not requested.
	OutcomeDirty
	// OutcomeDeclined: duplicates found, operator declined cleanup.
	OutcomeDeclined
	// OutcomeCleaned: cleanup committed and verified clean.
	OutcomeCleaned
	// OutcomeVerificationMismatch: cleanup committed but verification
	// still shows duplicates. Needs manual investigation; never
	// retried automatically.
	OutcomeVerificationMismatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeDirty:
		return "dirty"
	case OutcomeDeclined:
		return "declined"
	case OutcomeCleaned:
		return "cleaned"
	case OutcomeVerificationMismatch:
		return "verification-mismatch"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Options configures one orchestrated run. In and Out exist so tests
// can drive the confirmation gate without touching process stdio.
type Options struct {
	// Cleanup requests removal after detection. Without it the run is
	// detection-only regardless of what is found.
	Cleanup bool

	// BackupPath, when set and cleanup is about to run, receives a
	// JSONL backup of the detected groups before anything is deleted.
	BackupPath string

	In  io.Reader
	Out io.Writer
	Log *zap.SugaredLogger
}

// Run drives detect -> report -> confirm -> cleanup -> verify and
// returns the terminal outcome. Every returned error is fatal to the
// invocation; OutcomeVerificationMismatch is deliberately not an
// error, since the cleanup itself committed.
func Run(ctx context.Context, st store.Store, opts Options) (Outcome, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	startedAt := time.Now().UTC()
	runID := uuid.New()
	log.Infow("starting duplicate check", "run_id", runID, "cleanup", opts.Cleanup)

	rep, err := Detect(ctx, st)
	if err != nil {
		return OutcomeClean, err
	}
	text, hasDuplicates := Format(rep)
	fmt.Fprint(opts.Out, text)

	record := func(mode string, removed int64, verified *bool, note string) {
		rl, ok := st.(store.RunLog)
		if !ok {
			return
		}
		rec := store.RunRecord{
			RunID:       runID,
			StartedAt:   startedAt,
			Mode:        mode,
			GroupsFound: int64(rep.GroupCount()),
			RowsRemoved: removed,
			Verified:    verified,
			Note:        note,
		}
		if err := rl.RecordRun(ctx, rec); err != nil {
			log.Warnw("could not record maintenance run", "run_id", runID, "error", err)
		}
	}

	if !hasDuplicates {
		if opts.Cleanup {
			fmt.Fprintln(opts.Out, "No duplicates found - nothing to clean.")
		}
		record("detect", 0, nil, "clean")
		return OutcomeClean, nil
	}
	if !opts.Cleanup {
		record("detect", 0, nil, "dirty")
		return OutcomeDirty, nil
	}

	ok, err := confirm(opts.In, opts.Out)
	if err != nil {
		return OutcomeDirty, fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		fmt.Fprintln(opts.Out, "Cleanup cancelled by operator.")
		record("detect", 0, nil, "cleanup declined")
		return OutcomeDeclined, nil
	}

	if opts.BackupPath != "" {
		if err := WriteBackup(opts.BackupPath, rep); err != nil {
			// Nothing has been deleted yet; refuse to continue without
			// the backup the operator asked for.
			return OutcomeDirty, err
		}
		log.Infow("backup report written", "path", opts.BackupPath, "groups", rep.GroupCount())
	}

	res, err := Cleanup(ctx, st)
	if err != nil {
		return OutcomeDirty, err
	}
	for _, tr := range res.Removed {
		if tr.Removed > 0 {
			fmt.Fprintf(opts.Out, "   %s: removed %d duplicate rows\n", tr.Table.Qualified(), tr.Removed)
		}
	}
	fmt.Fprintf(opts.Out, "Cleanup complete: %d duplicate rows removed.\n\n", res.TotalRemoved())
	fmt.Fprint(opts.Out, FormatVerification(res.Verification))

	verified := res.Verification.AllClean()
	record("cleanup", res.TotalRemoved(), &verified, "")
	log.Infow("cleanup finished", "run_id", runID,
		"rows_removed", res.TotalRemoved(), "verified_clean", verified)

	if !verified {
		fmt.Fprintln(opts.Out, warnMark("WARNING: verification still reports duplicates; investigate before re-running."))
		return OutcomeVerificationMismatch, nil
	}
	return OutcomeCleaned, nil
}

// confirm blocks on the operator's answer with no timeout. Only an
// exact, case-insensitive "yes" proceeds; anything else (including
// EOF) declines. Nothing has been written by this point, so killing
// the process while it waits is safe.
func confirm(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprint(out, "Found duplicates. Proceed with cleanup? (yes/no): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}
