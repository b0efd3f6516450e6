package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Store string
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string   `json:"run_id"`
	Target        string   `json:"target"`
	Outputs       int      `json:"outputs"`
	OutputHash    string   `json:"output_hash"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Re-synchronise recorded runs and verify determinism",
		Long: `Re-synchronise the stored input of recorded runs with their stored
options and compare the output hash and descriptor states against the
ledger. Without a run id every run is replayed in ledger order.

Exit codes:
  0 - All runs are deterministic
  1 - A replayed run differs from its record
  2 - Command error (store not found, unknown run id)

Examples:
  animsync replay --store runs.db
  animsync replay 0192f0c4-7a1e-7b9e-9b8a-3c7d2f6e1a01 --store runs.db
  animsync replay --store runs.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReplay(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "path to the SQLite run ledger (required)")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Store)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	replays, err := replayRuns(ctx, st, runID, engine.WithLogger(opts.Logger(cmd)))
	if err != nil {
		code := ErrCodeStore
		if store.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(replays)),
		TotalRuns:        len(replays),
		AllDeterministic: true,
	}
	for _, rr := range replays {
		result.Runs = append(result.Runs, ReplayRunResult{
			RunID:         rr.Run.ID,
			Target:        rr.Run.Target,
			Outputs:       len(rr.Result.Outputs),
			OutputHash:    rr.OutputHash,
			Deterministic: rr.Match,
			Mismatches:    rr.Mismatches,
		})
		if !rr.Match {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// openExistingStore opens a ledger that must already exist. store.Open
// alone would create an empty one.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("store not found: %s", path)
	}
	return store.Open(path)
}

func replayRuns(ctx context.Context, st *store.Store, runID string, opts ...engine.EngineOption) ([]store.ReplayResult, error) {
	if runID == "" {
		return st.ReplayAll(ctx, opts...)
	}
	rr, err := st.Replay(ctx, runID, opts...)
	if err != nil {
		return nil, err
	}
	return []store.ReplayResult{rr}, nil
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if result.AllDeterministic {
		return formatter.Success(result)
	}
	if err := formatter.Failure("E_DETERMINISM", "determinism verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "determinism verification failed")
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in store.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (target %s)\n", status, run.RunID, run.Target)
		if formatter.Verbose {
			fmt.Fprintf(w, "  Outputs: %d\n", run.Outputs)
			fmt.Fprintf(w, "  Output hash: %s\n", run.OutputHash)
		}
		for _, m := range run.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
