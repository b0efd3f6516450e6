package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/animsync/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Store     string
	Target    string
	Source    string
	InputHash string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded in a ledger in ledger order.

Filters combine with AND. With --input-hash only runs of that exact input
are listed, which shows whether the same input was ever synchronised to
different outputs.

Examples:
  animsync runs --store runs.db
  animsync runs --store runs.db --target box
  animsync runs --store runs.db --input-hash 9f2c...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "path to the SQLite run ledger (required)")
	_ = cmd.MarkFlagRequired("store")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only runs of this target")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only runs synchronised from this document path")
	cmd.Flags().StringVar(&opts.InputHash, "input-hash", "", "only runs whose input has this hash")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Store)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	runs, err := st.FindRuns(ctx, store.RunFilter{
		Target:    opts.Target,
		Source:    opts.Source,
		InputHash: opts.InputHash,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	return formatter.Report(runs, func(w io.Writer) error {
		return writeRunsTable(w, runs)
	})
}

func writeRunsTable(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found in store.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tTARGET\tCONDITIONS\tOUTPUT HASH")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.Seq, r.ID, r.Target, r.Conditions, r.OutputHash)
	}
	return tw.Flush()
}
