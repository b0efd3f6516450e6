package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/animsync/internal/compiler"
	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/ir"
	"github.com/roach88/animsync/internal/store"
)

// EngineFlags are the command-line forms of the document options. A flag
// overrides the document only when it is set.
type EngineFlags struct {
	KeyTimes      string
	FrameRate     float64
	Precision     int
	MaxKeyframes  int
	SampleCount   int
	AlignInfinite bool
}

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	EngineFlags

	Store  string // run ledger path; empty disables recording
	Target string // synchronise one target only
	Output string // write the JSON result here instead of stdout
}

// SyncTarget is the synchronised output of one target.
type SyncTarget struct {
	ID         string             `json:"id"`
	RunID      string             `json:"run_id"`
	Outputs    []ir.Flat          `json:"outputs"`
	Conditions []engine.Condition `json:"conditions,omitempty"`
}

// SyncResult is the payload of the sync command.
type SyncResult struct {
	Targets []SyncTarget `json:"targets"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <document>",
		Short: "Flatten a document's animations into non-overlapping timelines",
		Long: `Compile an animation document (YAML, CUE file, or CUE package directory)
and merge each target's animations into flattened descriptors.

Flags override the document's options block.

Exit codes:
  0 - Synchronised
  1 - The run exceeded the keyframe budget
  2 - Command error (unreadable document, compile error, bad options)

Examples:
  animsync sync scene.yaml
  animsync sync scene.cue --key-times segments --frame-rate 60
  animsync sync ./scene --store runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, args[0], cmd)
		},
	}

	opts.EngineFlags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.Store, "store", "", "record runs in this SQLite ledger")
	f.StringVar(&opts.Target, "target", "", "synchronise only this target")
	f.StringVarP(&opts.Output, "output", "o", "", "write the JSON result to a file")

	return cmd
}

func runSync(opts *SyncOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	synced, err := synchronizeDocument(cmd, opts.RootOptions, &opts.EngineFlags, path, opts.Target)
	if err != nil {
		return err
	}
	compiled, order, results := synced.compiled, synced.order, synced.results

	result := SyncResult{Targets: make([]SyncTarget, 0, len(order))}
	for _, t := range order {
		res := results[t.ID]
		result.Targets = append(result.Targets, SyncTarget{
			ID:         t.ID,
			RunID:      res.RunID,
			Outputs:    res.Outputs,
			Conditions: res.Conditions,
		})
		formatter.VerboseLog("target %s: %d output(s), %d condition(s)", t.ID, len(res.Outputs), len(res.Conditions))
	}

	if opts.Store != "" {
		if err := recordRuns(cmd, opts.Store, path, compiled, order, results); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record runs", err)
		}
		formatter.VerboseLog("Recorded %d run(s) in %s", len(order), opts.Store)
	}

	if opts.Output != "" {
		data, err := ir.CanonicalJSON(result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode result", err)
		}
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	return formatter.Report(result, func(w io.Writer) error {
		writeSyncText(w, result)
		if opts.Output != "" {
			fmt.Fprintf(w, "Wrote result to %s\n", opts.Output)
		}
		return nil
	})
}

func (e *EngineFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&e.KeyTimes, "key-times", "keytimes", "keyframe layout (keytimes|segments)")
	f.Float64Var(&e.FrameRate, "frame-rate", 0, "snap times to this frame rate; 0 disables")
	f.IntVar(&e.Precision, "precision", engine.DefaultPrecision, "decimal digits kept in times and values")
	f.IntVar(&e.MaxKeyframes, "max-keyframes", engine.DefaultMaxKeyframes, "abort once a run emits more keyframes")
	f.IntVar(&e.SampleCount, "sample-count", engine.DefaultSampleCount, "samples per motion path segment")
	f.BoolVar(&e.AlignInfinite, "align-infinite", false, "loop all infinite tails of a target together")
}

// apply overrides doc's options with the flags set on cmd.
func (e *EngineFlags) apply(doc *compiler.Document, cmd *cobra.Command) {
	f := cmd.Flags()
	if doc.Options == nil {
		doc.Options = &compiler.Options{}
	}
	o := doc.Options
	if f.Changed("key-times") {
		o.KeyTimes = e.KeyTimes
	}
	if f.Changed("frame-rate") {
		o.FrameRate = e.FrameRate
	}
	if f.Changed("precision") {
		o.Precision = &e.Precision
	}
	if f.Changed("max-keyframes") {
		o.MaxKeyframes = &e.MaxKeyframes
	}
	if f.Changed("sample-count") {
		o.SampleCount = &e.SampleCount
	}
	if f.Changed("align-infinite") {
		o.AlignInfinite = e.AlignInfinite
	}
}

// synchronized is a compiled document with its engine results.
type synchronized struct {
	compiled *compiler.Compiled
	// order lists the synchronised targets in document order.
	order   []compiler.CompiledTarget
	results map[string]*engine.Result
}

// synchronizeDocument loads, compiles and synchronises the document at
// path, restricted to one target when target is set. Errors have already
// been reported through the formatter.
func synchronizeDocument(cmd *cobra.Command, opts *RootOptions, flags *EngineFlags, path, target string) (*synchronized, error) {
	formatter := opts.formatter(cmd)

	doc, err := LoadDocument(path)
	if err != nil {
		return nil, outputLoadError(formatter, err)
	}
	flags.apply(doc, cmd)

	compiled, err := compiler.Compile(doc, compiler.NewClock())
	if err != nil {
		return nil, outputLoadError(formatter, convertCompileError(err, path))
	}
	engineOpts, err := compiled.Options.EngineOptions()
	if err != nil {
		return nil, outputLoadError(formatter, convertCompileError(err, path))
	}

	targets := compiled.ByID()
	order := compiled.Targets
	if target != "" {
		ds, ok := targets[target]
		if !ok {
			return nil, outputLoadError(formatter, &LoadError{
				Code:    ErrCodeTargets,
				Message: fmt.Sprintf("target %q not in document", target),
			})
		}
		targets = map[string][]ir.Descriptor{target: ds}
		order = []compiler.CompiledTarget{{ID: target, Descriptors: ds}}
	}

	eng := engine.New(append(engineOpts, engine.WithLogger(opts.Logger(cmd)))...)
	results, err := eng.SynchronizeTargets(cmd.Context(), targets)
	if err != nil {
		if engine.IsBudgetError(err) {
			_ = formatter.Error("E_BUDGET", err.Error(), nil)
			return nil, WrapExitError(ExitFailure, "synchronization aborted", err)
		}
		return nil, WrapExitError(ExitCommandError, "synchronization failed", err)
	}
	return &synchronized{compiled: compiled, order: order, results: results}, nil
}

// recordRuns writes one ledger run per target.
func recordRuns(cmd *cobra.Command, path, source string, compiled *compiler.Compiled, order []compiler.CompiledTarget, results map[string]*engine.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, t := range order {
		run, err := store.NewRun(t.ID, source, compiled.Options, t.Descriptors, results[t.ID])
		if err != nil {
			return err
		}
		if _, _, err := st.WriteRun(cmd.Context(), run); err != nil {
			return fmt.Errorf("target %s: %w", t.ID, err)
		}
	}
	return nil
}

func writeSyncText(w io.Writer, result SyncResult) {
	for _, t := range result.Targets {
		fmt.Fprintf(w, "%s (run %s)\n", t.ID, t.RunID)
		for _, f := range t.Outputs {
			fmt.Fprintf(w, "  %s\n", formatFlat(f))
		}
		for _, c := range t.Conditions {
			fmt.Fprintf(w, "  ! %s\n", c)
		}
	}
}

// formatFlat renders one output on a single line.
func formatFlat(f ir.Flat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-16s", f.Name, f.Key)
	if f.Setter {
		fmt.Fprintf(&b, " set at %vms to %s", f.Delay, strings.Join(f.Values, ";"))
		return b.String()
	}
	count := fmt.Sprint(f.IterationCount)
	if f.IsInfinite() {
		count = "indefinite"
	}
	fmt.Fprintf(&b, " delay=%v dur=%v repeat=%s fill=%s values=%s",
		f.Delay, f.Duration, count, f.Fill, strings.Join(f.Values, ";"))
	if len(f.KeyTimes) > 0 {
		fmt.Fprintf(&b, " keyTimes=%v", f.KeyTimes)
	}
	return b.String()
}

// outputLoadError reports a document error and maps it to exit code 2.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return WrapExitError(ExitCommandError, loadErr.Code, loadErr)
}
