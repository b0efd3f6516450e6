package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	EngineFlags

	Target string
	Key    string    // merge group, e.g. "opacity" or "transform/rotate"
	Order  []string  // transform channels; samples the composed matrix
	At     []float64 // query times in milliseconds
}

// Sample is the flattened value at one instant. Value is empty when
// nothing is visible.
type Sample struct {
	T      float64   `json:"t"`
	Value  string    `json:"value,omitempty"`
	Matrix []float64 `json:"matrix,omitempty"`
}

// SampleResult is the payload of the sample command.
type SampleResult struct {
	Target  string   `json:"target"`
	Key     string   `json:"key,omitempty"`
	Samples []Sample `json:"samples"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <document>",
		Short: "Evaluate synchronised output at given times",
		Long: `Synchronise a document and evaluate the flattened timelines of one
target at the given times.

With --key the merged value of that group is printed. With --order the
transform channels are composed in the given order and the affine matrix
is printed in SVG order (a b c d e f).

Examples:
  animsync sample scene.yaml --target box --key opacity --at 0 --at 500
  animsync sample scene.yaml --target box --order translate,rotate --at 250`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], cmd)
		},
	}

	opts.EngineFlags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.Target, "target", "", "target to sample (default: first target)")
	f.StringVar(&opts.Key, "key", "", "merge group to sample")
	f.StringSliceVar(&opts.Order, "order", nil, "transform channels to compose, in application order")
	f.Float64SliceVar(&opts.At, "at", nil, "query time in milliseconds (repeatable)")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func runSample(opts *SampleOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if (opts.Key == "") == (len(opts.Order) == 0) {
		return NewExitError(ExitCommandError, "exactly one of --key or --order is required")
	}
	var key ir.Key
	if opts.Key != "" {
		var err error
		if key, err = ir.ParseKey(opts.Key); err != nil {
			return WrapExitError(ExitCommandError, "invalid --key", err)
		}
	}
	order := make([]geom.TransformType, len(opts.Order))
	for i, name := range opts.Order {
		typ, err := geom.ParseTransformType(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --order", err)
		}
		order[i] = typ
	}

	synced, err := synchronizeDocument(cmd, opts.RootOptions, &opts.EngineFlags, path, opts.Target)
	if err != nil {
		return err
	}
	target := synced.order[0].ID
	res := synced.results[target]

	result := SampleResult{Target: target, Samples: make([]Sample, 0, len(opts.At))}
	if opts.Key != "" {
		result.Key = key.String()
	}
	for _, t := range opts.At {
		s := Sample{T: t}
		if opts.Key != "" {
			if v, ok := res.ValueAt(key, t); ok {
				s.Value = v.String()
			}
		} else {
			m, err := res.MatrixAt(t, order)
			if err != nil {
				_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitFailure, "matrix evaluation failed", err)
			}
			s.Matrix = []float64{m[0], m[3], m[1], m[4], m[2], m[5]}
		}
		result.Samples = append(result.Samples, s)
	}

	return formatter.Report(result, func(w io.Writer) error {
		writeSamples(w, result)
		return nil
	})
}

func writeSamples(w io.Writer, result SampleResult) {
	for _, s := range result.Samples {
		switch {
		case s.Matrix != nil:
			fmt.Fprintf(w, "t=%v matrix(%v %v %v %v %v %v)\n", s.T,
				s.Matrix[0], s.Matrix[1], s.Matrix[2], s.Matrix[3], s.Matrix[4], s.Matrix[5])
		case s.Value == "":
			fmt.Fprintf(w, "t=%v %s: -\n", s.T, result.Key)
		default:
			fmt.Fprintf(w, "t=%v %s: %s\n", s.T, result.Key, s.Value)
		}
	}
}
