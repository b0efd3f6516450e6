package compiler

import (
	"fmt"

	"github.com/roach88/animsync/internal/engine"
)

// Options are the engine settings carried by a document. Unset fields keep
// the engine defaults.
type Options struct {
	// KeyTimes is "keytimes" or "segments".
	KeyTimes      string  `yaml:"keyTimes,omitempty" json:"keyTimes,omitempty"`
	FrameRate     float64 `yaml:"frameRate,omitempty" json:"frameRate,omitempty"`
	Precision     *int    `yaml:"precision,omitempty" json:"precision,omitempty"`
	MaxKeyframes  *int    `yaml:"maxKeyframes,omitempty" json:"maxKeyframes,omitempty"`
	SampleCount   *int    `yaml:"sampleCount,omitempty" json:"sampleCount,omitempty"`
	AlignInfinite bool    `yaml:"alignInfinite,omitempty" json:"alignInfinite,omitempty"`
}

// EngineOptions converts o into engine options. A nil receiver yields none.
func (o *Options) EngineOptions() ([]engine.EngineOption, error) {
	if o == nil {
		return nil, nil
	}
	var opts []engine.EngineOption
	if o.KeyTimes != "" {
		m, err := engine.ParseKeyTimeMode(o.KeyTimes)
		if err != nil {
			return nil, &CompileError{Field: "options.keyTimes", Message: err.Error()}
		}
		opts = append(opts, engine.WithKeyTimeMode(m))
	}
	if o.FrameRate < 0 {
		return nil, &CompileError{
			Field:   "options.frameRate",
			Message: fmt.Sprintf("frame rate must not be negative, got %v", o.FrameRate),
		}
	}
	if o.FrameRate > 0 {
		opts = append(opts, engine.WithFrameRate(o.FrameRate))
	}
	if o.Precision != nil {
		opts = append(opts, engine.WithPrecision(*o.Precision))
	}
	if o.MaxKeyframes != nil {
		opts = append(opts, engine.WithMaxKeyframes(*o.MaxKeyframes))
	}
	if o.SampleCount != nil {
		if *o.SampleCount < 2 {
			return nil, &CompileError{
				Field:   "options.sampleCount",
				Message: fmt.Sprintf("sample count must be at least 2, got %d", *o.SampleCount),
			}
		}
		opts = append(opts, engine.WithSampleCount(*o.SampleCount))
	}
	if o.AlignInfinite {
		opts = append(opts, engine.WithInfiniteAlignment(true))
	}
	return opts, nil
}
