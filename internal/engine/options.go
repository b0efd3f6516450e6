package engine

import (
	"fmt"
	"log/slog"
	"strings"
)

// KeyTimeMode selects the output timeline shape.
type KeyTimeMode int

const (
	// KeyTimesAllowed emits one keyframe timeline per run.
	KeyTimesAllowed KeyTimeMode = iota
	// KeyTimesSegments emits consecutive two-keyframe from-to segments, for
	// formats without keyTimes support.
	KeyTimesSegments
)

func (m KeyTimeMode) String() string {
	if m == KeyTimesSegments {
		return "segments"
	}
	return "keytimes"
}

// ParseKeyTimeMode accepts "keytimes" and "segments".
func ParseKeyTimeMode(s string) (KeyTimeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keytimes":
		return KeyTimesAllowed, nil
	case "segments":
		return KeyTimesSegments, nil
	}
	return 0, fmt.Errorf("unknown key time mode %q", s)
}

// Defaults.
const (
	DefaultPrecision    = 3
	DefaultMaxKeyframes = 10000
	DefaultSampleCount  = 30
)

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithKeyTimeMode selects keyframe timelines or from-to segments.
func WithKeyTimeMode(m KeyTimeMode) EngineOption {
	return func(e *Engine) {
		e.keyTimeMode = m
	}
}

// WithFrameRate sets the motion path sampling rate in frames per second.
// Zero falls back to the fixed sample count.
func WithFrameRate(fps float64) EngineOption {
	return func(e *Engine) {
		e.frameRate = fps
	}
}

// WithPrecision sets the number of fractional digits kept in output values.
// A negative precision keeps full precision.
func WithPrecision(digits int) EngineOption {
	return func(e *Engine) {
		e.precision = digits
	}
}

// WithMaxKeyframes caps the keyframes one run may emit. Zero or less
// disables the cap.
//
// Default: 10000 keyframes (DefaultMaxKeyframes)
func WithMaxKeyframes(n int) EngineOption {
	return func(e *Engine) {
		e.maxKeyframes = n
	}
}

// WithSampleCount sets the motion path sample count used when no frame rate
// is configured.
func WithSampleCount(n int) EngineOption {
	return func(e *Engine) {
		e.sampleCount = n
	}
}

// WithInfiniteAlignment makes the infinite tails of all groups share one
// loop period.
func WithInfiniteAlignment(on bool) EngineOption {
	return func(e *Engine) {
		e.alignInfinite = on
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}
