package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/animsync/internal/ir"
)

// Indefinite is the parsed form of the "indefinite" clock value.
const Indefinite = ir.Infinite

// ParseClock parses a SMIL clock value into milliseconds.
//
// Accepted forms:
//
//	"indefinite"            -> Indefinite
//	"01:02:03.5", "02:03.5" -> full and partial clock values
//	"2h", "3min", "1.5s", "500ms"
//	"2.5"                   -> seconds
func ParseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, fmt.Errorf("empty clock value")
	case s == "indefinite":
		return Indefinite, nil
	case strings.Contains(s, ":"):
		return parseClockParts(s)
	}

	scale := 1000.0
	num := s
	for _, m := range []struct {
		suffix string
		scale  float64
	}{
		{"ms", 1},
		{"min", 60_000},
		{"h", 3_600_000},
		{"s", 1000},
	} {
		if rest, ok := strings.CutSuffix(s, m.suffix); ok {
			num, scale = rest, m.scale
			break
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return v * scale, nil
}

// parseClockParts parses "hh:mm:ss[.f]" and "mm:ss[.f]".
func parseClockParts(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		if len(p) != 2 && !(last && len(p) > 2 && p[2] == '.') {
			return 0, fmt.Errorf("invalid clock value %q: want two digits per field", s)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid clock value %q", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid clock value %q: field %q out of range", s, p)
		}
		total = total*60 + v
	}
	return total * 1000, nil
}

// parseBegin resolves a ';'-separated begin list to the earliest offset.
// Event and sync-base values ("click", "a.end+1s") do not resolve and are
// skipped; ok is false when nothing resolves.
func parseBegin(s string) (delay float64, ok bool) {
	if strings.TrimSpace(s) == "" {
		return 0, true
	}
	delay = math.Inf(1)
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		sign := 1.0
		switch {
		case strings.HasPrefix(item, "-"):
			sign, item = -1, item[1:]
		case strings.HasPrefix(item, "+"):
			item = item[1:]
		}
		v, err := ParseClock(item)
		if err != nil || v == Indefinite {
			continue
		}
		delay = math.Min(delay, sign*v)
		ok = true
	}
	if !ok {
		return 0, false
	}
	return delay, true
}
