package ir

import (
	"fmt"
	"strings"
)

// FillMode is the bitset of fill behaviours.
type FillMode uint8

const (
	// FillBackwards shows the first value before the descriptor's delay.
	FillBackwards FillMode = 1 << iota
	// FillForwards holds the final value after the active interval.
	FillForwards
	// FillFreeze is the SMIL spelling of FillForwards.
	FillFreeze
)

// Has reports whether every bit of x is set.
func (f FillMode) Has(x FillMode) bool {
	return f&x == x
}

// Holds reports whether the final value persists after the end.
func (f FillMode) Holds() bool {
	return f&(FillForwards|FillFreeze) != 0
}

var fillNames = []struct {
	bit  FillMode
	name string
}{
	{FillBackwards, "backwards"},
	{FillForwards, "forwards"},
	{FillFreeze, "freeze"},
}

// String renders the set bits joined with "|".
func (f FillMode) String() string {
	var parts []string
	for _, n := range fillNames {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseFillMode accepts SMIL/CSS keywords: freeze, remove, forwards,
// backwards, both, none.
func ParseFillMode(words ...string) (FillMode, error) {
	var f FillMode
	for _, w := range words {
		switch strings.ToLower(strings.TrimSpace(w)) {
		case "", "none", "remove", "replace":
		case "freeze":
			f |= FillFreeze
		case "forwards":
			f |= FillForwards
		case "backwards":
			f |= FillBackwards
		case "both":
			f |= FillBackwards | FillForwards
		default:
			return 0, fmt.Errorf("unknown fill mode %q", w)
		}
	}
	return f, nil
}

// SyncState is the bitset of synchronization states a descriptor passes
// through during a merge. The zero value is the initial state.
type SyncState uint16

const (
	// StateBackwards marks the group's single fill-backwards holder.
	StateBackwards SyncState = 1 << iota
	// StateInterrupted marks a descriptor superseded before completion.
	StateInterrupted
	// StateResume marks an interrupted descriptor that played again.
	StateResume
	// StateEqualTime marks a setter reconciled with a coincident boundary.
	StateEqualTime
	// StateComplete is terminal: the descriptor finished contributing.
	StateComplete
	// StateInvalid is terminal: the descriptor never contributes.
	StateInvalid
)

var stateNames = []struct {
	bit  SyncState
	name string
}{
	{StateBackwards, "BACKWARDS"},
	{StateInterrupted, "INTERRUPTED"},
	{StateResume, "RESUME"},
	{StateEqualTime, "EQUAL_TIME"},
	{StateComplete, "COMPLETE"},
	{StateInvalid, "INVALID"},
}

// Has reports whether every bit of x is set.
func (s SyncState) Has(x SyncState) bool {
	return s&x == x
}

// Terminal reports whether the state is COMPLETE or INVALID.
func (s SyncState) Terminal() bool {
	return s&(StateComplete|StateInvalid) != 0
}

// String renders the set bits joined with "|".
func (s SyncState) String() string {
	var parts []string
	for _, n := range stateNames {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "INITIAL"
	}
	return strings.Join(parts, "|")
}

// ParseSyncState parses names produced by String, joined with "|".
func ParseSyncState(s string) (SyncState, error) {
	var st SyncState
	for _, part := range strings.Split(s, "|") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" || part == "INITIAL" {
			continue
		}
		found := false
		for _, n := range stateNames {
			if n.name == part {
				st |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown sync state %q", part)
		}
	}
	return st, nil
}
