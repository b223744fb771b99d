package models

import "fmt"

// Breakpoint identifies a viewport tier of the responsive grid
type Breakpoint string

const (
	BreakpointLG  Breakpoint = "lg"
	BreakpointMD  Breakpoint = "md"
	BreakpointSM  Breakpoint = "sm"
	BreakpointXS  Breakpoint = "xs"
	BreakpointXXS Breakpoint = "xxs"
)

// Breakpoints lists all configured breakpoints from widest to narrowest.
// The set and its column counts are fixed configuration, not user data.
var Breakpoints = []Breakpoint{
	BreakpointLG,
	BreakpointMD,
	BreakpointSM,
	BreakpointXS,
	BreakpointXXS,
}

var breakpointColumns = map[Breakpoint]int{
	BreakpointLG:  6,
	BreakpointMD:  4,
	BreakpointSM:  3,
	BreakpointXS:  2,
	BreakpointXXS: 1,
}

// Columns returns the column count for a breakpoint, or 0 for unknown ones
func (b Breakpoint) Columns() int {
	return breakpointColumns[b]
}

// Validate checks if the breakpoint is one of the configured tiers
func (b Breakpoint) Validate() error {
	if _, ok := breakpointColumns[b]; !ok {
		return fmt.Errorf("invalid breakpoint: %s (valid: lg, md, sm, xs, xxs)", b)
	}
	return nil
}
