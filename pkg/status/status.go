// Package status defines the step outcome vocabulary of a simulated graph run.
// the four outcomes are produced by the simulation engine; this package only
// classifies them into display metadata and renders them for the page and the terminal.
package status

import (
	"fmt"
	"strings"
)

// StepStatus is the outcome of one simulated step.
type StepStatus string

// step outcomes. the set is closed, every switch over StepStatus must cover all of them.
const (
	Fired   StepStatus = "fired"   // step executed and its outgoing edges were taken
	Blocked StepStatus = "blocked" // firing conditions were not satisfied
	Pending StepStatus = "pending" // not evaluated yet
	Error   StepStatus = "error"   // evaluation or execution failed
)

// All returns every step status in display order.
func All() []StepStatus {
	return []StepStatus{Fired, Blocked, Pending, Error}
}

// ParseStepStatus converts a raw value into a StepStatus.
// leading/trailing spaces and case are ignored; anything outside the closed set is an error.
func ParseStepStatus(s string) (StepStatus, error) {
	switch v := StepStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case Fired, Blocked, Pending, Error:
		return v, nil
	}
	return "", fmt.Errorf("unknown step status %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects values outside the closed set.
func (s *StepStatus) UnmarshalText(text []byte) error {
	v, err := ParseStepStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DisplayConfig is the fixed presentation record of a step status.
type DisplayConfig struct {
	Label      string // visible text
	Icon       string // glyph name, see glyphs
	ColorClass string // css classes for the badge colors
	AriaLabel  string // accessible label of the badge container
}

var (
	firedConfig = DisplayConfig{
		Label:      "Fired",
		Icon:       "check-circle",
		ColorClass: "status-fired",
		AriaLabel:  "Step fired - edges executed successfully",
	}
	blockedConfig = DisplayConfig{
		Label:      "Blocked",
		Icon:       "ban",
		ColorClass: "status-blocked",
		AriaLabel:  "Step blocked - conditions not met",
	}
	pendingConfig = DisplayConfig{
		Label:      "Pending",
		Icon:       "clock",
		ColorClass: "status-pending",
		AriaLabel:  "Step pending - awaiting execution",
	}
	errorConfig = DisplayConfig{
		Label:      "Error",
		Icon:       "alert-triangle",
		ColorClass: "status-error",
		AriaLabel:  "Step error - execution failed",
	}
)

// Config returns the display record for s.
// a value outside the closed set panics.
func Config(s StepStatus) DisplayConfig {
	//exhaustive:enforce
	switch s {
	case Fired:
		return firedConfig
	case Blocked:
		return blockedConfig
	case Pending:
		return pendingConfig
	case Error:
		return errorConfig
	}
	panic(fmt.Sprintf("status: step status %q is outside the closed set", string(s)))
}

// String returns the raw status value.
func (s StepStatus) String() string { return string(s) }
