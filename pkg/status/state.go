// Package status classifies machine log messages into operating states.
package status

import (
	"fmt"
	"strings"
)

// State is a base machine state, without lifecycle marker.
type State string

const (
	Productive State = "Productive"
	Idle       State = "Idle"
	Standby    State = "Standby"
	Downtime   State = "Downtime"
	Off        State = "Off"
)

// States lists every state in summary column order.
var States = []State{Idle, Standby, Downtime, Productive, Off}

// ParseState parses a state name, case-insensitively.
func ParseState(s string) (State, error) {
	for _, st := range States {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown state %q", s)
}

// Closable reports whether a record in this state can be retroactively
// ended. Downtime is a single-line event and Off ends by power-on.
func (s State) Closable() bool {
	return s == Productive || s == Idle || s == Standby
}

// Phase is the lifecycle marker carried by a label.
type Phase string

const (
	PhaseNone  Phase = ""
	PhaseStart Phase = "Start"
	PhaseEnd   Phase = "End"
)

// Label is the display value of a timeline record, e.g. "Start Idle".
type Label struct {
	Phase Phase
	State State
}

// Bare returns the label for a state without lifecycle marker.
func Bare(s State) Label { return Label{State: s} }

// Start returns the "Start <state>" label.
func Start(s State) Label { return Label{Phase: PhaseStart, State: s} }

// End returns the "End <state>" label.
func End(s State) Label { return Label{Phase: PhaseEnd, State: s} }

// Base returns the label's state with the lifecycle marker stripped.
func (l Label) Base() State {
	return l.State
}

// String renders the label.
func (l Label) String() string {
	if l.Phase == PhaseNone {
		return string(l.State)
	}
	return string(l.Phase) + " " + string(l.State)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel parses a rendered label.
func ParseLabel(s string) (Label, error) {
	phase := PhaseNone
	rest := s
	switch {
	case strings.HasPrefix(s, "Start "):
		phase, rest = PhaseStart, strings.TrimPrefix(s, "Start ")
	case strings.HasPrefix(s, "End "):
		phase, rest = PhaseEnd, strings.TrimPrefix(s, "End ")
	}

	st, err := ParseState(rest)
	if err != nil {
		return Label{}, fmt.Errorf("parsing label %q: %w", s, err)
	}
	return Label{Phase: phase, State: st}, nil
}

// StripPrefix removes a leading "Start " or "End " from a rendered label.
func StripPrefix(label string) string {
	if rest, ok := strings.CutPrefix(label, "Start "); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(label, "End "); ok {
		return rest
	}
	return label
}
