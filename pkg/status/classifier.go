package status

import "fmt"

// DefaultFallback is the state a machine returns to when a state ends
// without a new one being triggered.
const DefaultFallback = Standby

// Transition is the outcome of classifying one message.
type Transition struct {
	// Rule is the name of the matching rule, empty when none matched.
	Rule string

	// Label is the display value of the record for this message.
	Label Label

	// Base is the carried base state after this message.
	Base State

	// ClosePrevious requests a retroactive close of the previous record.
	ClosePrevious bool

	// Power is the effect on machine power.
	Power PowerChange
}

// Classifier is the machine state machine. It is stateless: the caller
// owns the current base state and feeds it back on every call.
type Classifier struct {
	rules    []Rule
	fallback State
}

// NewClassifier creates a classifier over the given markers. The fallback
// must be Productive, Idle or Standby.
func NewClassifier(markers Markers, fallback State) (*Classifier, error) {
	if fallback == "" {
		fallback = DefaultFallback
	}
	if !fallback.Closable() {
		return nil, fmt.Errorf("invalid fallback state %q (must be Productive, Idle or Standby)", fallback)
	}
	return &Classifier{
		rules:    NewRules(markers),
		fallback: fallback,
	}, nil
}

// Fallback returns the fallback state.
func (c *Classifier) Fallback() State {
	return c.fallback
}

// Rules returns the transition table in priority order.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify decides the label and next base state for a message observed
// while the machine is in base. The first matching rule whose guard passes
// wins; without a match the base state is repeated.
func (c *Classifier) Classify(base State, message string) Transition {
	msg := NewMessage(message)

	for _, r := range c.rules {
		if !r.Match(msg) {
			continue
		}
		if r.Guard != nil && !r.Guard(base) {
			continue
		}
		return Transition{
			Rule:          r.Name,
			Label:         r.Emit(base, c.fallback),
			Base:          r.Next(base, c.fallback),
			ClosePrevious: r.CloseIf != nil && r.CloseIf(base),
			Power:         r.Power,
		}
	}

	return Transition{
		Label: Bare(base),
		Base:  base,
	}
}
