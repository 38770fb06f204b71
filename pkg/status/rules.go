package status

import "strings"

// Markers holds the message literals that drive state transitions.
// PowerOff and PowerOn are matched exactly (case-sensitive) against the
// trimmed message; every other marker is a case-insensitive substring.
type Markers struct {
	PowerOff        string   `yaml:"power_off"`
	PowerOn         string   `yaml:"power_on"`
	StartMark       string   `yaml:"start_mark"`
	CuttingDone     string   `yaml:"cutting_done"`
	Stop            []string `yaml:"stop"`
	AlarmReset      []string `yaml:"alarm_reset"`
	StartProcession []string `yaml:"start_procession"`
	Error           string   `yaml:"error"`
	MarkingDone     string   `yaml:"marking_done"`
	CycleStop       string   `yaml:"cycle_stop"`
}

// DefaultMarkers returns the literals written by the PCB marking software.
func DefaultMarkers() Markers {
	return Markers{
		PowerOff:        "**************Close Software**************",
		PowerOn:         "|*************Start PCB*************|",
		StartMark:       "(0)--start mark!--",
		CuttingDone:     "successfully cutting",
		Stop:            []string{"(0)stop plc!", "the software stop button is pressed"},
		AlarmReset:      []string{"alarm", "reset"},
		StartProcession: []string{"start procession", "manufacture"},
		Error:           "err:",
		MarkingDone:     "marking completed",
		CycleStop:       "(0)stop plc!",
	}
}

// Normalize lower-cases the substring markers and fills empty ones from
// DefaultMarkers.
func (m Markers) Normalize() Markers {
	def := DefaultMarkers()
	if m.PowerOff == "" {
		m.PowerOff = def.PowerOff
	}
	if m.PowerOn == "" {
		m.PowerOn = def.PowerOn
	}
	m.PowerOff = strings.TrimSpace(m.PowerOff)
	m.PowerOn = strings.TrimSpace(m.PowerOn)
	m.StartMark = lowerOr(m.StartMark, def.StartMark)
	m.CuttingDone = lowerOr(m.CuttingDone, def.CuttingDone)
	m.Error = lowerOr(m.Error, def.Error)
	m.MarkingDone = lowerOr(m.MarkingDone, def.MarkingDone)
	m.CycleStop = lowerOr(m.CycleStop, def.CycleStop)
	m.Stop = lowerAll(m.Stop, def.Stop)
	m.AlarmReset = lowerAll(m.AlarmReset, def.AlarmReset)
	m.StartProcession = lowerAll(m.StartProcession, def.StartProcession)
	return m
}

func lowerOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.ToLower(s)
}

func lowerAll(ss, def []string) []string {
	if len(ss) == 0 {
		return def
	}
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Message is a log message prepared for rule matching.
type Message struct {
	Raw     string
	Trimmed string
	Lower   string
}

// NewMessage prepares a message.
func NewMessage(raw string) Message {
	return Message{
		Raw:     raw,
		Trimmed: strings.TrimSpace(raw),
		Lower:   strings.ToLower(raw),
	}
}

// ContainsAny reports whether the lower-cased message contains any token.
func (m Message) ContainsAny(tokens ...string) bool {
	for _, tok := range tokens {
		if strings.Contains(m.Lower, tok) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether the lower-cased message contains every token.
func (m Message) ContainsAll(tokens ...string) bool {
	for _, tok := range tokens {
		if !strings.Contains(m.Lower, tok) {
			return false
		}
	}
	return len(tokens) > 0
}

// PowerChange is the effect of a transition on machine power.
type PowerChange int

const (
	PowerUnchanged PowerChange = iota
	PowerOn
	PowerOff
)

// Rule is one row of the transition table.
type Rule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Match tests the message.
	Match func(msg Message) bool

	// Guard gates the whole rule on the current base state. A rule whose
	// guard fails is skipped and evaluation continues. Nil always passes.
	Guard func(base State) bool

	// CloseIf gates the retroactive close of the previous record. Nil never
	// closes.
	CloseIf func(base State) bool

	// Emit returns the label of the record produced by this rule.
	Emit func(base, fallback State) Label

	// Next returns the base state carried after this rule.
	Next func(base, fallback State) State

	// Power is the rule's effect on machine power.
	Power PowerChange
}

func is(s State) func(State) bool {
	return func(b State) bool { return b == s }
}

func isNot(s ...State) func(State) bool {
	return func(b State) bool {
		for _, x := range s {
			if b == x {
				return false
			}
		}
		return true
	}
}

func emit(l Label) func(State, State) Label {
	return func(State, State) Label { return l }
}

func goTo(s State) func(State, State) State {
	return func(State, State) State { return s }
}

func emitFallback(_, fallback State) Label { return Bare(fallback) }

func toFallback(_, fallback State) State { return fallback }

func stay(base, _ State) State { return base }

// NewRules builds the transition table in priority order.
func NewRules(m Markers) []Rule {
	m = m.Normalize()

	return []Rule{
		{
			Name:    "power-off",
			Match:   func(msg Message) bool { return msg.Trimmed == m.PowerOff },
			CloseIf: isNot(Downtime, Off),
			Emit:    emit(Bare(Off)),
			Next:    goTo(Off),
			Power:   PowerOff,
		},
		{
			Name:  "power-on",
			Match: func(msg Message) bool { return msg.Trimmed == m.PowerOn },
			Emit:  emitFallback,
			Next:  toFallback,
			Power: PowerOn,
		},
		{
			Name:    "start-mark",
			Match:   func(msg Message) bool { return msg.ContainsAny(m.StartMark) },
			CloseIf: isNot(Downtime),
			Emit:    emit(Start(Productive)),
			Next:    goTo(Productive),
		},
		{
			Name:  "cutting-done",
			Match: func(msg Message) bool { return msg.ContainsAny(m.CuttingDone) },
			Guard: is(Productive),
			Emit:  emit(End(Productive)),
			Next:  toFallback,
		},
		{
			Name:    "stop",
			Match:   func(msg Message) bool { return msg.ContainsAny(m.Stop...) },
			CloseIf: isNot(Downtime),
			Emit:    emit(Start(Idle)),
			Next:    goTo(Idle),
		},
		{
			Name:  "alarm-reset",
			Match: func(msg Message) bool { return msg.ContainsAll(m.AlarmReset...) },
			Guard: is(Idle),
			Emit:  emit(End(Idle)),
			Next:  toFallback,
		},
		{
			Name:    "start-procession",
			Match:   func(msg Message) bool { return msg.ContainsAll(m.StartProcession...) },
			CloseIf: isNot(Downtime),
			Emit:    emit(Start(Standby)),
			Next:    goTo(Standby),
		},
		{
			// Downtime is a single-line event; the base state is kept.
			Name:  "error",
			Match: func(msg Message) bool { return msg.ContainsAny(m.Error) },
			Emit:  emit(Bare(Downtime)),
			Next:  stay,
		},
	}
}
