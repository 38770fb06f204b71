package status

import "testing"

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultMarkers(), Standby)
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	return c
}

func TestClassifier_Classify(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name      string
		base      State
		message   string
		wantRule  string
		wantLabel Label
		wantBase  State
		wantClose bool
		wantPower PowerChange
	}{
		{
			name:      "power off from productive",
			base:      Productive,
			message:   "**************Close Software**************",
			wantRule:  "power-off",
			wantLabel: Bare(Off),
			wantBase:  Off,
			wantClose: true,
			wantPower: PowerOff,
		},
		{
			name:      "power off twice does not close",
			base:      Off,
			message:   "  **************Close Software************** ",
			wantRule:  "power-off",
			wantLabel: Bare(Off),
			wantBase:  Off,
			wantPower: PowerOff,
		},
		{
			name:      "power off marker is case sensitive",
			base:      Idle,
			message:   "**************close software**************",
			wantLabel: Bare(Idle),
			wantBase:  Idle,
		},
		{
			name:      "power on falls back",
			base:      Off,
			message:   "|*************Start PCB*************|",
			wantRule:  "power-on",
			wantLabel: Bare(Standby),
			wantBase:  Standby,
			wantPower: PowerOn,
		},
		{
			name:      "start mark",
			base:      Standby,
			message:   "(0)--Start Mark!--",
			wantRule:  "start-mark",
			wantLabel: Start(Productive),
			wantBase:  Productive,
			wantClose: true,
		},
		{
			name:      "successfully cutting ends productive",
			base:      Productive,
			message:   "Successfully Cutting",
			wantRule:  "cutting-done",
			wantLabel: End(Productive),
			wantBase:  Standby,
		},
		{
			name:      "successfully cutting outside productive is ignored",
			base:      Idle,
			message:   "Successfully Cutting",
			wantLabel: Bare(Idle),
			wantBase:  Idle,
		},
		{
			name:      "stop plc",
			base:      Productive,
			message:   "(0)Stop PLC!",
			wantRule:  "stop",
			wantLabel: Start(Idle),
			wantBase:  Idle,
			wantClose: true,
		},
		{
			name:      "software stop button",
			base:      Standby,
			message:   "The Software Stop Button is Pressed",
			wantRule:  "stop",
			wantLabel: Start(Idle),
			wantBase:  Idle,
			wantClose: true,
		},
		{
			name:      "alarm reset ends idle",
			base:      Idle,
			message:   "Alarm Reset",
			wantRule:  "alarm-reset",
			wantLabel: End(Idle),
			wantBase:  Standby,
		},
		{
			name:      "alarm reset outside idle is ignored",
			base:      Productive,
			message:   "Alarm Reset",
			wantLabel: Bare(Productive),
			wantBase:  Productive,
		},
		{
			name:      "start procession",
			base:      Standby,
			message:   "----Start Procession: Manufacture----",
			wantRule:  "start-procession",
			wantLabel: Start(Standby),
			wantBase:  Standby,
			wantClose: true,
		},
		{
			name:      "error keeps base",
			base:      Productive,
			message:   "Err: sensor fault",
			wantRule:  "error",
			wantLabel: Bare(Downtime),
			wantBase:  Productive,
		},
		{
			name:      "unrelated message repeats base",
			base:      Idle,
			message:   "(0)Marking Completed(500ms)",
			wantLabel: Bare(Idle),
			wantBase:  Idle,
		},
		{
			name:      "start mark wins over error in same line",
			base:      Standby,
			message:   "(0)--Start Mark!-- Err:1",
			wantRule:  "start-mark",
			wantLabel: Start(Productive),
			wantBase:  Productive,
			wantClose: true,
		},
		{
			name:      "failed cutting guard falls through to error",
			base:      Standby,
			message:   "Successfully Cutting but Err:32",
			wantRule:  "error",
			wantLabel: Bare(Downtime),
			wantBase:  Standby,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.base, tt.message)
			if got.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", got.Rule, tt.wantRule)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %v, want %v", got.Label, tt.wantLabel)
			}
			if got.Base != tt.wantBase {
				t.Errorf("Base = %v, want %v", got.Base, tt.wantBase)
			}
			if got.ClosePrevious != tt.wantClose {
				t.Errorf("ClosePrevious = %v, want %v", got.ClosePrevious, tt.wantClose)
			}
			if got.Power != tt.wantPower {
				t.Errorf("Power = %v, want %v", got.Power, tt.wantPower)
			}
		})
	}
}

func TestNewClassifier_InvalidFallback(t *testing.T) {
	for _, s := range []State{Downtime, Off, State("Running")} {
		if _, err := NewClassifier(DefaultMarkers(), s); err == nil {
			t.Errorf("NewClassifier(%q) expected error", s)
		}
	}
}

func TestNewClassifier_CustomFallback(t *testing.T) {
	c, err := NewClassifier(DefaultMarkers(), Idle)
	if err != nil {
		t.Fatalf("NewClassifier() error = %v", err)
	}
	got := c.Classify(Productive, "Successfully Cutting")
	if got.Base != Idle {
		t.Errorf("Base = %v, want Idle", got.Base)
	}
}

func TestMarkers_Normalize(t *testing.T) {
	m := Markers{StartMark: "START MARK", Stop: []string{"  ", "HALT"}}.Normalize()
	if m.StartMark != "start mark" {
		t.Errorf("StartMark = %q, want lower-cased", m.StartMark)
	}
	if len(m.Stop) != 1 || m.Stop[0] != "halt" {
		t.Errorf("Stop = %v, want [halt]", m.Stop)
	}
	if m.PowerOff != DefaultMarkers().PowerOff {
		t.Errorf("PowerOff = %q, want default", m.PowerOff)
	}
	if m.CycleStop != "(0)stop plc!" {
		t.Errorf("CycleStop = %q, want default", m.CycleStop)
	}
}

func TestClassifier_RulesOrder(t *testing.T) {
	c := newTestClassifier(t)
	want := []string{"power-off", "power-on", "start-mark", "cutting-done", "stop", "alarm-reset", "start-procession", "error"}
	rules := c.Rules()
	if len(rules) != len(want) {
		t.Fatalf("len(Rules()) = %d, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("Rules()[%d] = %q, want %q", i, r.Name, want[i])
		}
	}
}
