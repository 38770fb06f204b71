// Package timeline builds the classified operational timeline of a machine
// from its ordered log stream.
package timeline

import (
	"fmt"
	"time"

	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// Record is one classified log event.
type Record struct {
	// Date is the calendar day of the event (UTC midnight).
	Date time.Time `json:"date"`

	// Time is the absolute event time.
	Time time.Time `json:"time"`

	// Timestamp is the time of day as written in the log (HH:MM:SS).
	Timestamp string `json:"timestamp"`

	Message   string `json:"message"`
	Product   string `json:"product"`
	ProductID string `json:"product_id"`

	// Label is the display value; it may be rewritten once, from bare or
	// Start to End, by Timeline.CloseOpenState.
	Label status.Label `json:"label"`

	// Base is the label's state with the lifecycle marker stripped.
	Base status.State `json:"base_state"`

	// DurationSeconds is the time until the next record, zero when the
	// interval is not attributed.
	DurationSeconds int64 `json:"duration_seconds"`

	// Attributions partitions DurationSeconds by calendar day.
	Attributions []Attribution `json:"attributions,omitempty"`

	// PoweredOn is the machine power state after this event.
	PoweredOn bool `json:"powered_on"`

	Source  string `json:"source"`
	LineNum int    `json:"line_num"`
}

// Check verifies the record's internal consistency.
func (r *Record) Check() error {
	if r.Base != r.Label.Base() {
		return fmt.Errorf("%s:%d: base %q does not match label %q", r.Source, r.LineNum, r.Base, r.Label)
	}
	if r.DurationSeconds < 0 {
		return fmt.Errorf("%s:%d: negative duration %d", r.Source, r.LineNum, r.DurationSeconds)
	}
	var sum int64
	for _, a := range r.Attributions {
		sum += a.Seconds
	}
	if len(r.Attributions) > 0 && sum != r.DurationSeconds {
		return fmt.Errorf("%s:%d: attributions sum to %d, want %d", r.Source, r.LineNum, sum, r.DurationSeconds)
	}
	return nil
}

// Attribution is the part of a record's duration falling on one day.
type Attribution struct {
	Date    time.Time    `json:"date"`
	State   status.State `json:"state"`
	Seconds int64        `json:"seconds"`
}

// Hours returns the attributed time in hours.
func (a Attribution) Hours() float64 {
	return float64(a.Seconds) / 3600
}

// CarriedState is the machine state that persists across file boundaries.
type CarriedState struct {
	Base      status.State       `json:"base"`
	Product   parser.ProductInfo `json:"product"`
	PoweredOn bool               `json:"powered_on"`
}

// NewCarriedState returns the state at the start of a stream: the fallback
// state, no product and power on.
func NewCarriedState(fallback status.State) CarriedState {
	if fallback == "" {
		fallback = status.DefaultFallback
	}
	return CarriedState{
		Base:      fallback,
		Product:   parser.NewProductInfo(),
		PoweredOn: true,
	}
}

// FileSummary describes how one file was processed.
type FileSummary struct {
	Source string       `json:"source"`
	Date   time.Time    `json:"date"`
	Lines  int          `json:"lines"`
	Events int          `json:"events"`
	Seed   CarriedState `json:"seed"`
	Final  CarriedState `json:"final"`
}

// RejectedFile is a file skipped because no date could be attributed to it.
type RejectedFile struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SplitAtMidnight partitions the interval [start, start+d) into per-day
// fragments attributed to state. The fragments sum to d exactly; a zero
// interval yields no fragments.
func SplitAtMidnight(start time.Time, d time.Duration, state status.State) []Attribution {
	if d <= 0 {
		return nil
	}

	var out []Attribution
	cur := start.UTC()
	end := cur.Add(d)
	for cur.Before(end) {
		midnight := Day(cur).AddDate(0, 0, 1)
		stop := end
		if midnight.Before(end) {
			stop = midnight
		}
		out = append(out, Attribution{
			Date:    Day(cur),
			State:   state,
			Seconds: int64(stop.Sub(cur) / time.Second),
		})
		cur = stop
	}
	return out
}
