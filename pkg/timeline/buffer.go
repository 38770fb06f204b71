package timeline

import "github.com/ccollicutt/oeelog/pkg/status"

// Timeline is the append-only record buffer. The only mutation of an
// appended record is CloseOpenState on the last one.
type Timeline struct {
	records []*Record
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Append adds a record.
func (t *Timeline) Append(r *Record) {
	t.records = append(t.records, r)
}

// Last returns the most recent record, or nil.
func (t *Timeline) Last() *Record {
	if len(t.records) == 0 {
		return nil
	}
	return t.records[len(t.records)-1]
}

// Len returns the number of records.
func (t *Timeline) Len() int {
	return len(t.records)
}

// Records returns the records in insertion order.
func (t *Timeline) Records() []*Record {
	return t.records
}

// CloseOpenState rewrites the last record's label to "End <base>" when its
// base is Productive, Idle or Standby. Downtime and Off records are never
// rewritten. It reports whether a record was closed.
func (t *Timeline) CloseOpenState() bool {
	last := t.Last()
	if last == nil || !last.Base.Closable() {
		return false
	}
	last.Label = status.End(last.Base)
	return true
}
