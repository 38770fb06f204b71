// Package parser reads PCB-marking machine logs and extracts timestamped
// events and product side information from them.
package parser

import "time"

// LogLine is a raw log line before event extraction.
type LogLine struct {
	// Content is the raw line text, already decoded to UTF-8.
	Content string

	// Source is the file identifier this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// ParsedEvent is a log line that carried an HH:MM:SS: prefix.
type ParsedEvent struct {
	// Timestamp is the time of day of the event. The date part is zero;
	// calendar dates are attributed later from the file identifier.
	Timestamp time.Time

	// Message is everything after the timestamp prefix.
	Message string

	// Raw is the trimmed original line.
	Raw string

	// Source is the file identifier this event came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// Clock returns the event time of day as an offset from midnight.
func (e *ParsedEvent) Clock() time.Duration {
	h, m, s := e.Timestamp.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
