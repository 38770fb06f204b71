package parser

import (
	"regexp"
	"strings"
	"time"
)

// EventLayout is the time layout of the line prefix.
const EventLayout = "15:04:05"

// eventPattern matches "HH:MM:SS:<message>" at the start of a trimmed line.
var eventPattern = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}):(.*)$`)

// EventExtractor splits log lines into a time of day and a message.
type EventExtractor struct {
	pattern *regexp.Regexp
	layout  string
}

// NewEventExtractor creates an extractor for the machine's HH:MM:SS: prefix.
func NewEventExtractor() *EventExtractor {
	return &EventExtractor{
		pattern: eventPattern,
		layout:  EventLayout,
	}
}

// Extract parses a raw line. It returns false for empty lines, lines without
// the timestamp prefix and prefixes that are not a valid 24h clock value.
// None of these are errors: machine logs carry plenty of non-event lines.
func (e *EventExtractor) Extract(line string) (*ParsedEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	matches := e.pattern.FindStringSubmatch(line)
	if len(matches) < 3 {
		return nil, false
	}

	ts, err := time.Parse(e.layout, matches[1])
	if err != nil {
		return nil, false
	}

	return &ParsedEvent{
		Timestamp: ts,
		Message:   matches[2],
		Raw:       line,
	}, true
}

// ExtractLine is Extract for a LogLine, carrying source and line number over.
func (e *EventExtractor) ExtractLine(line *LogLine) (*ParsedEvent, bool) {
	ev, ok := e.Extract(line.Content)
	if !ok {
		return nil, false
	}
	ev.Source = line.Source
	ev.LineNum = line.LineNum
	return ev, true
}
