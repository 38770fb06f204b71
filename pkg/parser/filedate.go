package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// DefaultFileDatePattern matches machine log names like "2024.3.9.log".
const DefaultFileDatePattern = `(\d{4})\.(\d{1,2})\.(\d{1,2})`

// ErrNoFileDate is returned when a file identifier carries no usable date.
var ErrNoFileDate = errors.New("no date in file name")

var defaultFileDate = regexp.MustCompile(DefaultFileDatePattern)

// DateFromName extracts the calendar date from a file identifier.
// The pattern must capture year, month and day, in that order. A nil
// pattern selects DefaultFileDatePattern. Only the base name is inspected.
func DateFromName(name string, pattern *regexp.Regexp) (time.Time, error) {
	if pattern == nil {
		pattern = defaultFileDate
	}

	base := filepath.Base(name)

	m := pattern.FindStringSubmatch(base)
	if len(m) < 4 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoFileDate, name)
	}

	y, errY := strconv.Atoi(m[1])
	mo, errM := strconv.Atoi(m[2])
	d, errD := strconv.Atoi(m[3])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoFileDate, name)
	}

	date := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 2024.2.31 to March; reject it instead.
	if date.Year() != y || int(date.Month()) != mo || date.Day() != d {
		return time.Time{}, fmt.Errorf("%w: %s (invalid calendar date)", ErrNoFileDate, name)
	}

	return date, nil
}
