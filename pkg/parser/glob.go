package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
)

// ExpandGlobs expands a list of file paths and glob patterns into a deduplicated
// list of matching file paths. Patterns that don't match any files are returned as-is
// (the caller should handle file-not-found errors).
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			matches = []string{pattern}
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				result = append(result, match)
			}
		}
	}

	sort.Strings(result)

	return result, nil
}

// SortLogFiles orders log files for processing. Files whose name carries a
// date are ordered by that date ("2024.3.9" before "2024.12.25"), ties broken
// lexically. Files without a date follow in lexical order.
func SortLogFiles(files []string, datePattern *regexp.Regexp) []string {
	sorted := make([]string, len(files))
	copy(sorted, files)

	dates := make(map[string]int64, len(files))
	for _, f := range files {
		if d, err := DateFromName(f, datePattern); err == nil {
			dates[f] = d.Unix()
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		di, iok := dates[sorted[i]]
		dj, jok := dates[sorted[j]]
		if iok != jok {
			return iok
		}
		if di != dj {
			return di < dj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}
