package detector

import "regexp"

// FileDateFormat is a known way of writing the calendar date into a log
// file name. Every pattern captures year, month and day in that order, so
// PatternStr can be pasted into file_date.pattern as is.
type FileDateFormat struct {
	Name       string         // Human-readable name
	Pattern    *regexp.Regexp // Compiled regex (set during init)
	PatternStr string         // Pattern string for config output
	Examples   []string       // Example file names
}

// DefaultFileDateFormats returns the file-name date formats to try, most
// specific first. The compact form comes last because it also matches
// runs of digits inside other names.
func DefaultFileDateFormats() []*FileDateFormat {
	formats := []*FileDateFormat{
		{
			Name:       "dotted (YYYY.M.D)",
			PatternStr: `(\d{4})\.(\d{1,2})\.(\d{1,2})`,
			Examples:   []string{"2024.3.9.log", "2024.12.31.txt"},
		},
		{
			Name:       "ISO (YYYY-MM-DD)",
			PatternStr: `(\d{4})-(\d{2})-(\d{2})`,
			Examples:   []string{"marker-2024-03-09.log"},
		},
		{
			Name:       "underscored (YYYY_MM_DD)",
			PatternStr: `(\d{4})_(\d{2})_(\d{2})`,
			Examples:   []string{"log_2024_03_09.txt"},
		},
		{
			Name:       "compact (YYYYMMDD)",
			PatternStr: `(\d{4})(\d{2})(\d{2})`,
			Examples:   []string{"LOG20240309.txt"},
		},
	}

	for _, f := range formats {
		f.Pattern = regexp.MustCompile(f.PatternStr)
	}

	return formats
}
