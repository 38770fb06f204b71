// Package detector samples a machine log and reports how the configured
// markers, file-name date and product declarations line up with it.
package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// DefaultSampleSize is the number of lines read from the head of a file.
const DefaultSampleSize = 500

// RuleHit counts how often one transition rule fired in the sample.
type RuleHit struct {
	Rule       string `json:"rule"`
	Count      int    `json:"count"`
	SampleLine string `json:"sample_line,omitempty"`
}

// DateMatch is a file-name date format that parsed the file identifier.
type DateMatch struct {
	Format *FileDateFormat
	Date   time.Time
}

// DetectionResult holds the census of one log file.
type DetectionResult struct {
	File         string
	SampledLines int // lines read
	ParsedLines  int // lines with an HH:MM:SS: prefix

	// FileDate is the date found by the configured pattern; zero when the
	// file would be rejected, in which case DateError says why.
	FileDate  time.Time
	DateError string

	// DateMatches lists the known formats that parse the file name.
	DateMatches []DateMatch

	// RuleHits has one entry per transition rule, in table order, including
	// rules that never fired.
	RuleHits []RuleHit

	// Unmatched counts events that repeated the base state.
	Unmatched int

	// Products lists the product IDs declared in the sample, in order seen.
	Products []string

	// FinalState is the base state after replaying the sample.
	FinalState status.State
}

// Detector replays a sample of a log file through the classifier.
type Detector struct {
	classifier    *status.Classifier
	extractor     *parser.EventExtractor
	datePattern   *regexp.Regexp
	productMarker string
	encoding      string
	sampleSize    int
	formats       []*FileDateFormat
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 500).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithClassifier replays the sample through c instead of the default table.
func WithClassifier(c *status.Classifier) Option {
	return func(d *Detector) {
		if c != nil {
			d.classifier = c
		}
	}
}

// WithDatePattern sets the configured file-name date pattern.
func WithDatePattern(re *regexp.Regexp) Option {
	return func(d *Detector) {
		d.datePattern = re
	}
}

// WithEncoding sets the log file encoding (latin1 when empty).
func WithEncoding(name string) Option {
	return func(d *Detector) {
		d.encoding = name
	}
}

// WithProductMarker sets the literal preceding product program paths.
func WithProductMarker(marker string) Option {
	return func(d *Detector) {
		d.productMarker = marker
	}
}

// New creates a Detector. Without WithClassifier it uses the default
// markers and fallback.
func New(opts ...Option) *Detector {
	d := &Detector{
		extractor:  parser.NewEventExtractor(),
		sampleSize: DefaultSampleSize,
		formats:    DefaultFileDateFormats(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.classifier == nil {
		// The default fallback is always valid.
		d.classifier, _ = status.NewClassifier(status.DefaultMarkers(), status.DefaultFallback)
	}
	return d
}

// DetectFromFile samples a log file and returns its census.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	source := parser.NewFileSource([]string{path}, d.encoding)
	defer source.Close()

	var lines []string
	for len(lines) < d.sampleSize {
		line, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sampling %s: %w", path, err)
		}
		lines = append(lines, line.Content)
	}

	return d.Detect(path, lines), nil
}

// Detect builds the census for lines read from the file identified by name.
func (d *Detector) Detect(name string, lines []string) *DetectionResult {
	result := &DetectionResult{
		File:         name,
		SampledLines: len(lines),
	}

	d.detectDate(name, result)

	rules := d.classifier.Rules()
	hits := make(map[string]*RuleHit, len(rules))
	result.RuleHits = make([]RuleHit, len(rules))
	for i, r := range rules {
		result.RuleHits[i].Rule = r.Name
		hits[r.Name] = &result.RuleHits[i]
	}

	products := parser.NewProductTracker(d.productMarker, parser.NewProductInfo())
	seen := make(map[string]bool)
	base := d.classifier.Fallback()

	for _, line := range lines {
		ev, ok := d.extractor.Extract(line)
		if !ok {
			continue
		}
		result.ParsedLines++

		if products.Observe(ev.Message) {
			id := products.Current().ID
			if !seen[id] {
				seen[id] = true
				result.Products = append(result.Products, id)
			}
		}

		tr := d.classifier.Classify(base, ev.Message)
		base = tr.Base

		hit, ok := hits[tr.Rule]
		if !ok {
			result.Unmatched++
			continue
		}
		hit.Count++
		if hit.SampleLine == "" {
			hit.SampleLine = ev.Raw
		}
	}

	result.FinalState = base
	return result
}

func (d *Detector) detectDate(name string, result *DetectionResult) {
	date, err := parser.DateFromName(name, d.datePattern)
	if err != nil {
		result.DateError = err.Error()
	} else {
		result.FileDate = date
	}

	for _, f := range d.formats {
		if date, err := parser.DateFromName(name, f.Pattern); err == nil {
			result.DateMatches = append(result.DateMatches, DateMatch{Format: f, Date: date})
		}
	}
}

// ParseRatio returns the share of sampled lines that carried a timestamp.
func (r *DetectionResult) ParseRatio() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.ParsedLines) / float64(r.SampledLines)
}

// HasDate returns true if the configured pattern dated the file.
func (r *DetectionResult) HasDate() bool {
	return !r.FileDate.IsZero()
}

// SuggestedDateFormat returns the first known format that dates the file,
// or nil.
func (r *DetectionResult) SuggestedDateFormat() *DateMatch {
	if len(r.DateMatches) == 0 {
		return nil
	}
	return &r.DateMatches[0]
}

// ClassifiedEvents returns the number of events that matched a rule.
func (r *DetectionResult) ClassifiedEvents() int {
	return r.ParsedLines - r.Unmatched
}
