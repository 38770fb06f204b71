package analyzer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/oeelog/pkg/config"
	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// Analyzer runs the timeline builder over a machine's log stream and feeds
// every final record to its reducers.
type Analyzer struct {
	cfg        *config.Config
	classifier *status.Classifier

	statusSummary *StatusSummary
	cycles        *CycleSummary
	products      *ProductCatalog
	reducers      []Reducer

	// Options
	dateRange     *DateRange
	productFilter map[string]bool // nil means all products
	logger        *zap.Logger
	keepTimeline  bool
	strictDates   *bool
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithDateRange limits the aggregates to the given calendar days.
// A zero bound is open. Classification always sees the whole stream.
func WithDateRange(from, to time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if !from.IsZero() || !to.IsZero() {
			a.dateRange = &DateRange{From: from, To: to}
		}
	}
}

// WithProductFilter limits the aggregates to records of the given product IDs.
func WithProductFilter(ids []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(ids) > 0 {
			a.productFilter = make(map[string]bool)
			for _, id := range ids {
				a.productFilter[id] = true
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithKeepTimeline includes every record in the result.
func WithKeepTimeline(keep bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.keepTimeline = keep
	}
}

// WithStrictDates overrides the configured file date strictness.
func WithStrictDates(strict bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.strictDates = &strict
	}
}

// NewAnalyzer creates a new analyzer from configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		cfg:    cfg,
		logger: zap.NewNop(),
	}

	// Apply options
	for _, opt := range opts {
		opt(a)
	}

	classifier, err := status.NewClassifier(cfg.Markers.Markers, cfg.Fallback())
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}
	a.classifier = classifier

	a.statusSummary = NewStatusSummary(a.dateRange)
	a.cycles = NewCycleSummary(cfg.Markers.Markers, a.dateRange, a.logger)
	a.products = NewProductCatalog(a.dateRange)
	a.reducers = []Reducer{a.statusSummary, a.cycles, a.products}

	return a, nil
}

// Classifier returns the state machine the analyzer drives.
func (a *Analyzer) Classifier() *status.Classifier {
	return a.classifier
}

func (a *Analyzer) includes(r *timeline.Record) bool {
	return a.productFilter == nil || a.productFilter[r.ProductID]
}

func (a *Analyzer) newBuilder(result *Result) *timeline.Builder {
	strict := a.cfg.FileDate.Strict
	if a.strictDates != nil {
		strict = *a.strictDates
	}

	return timeline.NewBuilder(a.classifier,
		timeline.WithLogger(a.logger),
		timeline.WithDatePattern(a.cfg.FileDate.CompiledPattern()),
		timeline.WithStrictDates(strict),
		timeline.WithProductMarker(a.cfg.Markers.Product),
		timeline.WithEmitter(func(ctx context.Context, r *timeline.Record) error {
			if !a.includes(r) {
				return nil
			}
			result.Metadata.RecordsReduced++
			for _, reducer := range a.reducers {
				if err := reducer.Process(ctx, r); err != nil {
					return fmt.Errorf("reducer %q: %w", reducer.Name(), err)
				}
			}
			return nil
		}),
	)
}

// Analyze processes the log stream and returns the aggregates.
func (a *Analyzer) Analyze(ctx context.Context, source parser.LogSource) (*Result, error) {
	result := &Result{
		Metadata: Metadata{
			DateRange: a.dateRange,
			StartTime: time.Now(),
		},
	}
	for id := range a.productFilter {
		result.Metadata.ProductFilter = append(result.Metadata.ProductFilter, id)
	}
	sort.Strings(result.Metadata.ProductFilter)

	// Reset all reducers before analysis
	for _, reducer := range a.reducers {
		reducer.Reset()
	}

	builder := a.newBuilder(result)

	// Track sources seen
	sourcesMap := make(map[string]bool)

	// Process all log lines
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		// Track source files
		if !sourcesMap[line.Source] {
			sourcesMap[line.Source] = true
			result.Metadata.Sources = append(result.Metadata.Sources, line.Source)
		}

		result.Metadata.LinesProcessed++

		if err := builder.ProcessLine(ctx, line); err != nil {
			return nil, err
		}
	}

	if err := builder.Finish(ctx); err != nil {
		return nil, err
	}

	// Finalize all reducers
	for _, reducer := range a.reducers {
		if err := reducer.Finalize(ctx); err != nil {
			return nil, fmt.Errorf("finalizing %q: %w", reducer.Name(), err)
		}
	}

	result.StatusDays = a.statusSummary.Rows()
	result.Cycles = a.cycles.Cycles()
	result.Products = a.products.Entries()
	result.Files = builder.Files()
	result.Rejected = builder.Rejected()
	for _, f := range result.Files {
		result.Metadata.EventsProcessed += f.Events
	}
	if a.keepTimeline {
		result.Timeline = builder.Timeline().Records()
	}

	a.logger.Info("Analysis complete",
		zap.Int("files", len(result.Files)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("events", result.Metadata.EventsProcessed),
		zap.Int("cycles", len(result.Cycles)))

	result.Metadata.EndTime = time.Now()

	return result, nil
}
