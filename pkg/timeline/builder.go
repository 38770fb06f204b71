package timeline

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// rolloverThreshold is how far the time of day must jump back within a file
// to count as midnight passing. Smaller steps back are clock irregularities.
const rolloverThreshold = 12 * time.Hour

// DateResolver maps a file identifier to the calendar date of its first line.
type DateResolver func(source string) (time.Time, error)

// Emitter receives records once they are final: after the following record
// has been appended and the record's duration is known.
type Emitter func(ctx context.Context, r *Record) error

// Builder drives the classifier over an ordered log stream. It owns the
// carried state; one Builder serves exactly one machine stream.
type Builder struct {
	classifier *status.Classifier
	extractor  *parser.EventExtractor
	products   *parser.ProductTracker
	timeline   *Timeline
	logger     *zap.Logger

	resolveDate DateResolver
	strict      bool
	emit        Emitter

	carried CarriedState

	// Current file
	file      *FileSummary
	skipping  bool
	dayOffset int
	lastClock time.Duration
	haveClock bool

	// Last appended record, not yet emitted
	pending *Record

	files    []FileSummary
	rejected []RejectedFile
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithDatePattern resolves file dates with the given year/month/day pattern.
func WithDatePattern(re *regexp.Regexp) BuilderOption {
	return func(b *Builder) {
		b.resolveDate = func(source string) (time.Time, error) {
			return parser.DateFromName(source, re)
		}
	}
}

// WithDateResolver sets a custom date resolver.
func WithDateResolver(fn DateResolver) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.resolveDate = fn
		}
	}
}

// WithStrictDates makes an undatable file a fatal error instead of a
// rejected, skipped file.
func WithStrictDates(strict bool) BuilderOption {
	return func(b *Builder) {
		b.strict = strict
	}
}

// WithEmitter sets the receiver of final records.
func WithEmitter(fn Emitter) BuilderOption {
	return func(b *Builder) {
		b.emit = fn
	}
}

// WithCarriedState seeds the builder, e.g. to continue a previous run.
func WithCarriedState(cs CarriedState) BuilderOption {
	return func(b *Builder) {
		b.carried = cs
	}
}

// WithProductMarker sets the product declaration marker.
func WithProductMarker(marker string) BuilderOption {
	return func(b *Builder) {
		b.products = parser.NewProductTracker(marker, b.carried.Product)
	}
}

// NewBuilder creates a builder around a classifier.
func NewBuilder(c *status.Classifier, opts ...BuilderOption) *Builder {
	b := &Builder{
		classifier: c,
		extractor:  parser.NewEventExtractor(),
		timeline:   NewTimeline(),
		logger:     zap.NewNop(),
		carried:    NewCarriedState(c.Fallback()),
		resolveDate: func(source string) (time.Time, error) {
			return parser.DateFromName(source, nil)
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.products == nil {
		b.products = parser.NewProductTracker("", b.carried.Product)
	} else {
		b.products.Set(b.carried.Product)
	}

	return b
}

// Run processes the whole source and finishes the timeline.
func (b *Builder) Run(ctx context.Context, source parser.LogSource) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading log source: %w", err)
		}

		if err := b.ProcessLine(ctx, line); err != nil {
			return err
		}
	}

	return b.Finish(ctx)
}

// ProcessLine handles one raw line, starting a new file when the line's
// source differs from the current one.
func (b *Builder) ProcessLine(ctx context.Context, line *parser.LogLine) error {
	if b.file == nil || b.file.Source != line.Source {
		b.EndFile()
		if err := b.BeginFile(line.Source); err != nil {
			return err
		}
	}

	b.file.Lines++
	if b.skipping {
		return nil
	}

	ev, ok := b.extractor.ExtractLine(line)
	if !ok {
		return nil
	}
	return b.ProcessEvent(ctx, ev)
}

// BeginFile starts a file, seeding it from the carried state.
func (b *Builder) BeginFile(source string) error {
	b.file = &FileSummary{
		Source: source,
		Seed:   b.carried,
	}
	b.skipping = false
	b.dayOffset = 0
	b.haveClock = false

	date, err := b.resolveDate(source)
	if err != nil {
		if b.strict {
			return fmt.Errorf("file %s: %w", source, err)
		}
		b.logger.Warn("Rejecting log file without date",
			zap.String("file", source),
			zap.Error(err))
		b.rejected = append(b.rejected, RejectedFile{Source: source, Reason: err.Error()})
		b.skipping = true
		return nil
	}
	b.file.Date = date

	b.logger.Debug("Log file started",
		zap.String("file", source),
		zap.Time("date", date),
		zap.String("base", string(b.carried.Base)),
		zap.String("product_id", b.carried.Product.ID),
		zap.Bool("powered_on", b.carried.PoweredOn))

	return nil
}

// EndFile closes the current file and records its summary. Rejected files
// leave no summary and no trace in the carried state.
func (b *Builder) EndFile() {
	if b.file == nil {
		return
	}
	if !b.skipping {
		b.file.Final = b.carried
		b.files = append(b.files, *b.file)
		b.logger.Debug("Log file finished",
			zap.String("file", b.file.Source),
			zap.Int("events", b.file.Events),
			zap.String("base", string(b.carried.Base)))
	}
	b.file = nil
	b.skipping = false
}

// ProcessEvent classifies one event of the current file.
func (b *Builder) ProcessEvent(ctx context.Context, ev *parser.ParsedEvent) error {
	if b.file == nil {
		return fmt.Errorf("event from %s outside of a file", ev.Source)
	}

	// A time of day jumping far back within a file means midnight passed
	clock := ev.Clock()
	if b.haveClock && b.lastClock-clock > rolloverThreshold {
		b.dayOffset++
	}
	b.lastClock = clock
	b.haveClock = true

	at := b.file.Date.AddDate(0, 0, b.dayOffset).Add(clock)

	b.products.Observe(ev.Message)
	b.carried.Product = b.products.Current()

	tr := b.classifier.Classify(b.carried.Base, ev.Message)
	if tr.ClosePrevious {
		b.timeline.CloseOpenState()
	}

	switch tr.Power {
	case status.PowerOn:
		if !b.carried.PoweredOn {
			b.logger.Debug("Machine powered on", zap.String("file", ev.Source), zap.Int("line", ev.LineNum))
		}
		b.carried.PoweredOn = true
	case status.PowerOff:
		if b.carried.PoweredOn {
			b.logger.Debug("Machine powered off", zap.String("file", ev.Source), zap.Int("line", ev.LineNum))
		}
		b.carried.PoweredOn = false
	}

	rec := &Record{
		Date:      Day(at),
		Time:      at,
		Timestamp: ev.Timestamp.Format(parser.EventLayout),
		Message:   ev.Message,
		Product:   b.carried.Product.Path,
		ProductID: b.carried.Product.ID,
		Label:     tr.Label,
		Base:      tr.Label.Base(),
		PoweredOn: b.carried.PoweredOn,
		Source:    ev.Source,
		LineNum:   ev.LineNum,
	}

	if b.pending != nil {
		b.attribute(b.pending, b.intervalEnd(b.pending, ev.Source, at))
		if err := b.flush(ctx); err != nil {
			return err
		}
	}

	b.timeline.Append(rec)
	b.pending = rec
	b.carried.Base = tr.Base
	b.file.Events++

	return nil
}

// attribute assigns the interval up to next to r.
func (b *Builder) attribute(r *Record, next time.Time) {
	if !r.PoweredOn || r.Base == status.Off {
		return
	}

	d := next.Sub(r.Time)
	if d < 0 {
		b.logger.Debug("Clamping negative interval",
			zap.String("file", r.Source),
			zap.Int("line", r.LineNum),
			zap.Duration("interval", d))
		d = 0
	}

	r.DurationSeconds = int64(d / time.Second)
	r.Attributions = SplitAtMidnight(r.Time, d, r.Base)
}

// intervalEnd bounds the interval of r when the next event comes from a file
// dated two or more days after r: the record then ends at its own midnight
// instead of filling the days no log covers.
func (b *Builder) intervalEnd(r *Record, source string, next time.Time) time.Time {
	if r.Source == source {
		return next
	}
	midnight := Day(r.Time).AddDate(0, 0, 1)
	if Day(next).After(midnight) {
		b.logger.Debug("Capping interval at log gap",
			zap.String("file", r.Source),
			zap.Int("line", r.LineNum),
			zap.Time("next", next))
		return midnight
	}
	return next
}

func (b *Builder) flush(ctx context.Context) error {
	r := b.pending
	b.pending = nil
	if r == nil || b.emit == nil {
		return nil
	}
	if err := b.emit(ctx, r); err != nil {
		return fmt.Errorf("emitting record %s:%d: %w", r.Source, r.LineNum, err)
	}
	return nil
}

// Finish ends the current file and emits the last record, which has no
// successor and therefore no duration. Calling Finish again is a no-op.
func (b *Builder) Finish(ctx context.Context) error {
	b.EndFile()
	return b.flush(ctx)
}

// Timeline returns the records built so far.
func (b *Builder) Timeline() *Timeline {
	return b.timeline
}

// Carried returns the current carried state.
func (b *Builder) Carried() CarriedState {
	return b.carried
}

// Files returns the summaries of processed files in order.
func (b *Builder) Files() []FileSummary {
	return b.files
}

// Rejected returns the files skipped for lack of a date.
func (b *Builder) Rejected() []RejectedFile {
	return b.rejected
}
