package analyzer

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ccollicutt/oeelog/pkg/status"
	"github.com/ccollicutt/oeelog/pkg/timeline"
)

// IdealQuantile is the quantile bounding the durations an ideal time is
// taken from.
const IdealQuantile = 0.25

type openCycle struct {
	start     *timeline.Record
	unitCount int
}

// CycleSummary extracts marking cycles: a start mark opens a cycle, each
// marking completion counts a unit, and a successful cut closes it. A stop
// closes a cycle only while no unit has been counted.
type CycleSummary struct {
	markers   status.Markers
	dateRange *DateRange
	logger    *zap.Logger

	open   *openCycle
	cycles []CycleRecord
}

// NewCycleSummary creates a cycle summary over the given markers. Cycles
// are kept when their start date lies in dr (nil for all days).
func NewCycleSummary(markers status.Markers, dr *DateRange, logger *zap.Logger) *CycleSummary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CycleSummary{
		markers:   markers.Normalize(),
		dateRange: dr,
		logger:    logger,
	}
}

// Name returns the reducer name.
func (c *CycleSummary) Name() string {
	return "cycles"
}

// Process advances the cycle state with one record.
func (c *CycleSummary) Process(_ context.Context, r *timeline.Record) error {
	msg := status.NewMessage(r.Message)

	switch {
	case msg.ContainsAny(c.markers.StartMark):
		if c.open != nil {
			c.logger.Debug("Discarding unterminated cycle",
				zap.String("file", c.open.start.Source),
				zap.Int("line", c.open.start.LineNum),
				zap.Int("units", c.open.unitCount))
		}
		c.open = &openCycle{start: r}

	case c.open == nil:
		return nil

	case msg.ContainsAny(c.markers.MarkingDone):
		c.open.unitCount++

	case msg.ContainsAny(c.markers.CuttingDone):
		c.close(r)

	case msg.ContainsAny(c.markers.CycleStop) && c.open.unitCount == 0:
		c.close(r)
	}

	return nil
}

func (c *CycleSummary) close(end *timeline.Record) {
	start := c.open.start
	units := c.open.unitCount
	c.open = nil

	if !c.dateRange.Contains(start.Date) {
		return
	}

	cycle := CycleRecord{
		Date:          start.Date,
		ProductID:     start.ProductID,
		CycleStart:    start.Time,
		CycleEnd:      end.Time,
		CycleDuration: end.Time.Sub(start.Time).Seconds(),
		UnitCount:     units,
	}
	if units > 0 {
		cycle.UnitDuration = cycle.CycleDuration / float64(units)
	}
	c.cycles = append(c.cycles, cycle)
}

// Finalize discards an open cycle and fills in the ideal times.
func (c *CycleSummary) Finalize(_ context.Context) error {
	if c.open != nil {
		c.logger.Debug("Discarding open cycle at end of stream",
			zap.String("file", c.open.start.Source),
			zap.Int("line", c.open.start.LineNum))
		c.open = nil
	}

	durations := make(map[string][]float64)
	for _, cy := range c.cycles {
		if cy.UnitDuration > 0 {
			durations[cy.ProductID] = append(durations[cy.ProductID], cy.UnitDuration)
		}
	}

	ideal := make(map[string]float64, len(durations))
	for product, ds := range durations {
		ideal[product] = IdealTime(ds)
	}

	for i := range c.cycles {
		cy := &c.cycles[i]
		cy.IdealUnitTime = ideal[cy.ProductID]
		cy.IdealCycleTime = cy.IdealUnitTime * float64(cy.UnitCount)
	}

	return nil
}

// Cycles returns the completed cycles. Ideal times are set after Finalize.
func (c *CycleSummary) Cycles() []CycleRecord {
	return c.cycles
}

// Reset clears internal state for reuse.
func (c *CycleSummary) Reset() {
	c.open = nil
	c.cycles = nil
}

// IdealTime returns the minimum of the positive durations at or below the
// IdealQuantile of the sample, the quantile being linearly interpolated
// over the sorted durations. It returns 0 for an empty sample.
func IdealTime(durations []float64) float64 {
	var sorted []float64
	for _, d := range durations {
		if d > 0 {
			sorted = append(sorted, d)
		}
	}
	if len(sorted) == 0 {
		return 0
	}
	sort.Float64s(sorted)

	q := Quantile(sorted, IdealQuantile)

	best := math.Inf(1)
	for _, d := range sorted {
		if d <= q && d < best {
			best = d
		}
	}
	return best
}

// Quantile returns the p-quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
