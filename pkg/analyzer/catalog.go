package analyzer

import (
	"context"
	"sort"
	"strings"

	"github.com/ccollicutt/oeelog/pkg/timeline"
)

type productKey struct {
	path string
	id   string
}

// ProductCatalog collects the distinct product programs the machine ran.
type ProductCatalog struct {
	dateRange *DateRange
	entries   map[productKey]*ProductEntry
	sorted    []ProductEntry
}

// NewProductCatalog creates a catalogue over records in dr (nil for all days).
func NewProductCatalog(dr *DateRange) *ProductCatalog {
	c := &ProductCatalog{dateRange: dr}
	c.Reset()
	return c
}

// Name returns the reducer name.
func (c *ProductCatalog) Name() string {
	return "products"
}

// Process counts the record against its product. Records before the first
// product declaration are ignored.
func (c *ProductCatalog) Process(_ context.Context, r *timeline.Record) error {
	if r.Product == "" || !c.dateRange.Contains(r.Date) {
		return nil
	}

	key := productKey{path: r.Product, id: r.ProductID}
	e, ok := c.entries[key]
	if !ok {
		e = &ProductEntry{
			ID:        r.ProductID,
			Name:      ProductName(r.Product),
			Path:      r.Product,
			FirstSeen: r.Time,
		}
		c.entries[key] = e
	}
	e.Records++
	return nil
}

// Finalize sorts the catalogue by product ID, then path.
func (c *ProductCatalog) Finalize(_ context.Context) error {
	c.sorted = make([]ProductEntry, 0, len(c.entries))
	for _, e := range c.entries {
		c.sorted = append(c.sorted, *e)
	}
	sort.Slice(c.sorted, func(i, j int) bool {
		if c.sorted[i].ID != c.sorted[j].ID {
			return c.sorted[i].ID < c.sorted[j].ID
		}
		return c.sorted[i].Path < c.sorted[j].Path
	})
	return nil
}

// Entries returns the catalogue. Valid after Finalize.
func (c *ProductCatalog) Entries() []ProductEntry {
	return c.sorted
}

// Reset clears internal state for reuse.
func (c *ProductCatalog) Reset() {
	c.entries = make(map[productKey]*ProductEntry)
	c.sorted = nil
}

// ProductName returns the file name of a product program path, accepting
// both Windows and Unix separators.
func ProductName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
