package parser

import (
	"regexp"
	"strings"
)

// DefaultProductID is used when no product ID can be extracted.
const DefaultProductID = "99999999"

// DefaultProductMarker precedes the product program path in a message.
const DefaultProductMarker = "SetFileName File:"

// productIDPattern matches an 8-digit code right after a path separator
// and right before '_' or '-'.
var productIDPattern = regexp.MustCompile(`[/\\](\d{8})[_-]`)

// ProductInfo identifies the product program currently loaded on the machine.
type ProductInfo struct {
	Path string `json:"path"`
	ID   string `json:"id"`
}

// NewProductInfo returns the empty product with the default ID.
func NewProductInfo() ProductInfo {
	return ProductInfo{ID: DefaultProductID}
}

// ExtractProductID returns the product ID embedded in a program path,
// or DefaultProductID.
func ExtractProductID(path string) string {
	m := productIDPattern.FindStringSubmatch(path)
	if len(m) < 2 {
		return DefaultProductID
	}
	return m[1]
}

// ProductTracker follows product declarations through a message stream.
type ProductTracker struct {
	marker  string
	current ProductInfo
}

// NewProductTracker creates a tracker starting from the given product.
// An empty marker selects DefaultProductMarker.
func NewProductTracker(marker string, start ProductInfo) *ProductTracker {
	if marker == "" {
		marker = DefaultProductMarker
	}
	if start.ID == "" {
		start.ID = DefaultProductID
	}
	return &ProductTracker{marker: marker, current: start}
}

// Observe inspects a message and updates the current product when the
// message declares one. It reports whether the product changed.
func (t *ProductTracker) Observe(message string) bool {
	idx := strings.LastIndex(message, t.marker)
	if idx < 0 {
		return false
	}

	path := strings.TrimSpace(message[idx+len(t.marker):])
	t.current = ProductInfo{
		Path: path,
		ID:   ExtractProductID(path),
	}
	return true
}

// Current returns the product in effect.
func (t *ProductTracker) Current() ProductInfo {
	return t.current
}

// Set replaces the product in effect.
func (t *ProductTracker) Set(p ProductInfo) {
	t.current = p
}
