package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/ccollicutt/oeelog/pkg/timeline"
)

func TestProductCatalog(t *testing.T) {
	at := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	c := NewProductCatalog(nil)
	ctx := context.Background()

	records := []*timeline.Record{
		{Time: at, Date: timeline.Day(at), ProductID: "99999999"},
		{Time: at.Add(time.Second), Date: timeline.Day(at), Product: `D:\jobs\22222222_b.bin`, ProductID: "22222222"},
		{Time: at.Add(2 * time.Second), Date: timeline.Day(at), Product: `D:\jobs\22222222_b.bin`, ProductID: "22222222"},
		{Time: at.Add(3 * time.Second), Date: timeline.Day(at), Product: "/jobs/11111111-a.bin", ProductID: "11111111"},
	}
	for _, r := range records {
		if err := c.Process(ctx, r); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
	if err := c.Finalize(ctx); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	entries := c.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].ID != "11111111" || entries[0].Name != "11111111-a.bin" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Records != 2 || !entries[1].FirstSeen.Equal(at.Add(time.Second)) {
		t.Errorf("entries[1] = %+v, want 2 records first seen at 08:00:01", entries[1])
	}
	if entries[1].Name != "22222222_b.bin" {
		t.Errorf("entries[1].Name = %q, want 22222222_b.bin", entries[1].Name)
	}
}

func TestProductName(t *testing.T) {
	tests := map[string]string{
		`D:\jobs\a.bin`: "a.bin",
		"/jobs/b.bin":   "b.bin",
		"c.bin":         "c.bin",
		"":              "",
	}
	for in, want := range tests {
		if got := ProductName(in); got != want {
			t.Errorf("ProductName(%q) = %q, want %q", in, got, want)
		}
	}
}
