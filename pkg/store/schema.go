package store

import "fmt"

// Table names, before the configured prefix.
const (
	TableRuns           = "runs"
	TableTimeline       = "timeline_records"
	TableStatusSummary  = "status_summary"
	TableCycles         = "cycle_records"
	TableProductCatalog = "products"
)

func (s *Store) table(name string) string {
	return s.prefix + name
}

func (s *Store) schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    analyzed_at TIMESTAMP NOT NULL,
    config_file TEXT NOT NULL,
    files INTEGER NOT NULL,
    rejected_files INTEGER NOT NULL,
    events INTEGER NOT NULL,
    cycles INTEGER NOT NULL
)`, s.table(TableRuns)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    day TEXT NOT NULL,
    event_time TIMESTAMP NOT NULL,
    message TEXT NOT NULL,
    product TEXT NOT NULL,
    product_id TEXT NOT NULL,
    label TEXT NOT NULL,
    base_state TEXT NOT NULL,
    duration_seconds BIGINT NOT NULL,
    source TEXT NOT NULL,
    line_num INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
)`, s.table(TableTimeline)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id TEXT NOT NULL,
    day TEXT NOT NULL,
    state TEXT NOT NULL,
    seconds BIGINT NOT NULL,
    hours DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, day, state)
)`, s.table(TableStatusSummary)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    day TEXT NOT NULL,
    product_id TEXT NOT NULL,
    cycle_start TIMESTAMP NOT NULL,
    cycle_end TIMESTAMP NOT NULL,
    cycle_duration DOUBLE PRECISION NOT NULL,
    unit_count INTEGER NOT NULL,
    unit_duration DOUBLE PRECISION NOT NULL,
    ideal_unit_time DOUBLE PRECISION NOT NULL,
    ideal_cycle_time DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, seq)
)`, s.table(TableCycles)),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id TEXT NOT NULL,
    product_id TEXT NOT NULL,
    name TEXT NOT NULL,
    path TEXT NOT NULL,
    first_seen TIMESTAMP NOT NULL,
    records INTEGER NOT NULL,
    PRIMARY KEY (run_id, product_id, path)
)`, s.table(TableProductCatalog)),
	}
}
