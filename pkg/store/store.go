// Package store persists analysis reports to a SQL database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ccollicutt/oeelog/pkg/config"
	"github.com/ccollicutt/oeelog/pkg/output"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// Store writes reports through database/sql.
type Store struct {
	db     *sql.DB
	driver config.DatabaseDriver
	prefix string
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps an open database handle.
func New(db *sql.DB, driver config.DatabaseDriver, prefix string, opts ...Option) *Store {
	s := &Store{
		db:     db,
		driver: driver,
		prefix: prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the configured database.
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DatabaseDriverSQLite
	}

	db, err := sql.Open(string(driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == config.DatabaseDriverSQLite {
		// SQLite is not great with many writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON;",
			"PRAGMA busy_timeout = 5000;",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("set %s: %w", pragma, err)
			}
		}
	}

	// Fail fast if the DB cannot be reached
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return New(db, driver, cfg.TablePrefix, opts...), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites '?' placeholders into the driver's style.
func (s *Store) rebind(query string) string {
	if s.driver != config.DatabaseDriverPgx {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range s.schema() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// SaveReport writes the report in one transaction and returns the run ID
// tagging every row.
func (s *Store) SaveReport(ctx context.Context, report *output.Report) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin report transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	analyzedAt := report.Metadata.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx, s.rebind(fmt.Sprintf(
		`INSERT INTO %s (id, analyzed_at, config_file, files, rejected_files, events, cycles) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.table(TableRuns))),
		runID,
		analyzedAt.UTC(),
		report.Metadata.ConfigFile,
		report.Summary.Files,
		report.Summary.RejectedFiles,
		report.Summary.Events,
		report.Summary.Cycles,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	timelineSQL := s.rebind(fmt.Sprintf(
		`INSERT INTO %s (run_id, seq, day, event_time, message, product, product_id, label, base_state, duration_seconds, source, line_num) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table(TableTimeline)))
	for i, r := range report.Timeline {
		if _, err := tx.ExecContext(ctx, timelineSQL,
			runID, i, r.Date.Format(output.DateLayout), r.Time.UTC(), r.Message,
			r.Product, r.ProductID, r.Label.String(), string(r.Base),
			r.DurationSeconds, r.Source, r.LineNum,
		); err != nil {
			return "", fmt.Errorf("insert timeline record %d: %w", i, err)
		}
	}

	summarySQL := s.rebind(fmt.Sprintf(
		`INSERT INTO %s (run_id, day, state, seconds, hours) VALUES (?, ?, ?, ?, ?)`,
		s.table(TableStatusSummary)))
	for _, d := range report.StatusDays {
		day := d.Date.Format(output.DateLayout)
		for _, st := range status.States {
			if _, err := tx.ExecContext(ctx, summarySQL,
				runID, day, string(st), d.Seconds[st], d.Hours(st),
			); err != nil {
				return "", fmt.Errorf("insert status summary %s/%s: %w", day, st, err)
			}
		}
	}

	cycleSQL := s.rebind(fmt.Sprintf(
		`INSERT INTO %s (run_id, seq, day, product_id, cycle_start, cycle_end, cycle_duration, unit_count, unit_duration, ideal_unit_time, ideal_cycle_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table(TableCycles)))
	for i, cy := range report.Cycles {
		if _, err := tx.ExecContext(ctx, cycleSQL,
			runID, i, cy.Date.Format(output.DateLayout), cy.ProductID,
			cy.CycleStart.UTC(), cy.CycleEnd.UTC(), cy.CycleDuration,
			cy.UnitCount, cy.UnitDuration, cy.IdealUnitTime, cy.IdealCycleTime,
		); err != nil {
			return "", fmt.Errorf("insert cycle %d: %w", i, err)
		}
	}

	productSQL := s.rebind(fmt.Sprintf(
		`INSERT INTO %s (run_id, product_id, name, path, first_seen, records) VALUES (?, ?, ?, ?, ?, ?)`,
		s.table(TableProductCatalog)))
	for _, p := range report.Products {
		if _, err := tx.ExecContext(ctx, productSQL,
			runID, p.ID, p.Name, p.Path, p.FirstSeen.UTC(), p.Records,
		); err != nil {
			return "", fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit report transaction: %w", err)
	}

	s.logger.Info("Report saved",
		zap.String("run_id", runID),
		zap.String("driver", string(s.driver)),
		zap.Int("timeline_records", len(report.Timeline)),
		zap.Int("status_days", len(report.StatusDays)),
		zap.Int("cycles", len(report.Cycles)))

	return runID, nil
}

// Run is a stored analysis run.
type Run struct {
	ID            string
	ConfigFile    string
	Files         int
	RejectedFiles int
	Events        int
	Cycles        int
}

// Runs lists stored runs ordered by analysis time.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, config_file, files, rejected_files, events, cycles FROM %s ORDER BY analyzed_at ASC`,
		s.table(TableRuns)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ConfigFile, &r.Files, &r.RejectedFiles, &r.Events, &r.Cycles); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusTotals returns the stored seconds per state for a run.
func (s *Store) StatusTotals(ctx context.Context, runID string) (map[status.State]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(fmt.Sprintf(
		`SELECT state, SUM(seconds) FROM %s WHERE run_id = ? GROUP BY state`,
		s.table(TableStatusSummary))), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[status.State]int64)
	for rows.Next() {
		var state string
		var secs int64
		if err := rows.Scan(&state, &secs); err != nil {
			return nil, err
		}
		out[status.State(state)] = secs
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
