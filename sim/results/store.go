package results

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/pinsleepe/well-random/sim"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when a run ID has no stored run.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one line of the stored-run listing.
type RunSummary struct {
	RunID        string
	CreatedAt    string
	Strategy     string
	Simulations  int
	Participants int
	MaxFactors   int
	Seed         int64
	Rows         int
}

// SQLiteStore persists runs and their Result Tables in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// applies the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores header and every row of table in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, header *RunHeader, table *sim.ResultTable) error {
	if header == nil || header.RunID == "" {
		return fmt.Errorf("run header with an ID is required")
	}
	headerYAML, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling run header: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exp := header.Experiment
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, strategy, simulations, participants, max_factors, seed, header_yaml)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		header.RunID, header.CreatedAt, header.Strategy,
		exp.Simulations, exp.Participants, exp.MaxFactors, exp.Seed, string(headerYAML),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", header.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO imbalance_rows (run_id, sim_index, method, factors, factor_imbalances, max_factor_imbalance, arm_imbalance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range table.Rows() {
		if _, err := stmt.ExecContext(ctx,
			header.RunID, r.SimIndex, r.Method, r.Factors,
			joinFloats(r.FactorImbalances), r.MaxFactorImbalance, r.ArmImbalance,
		); err != nil {
			return fmt.Errorf("insert row %v: %w", r.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", header.RunID, err)
	}
	return nil
}

// LoadRun returns the header and rows of runID in insertion order.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (*RunHeader, *sim.ResultTable, error) {
	var headerYAML string
	err := s.db.QueryRowContext(ctx, `SELECT header_yaml FROM runs WHERE run_id = ?`, runID).Scan(&headerYAML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	header, err := parseHeader([]byte(headerYAML))
	if err != nil {
		return nil, nil, fmt.Errorf("stored header of %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sim_index, method, factors, factor_imbalances, max_factor_imbalance, arm_imbalance
		 FROM imbalance_rows WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query rows of %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	table := sim.NewResultTable()
	for rows.Next() {
		var (
			r          sim.ImbalanceSummary
			imbalances string
		)
		if err := rows.Scan(&r.SimIndex, &r.Method, &r.Factors, &imbalances, &r.MaxFactorImbalance, &r.ArmImbalance); err != nil {
			return nil, nil, fmt.Errorf("scan row of %s: %w", runID, err)
		}
		if r.FactorImbalances, err = splitFloats(imbalances); err != nil {
			return nil, nil, fmt.Errorf("row %v factor imbalances: %w", r.Key(), err)
		}
		if err := table.Append(r); err != nil {
			return nil, nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows of %s: %w", runID, err)
	}
	return header, table.Seal(), nil
}

// ListRuns returns every stored run, oldest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.run_id, r.created_at, r.strategy, r.simulations, r.participants, r.max_factors, r.seed,
		        (SELECT COUNT(*) FROM imbalance_rows i WHERE i.run_id = r.run_id)
		 FROM runs r ORDER BY r.created_at, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.RunID, &rs.CreatedAt, &rs.Strategy, &rs.Simulations, &rs.Participants,
			&rs.MaxFactors, &rs.Seed, &rs.Rows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
