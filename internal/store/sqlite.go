package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/bionet/internal/cell"
	"github.com/nvandessel/bionet/internal/network"
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (or creates) the run journal at dbPath.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteRunStore) Path() string { return s.dbPath }

// SaveRun stores a record and its cells and edges in one transaction,
// replacing any record with the same ID.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(&rec)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, rec.ID); err != nil {
		return "", fmt.Errorf("failed to replace run: %w", err)
	}

	c := rec.Config
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, protocol, created_at, cells, max_degree, edges, seed,
			adjacent_sites, max_rounds, rounds, decided, winners, losers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Protocol, rec.CreatedAt.UTC().Format(timeLayout),
		c.Cells, c.MaxDegree, c.Edges, int64(c.Seed), c.AdjacentSites, c.MaxRounds,
		rec.Rounds, boolToInt(rec.Decided), rec.Winners, rec.Losers)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, st := range rec.Statuses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_cells (run_id, cell_id, status) VALUES (?, ?, ?)`,
			rec.ID, st.ID, string(st.Status)); err != nil {
			return "", fmt.Errorf("failed to insert cell %d: %w", st.ID, err)
		}
	}

	for i, e := range rec.Topology {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_edges (run_id, seq, a, b) VALUES (?, ?, ?, ?)`,
			rec.ID, i, e.A, e.B); err != nil {
			return "", fmt.Errorf("failed to insert edge %d-%d: %w", e.A, e.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return rec.ID, nil
}

// timeLayout is fixed-width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = `id, protocol, created_at, cells, max_degree, edges, seed,
	adjacent_sites, max_rounds, rounds, decided, winners, losers`

// GetRun retrieves a record by ID. Returns nil if not found.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := s.loadDetails(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRuns returns records newest first, with cells and topology.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	rows.Close()

	// Details are loaded after the cursor is closed: the pool has one connection.
	for i := range out {
		if err := s.loadDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteRun removes a record along with its cells and edges.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		rec       RunRecord
		createdAt string
		seed      int64
		decided   int
	)
	err := row.Scan(&rec.ID, &rec.Protocol, &createdAt,
		&rec.Config.Cells, &rec.Config.MaxDegree, &rec.Config.Edges, &seed,
		&rec.Config.AdjacentSites, &rec.Config.MaxRounds,
		&rec.Rounds, &decided, &rec.Winners, &rec.Losers)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Config.Seed = uint64(seed)
	rec.Decided = decided != 0
	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return RunRecord{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

func (s *SQLiteRunStore) loadDetails(ctx context.Context, rec *RunRecord) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cell_id, status FROM run_cells WHERE run_id = ? ORDER BY cell_id`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load cells: %w", err)
	}
	for rows.Next() {
		var st network.CellStatus
		var status string
		if err := rows.Scan(&st.ID, &status); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan cell: %w", err)
		}
		st.Status = cell.Status(status)
		rec.Statuses = append(rec.Statuses, st)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT a, b FROM run_edges WHERE run_id = ? ORDER BY seq`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e network.Edge
		if err := rows.Scan(&e.A, &e.B); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		rec.Topology = append(rec.Topology, e)
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
