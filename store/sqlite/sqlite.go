/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the criterion catalog, flow definitions and the career years
  users enter in the calculator. Used by default and by the API tests
  (":memory:").

KEY TABLES:
  criteria:       Catalog (key, label)
  flows:          Placement tracks (unique slug)
  flow_criteria:  (flow, criterion) rows with enabled flag and config JSON
  years:          Stored work years, unique per (flow_id, year)
  placements:     School placements, cascade-deleted with their year

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  Opened with WAL (Write-Ahead Logging) and foreign keys enabled.

USAGE:
  st, err := sqlite.New("./points.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Interface definition
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/placement-points/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS criteria (
		key TEXT PRIMARY KEY,
		label TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS flows (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS flow_criteria (
		flow_id TEXT NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
		criterion_key TEXT NOT NULL,
		label TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		config_json TEXT NOT NULL DEFAULT '{}',
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (flow_id, criterion_key)
	);

	CREATE TABLE IF NOT EXISTS years (
		id TEXT PRIMARY KEY,
		flow_id TEXT NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		is_substitute INTEGER NOT NULL DEFAULT 0,
		total_weekly_hours REAL NOT NULL DEFAULT 0,
		substitute_months REAL NOT NULL DEFAULT 0,
		has_marriage INTEGER NOT NULL DEFAULT 0,
		children_count INTEGER NOT NULL DEFAULT 0,
		has_synypiretisi INTEGER NOT NULL DEFAULT 0,
		has_entopiotita INTEGER NOT NULL DEFAULT 0,
		has_studies INTEGER NOT NULL DEFAULT 0,
		has_ivf INTEGER NOT NULL DEFAULT 0,
		has_first_preference INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_years_flow_year
		ON years(flow_id, year);

	CREATE TABLE IF NOT EXISTS placements (
		id TEXT PRIMARY KEY,
		year_id TEXT NOT NULL REFERENCES years(id) ON DELETE CASCADE,
		school_name TEXT NOT NULL DEFAULT '',
		months REAL NOT NULL DEFAULT 0,
		msd INTEGER NOT NULL DEFAULT 1,
		is_prison INTEGER NOT NULL DEFAULT 0,
		weekly_hours REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_placements_year
		ON placements(year_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CRITERIA
// =============================================================================

// SaveCriterion upserts a catalog entry.
func (s *Store) SaveCriterion(ctx context.Context, c store.CriterionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO criteria (key, label) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET label = excluded.label
	`, c.Key, c.Label)
	return err
}

// ListCriteria returns the catalog ordered by key.
func (s *Store) ListCriteria(ctx context.Context) ([]store.CriterionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, label FROM criteria ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.CriterionRecord
	for rows.Next() {
		var c store.CriterionRecord
		if err := rows.Scan(&c.Key, &c.Label); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// FLOWS
// =============================================================================

// SaveFlow upserts a flow and replaces its criterion rows atomically.
func (s *Store) SaveFlow(ctx context.Context, f store.FlowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO flows (id, slug, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, f.ID, f.Slug, f.Name, nullString(f.Description), now, now)
	if err != nil {
		return fmt.Errorf("save flow: %w", translateError(err, store.ErrSlugTaken))
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM flow_criteria WHERE flow_id = ?", f.ID); err != nil {
		return err
	}
	for i, c := range f.Criteria {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flow_criteria (flow_id, criterion_key, label, enabled, config_json, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, f.ID, c.CriterionKey, nullString(c.Label), c.Enabled, c.ConfigJSON, i)
		if err != nil {
			return fmt.Errorf("save flow criterion %s: %w", c.CriterionKey, err)
		}
	}

	return tx.Commit()
}

// GetFlow retrieves a flow by ID.
func (s *Store) GetFlow(ctx context.Context, id string) (*store.FlowRecord, error) {
	return s.getFlow(ctx, "id", id)
}

// GetFlowBySlug retrieves a flow by slug.
func (s *Store) GetFlowBySlug(ctx context.Context, slug string) (*store.FlowRecord, error) {
	return s.getFlow(ctx, "slug", slug)
}

func (s *Store) getFlow(ctx context.Context, column, value string) (*store.FlowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var f store.FlowRecord
	var desc sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, name, description, created_at, updated_at FROM flows WHERE "+column+" = ?",
		value,
	).Scan(&f.ID, &f.Slug, &f.Name, &desc, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f.Description = desc.String
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	f.Criteria, err = s.loadFlowCriteria(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFlows returns all flows ordered by name.
func (s *Store) ListFlows(ctx context.Context) ([]store.FlowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, slug, name, description, created_at, updated_at FROM flows ORDER BY name",
	)
	if err != nil {
		return nil, err
	}

	var out []store.FlowRecord
	for rows.Next() {
		var f store.FlowRecord
		var desc sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&f.ID, &f.Slug, &f.Name, &desc, &createdAt, &updatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		f.Description = desc.String
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Criteria, err = s.loadFlowCriteria(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// loadFlowCriteria expects the caller to hold the lock.
func (s *Store) loadFlowCriteria(ctx context.Context, flowID string) ([]store.FlowCriterionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT criterion_key, label, enabled, config_json, position
		FROM flow_criteria WHERE flow_id = ? ORDER BY position
	`, flowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.FlowCriterionRecord
	for rows.Next() {
		var c store.FlowCriterionRecord
		var label sql.NullString
		if err := rows.Scan(&c.CriterionKey, &label, &c.Enabled, &c.ConfigJSON, &c.Position); err != nil {
			return nil, err
		}
		c.Label = label.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// YEARS
// =============================================================================

const yearColumns = `
	y.id, y.flow_id, f.name, f.slug, y.year, y.is_substitute, y.total_weekly_hours,
	y.substitute_months, y.has_marriage, y.children_count, y.has_synypiretisi,
	y.has_entopiotita, y.has_studies, y.has_ivf, y.has_first_preference, y.created_at`

// CreateYear stores a new year and its placements.
func (s *Store) CreateYear(ctx context.Context, y store.YearRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO years (id, flow_id, year, is_substitute, total_weekly_hours, substitute_months,
			has_marriage, children_count, has_synypiretisi, has_entopiotita, has_studies,
			has_ivf, has_first_preference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, y.ID, y.FlowID, y.Year, y.IsSubstitute, y.TotalWeeklyHours, y.SubstituteMonths,
		y.HasMarriage, y.ChildrenCount, y.HasSynypiretisi, y.HasEntopiotita, y.HasStudies,
		y.HasIVF, y.HasFirstPreference, now)
	if err != nil {
		return translateError(err, store.ErrDuplicateYear)
	}

	for _, p := range y.Placements {
		p.YearID = y.ID
		if err := insertPlacement(ctx, tx, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetYear retrieves a year with its placements.
func (s *Store) GetYear(ctx context.Context, id string) (*store.YearRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+yearColumns+" FROM years y JOIN flows f ON f.id = y.flow_id WHERE y.id = ?", id)

	y, err := scanYear(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	y.Placements, err = s.loadPlacements(ctx, y.ID)
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// ListYears returns all stored years, latest first.
func (s *Store) ListYears(ctx context.Context) ([]store.YearRecord, error) {
	return s.queryYears(ctx,
		"SELECT "+yearColumns+" FROM years y JOIN flows f ON f.id = y.flow_id ORDER BY y.year DESC, y.created_at DESC")
}

// ListYearsByFlow returns the years stored for one flow, earliest first.
func (s *Store) ListYearsByFlow(ctx context.Context, flowID string) ([]store.YearRecord, error) {
	return s.queryYears(ctx,
		"SELECT "+yearColumns+" FROM years y JOIN flows f ON f.id = y.flow_id WHERE y.flow_id = ? ORDER BY y.year",
		flowID)
}

func (s *Store) queryYears(ctx context.Context, query string, args ...any) ([]store.YearRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var out []store.YearRecord
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, y)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Placements, err = s.loadPlacements(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateYear overwrites a year's fields. Placements are not touched.
func (s *Store) UpdateYear(ctx context.Context, y store.YearRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE years SET
			flow_id = ?, year = ?, is_substitute = ?, total_weekly_hours = ?, substitute_months = ?,
			has_marriage = ?, children_count = ?, has_synypiretisi = ?, has_entopiotita = ?,
			has_studies = ?, has_ivf = ?, has_first_preference = ?
		WHERE id = ?
	`, y.FlowID, y.Year, y.IsSubstitute, y.TotalWeeklyHours, y.SubstituteMonths,
		y.HasMarriage, y.ChildrenCount, y.HasSynypiretisi, y.HasEntopiotita,
		y.HasStudies, y.HasIVF, y.HasFirstPreference, y.ID)
	if err != nil {
		return translateError(err, store.ErrDuplicateYear)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteYear removes a year and its placements.
func (s *Store) DeleteYear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM years WHERE id = ?", id)
	return err
}

// =============================================================================
// PLACEMENTS
// =============================================================================

// AddPlacement stores a placement under an existing year.
func (s *Store) AddPlacement(ctx context.Context, p store.PlacementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertPlacement(ctx, s.db, p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPlacement(ctx context.Context, db execer, p store.PlacementRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO placements (id, year_id, school_name, months, msd, is_prison, weekly_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.YearID, p.SchoolName, p.Months, p.MSD, p.IsPrison, p.WeeklyHours,
		time.Now().UTC().Format(time.RFC3339))
	return translateError(err, nil)
}

// loadPlacements expects the caller to hold the lock.
func (s *Store) loadPlacements(ctx context.Context, yearID string) ([]store.PlacementRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year_id, school_name, months, msd, is_prison, weekly_hours, created_at
		FROM placements WHERE year_id = ? ORDER BY created_at, rowid
	`, yearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.PlacementRecord{}
	for rows.Next() {
		var p store.PlacementRecord
		var createdAt string
		if err := rows.Scan(&p.ID, &p.YearID, &p.SchoolName, &p.Months, &p.MSD,
			&p.IsPrison, &p.WeeklyHours, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM placements;
		DELETE FROM years;
		DELETE FROM flow_criteria;
		DELETE FROM flows;
		DELETE FROM criteria;
	`)
	return err
}

// Helper functions

type scanner interface {
	Scan(dest ...any) error
}

func scanYear(row scanner) (store.YearRecord, error) {
	var y store.YearRecord
	var createdAt string
	err := row.Scan(&y.ID, &y.FlowID, &y.FlowName, &y.FlowSlug, &y.Year, &y.IsSubstitute,
		&y.TotalWeeklyHours, &y.SubstituteMonths, &y.HasMarriage, &y.ChildrenCount,
		&y.HasSynypiretisi, &y.HasEntopiotita, &y.HasStudies, &y.HasIVF,
		&y.HasFirstPreference, &createdAt)
	if err != nil {
		return y, err
	}
	y.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return y, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// translateError maps constraint violations onto store errors. A unique
// violation becomes onUnique when it is set; primary key clashes are left
// as they are.
func translateError(err error, onUnique error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		if onUnique != nil {
			return fmt.Errorf("%w: %v", onUnique, err)
		}
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return err
}
