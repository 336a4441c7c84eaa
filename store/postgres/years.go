package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/warp/placement-points/store"
)

const selectYears = `
	SELECT y.id, y.flow_id, f.name, f.slug, y.year, y.is_substitute, y.total_weekly_hours,
		y.substitute_months, y.has_marriage, y.children_count, y.has_synypiretisi,
		y.has_entopiotita, y.has_studies, y.has_ivf, y.has_first_preference, y.created_at
	FROM years y JOIN flows f ON f.id = y.flow_id`

// CreateYear inserts a year and its placements in one transaction.
func (s *Store) CreateYear(ctx context.Context, y store.YearRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO years (id, flow_id, year, is_substitute, total_weekly_hours, substitute_months,
			has_marriage, children_count, has_synypiretisi, has_entopiotita, has_studies,
			has_ivf, has_first_preference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, y.ID, y.FlowID, y.Year, y.IsSubstitute, y.TotalWeeklyHours, y.SubstituteMonths,
		y.HasMarriage, y.ChildrenCount, y.HasSynypiretisi, y.HasEntopiotita, y.HasStudies,
		y.HasIVF, y.HasFirstPreference)
	if err != nil {
		return fmt.Errorf("failed to insert year: %w", translateError(err, store.ErrDuplicateYear))
	}

	for _, p := range y.Placements {
		p.YearID = y.ID
		if err := insertPlacement(ctx, tx, p); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetYear retrieves a year with its placements. Returns nil, nil when absent.
func (s *Store) GetYear(ctx context.Context, id string) (*store.YearRecord, error) {
	row := s.pool.QueryRow(ctx, selectYears+` WHERE y.id = $1`, id)

	y, err := scanYear(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get year: %w", err)
	}

	y.Placements, err = s.loadPlacements(ctx, y.ID)
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// ListYears returns all stored years, latest first.
func (s *Store) ListYears(ctx context.Context) ([]store.YearRecord, error) {
	return s.queryYears(ctx, selectYears+` ORDER BY y.year DESC, y.created_at DESC`)
}

// ListYearsByFlow returns the years stored for one flow, earliest first.
func (s *Store) ListYearsByFlow(ctx context.Context, flowID string) ([]store.YearRecord, error) {
	return s.queryYears(ctx, selectYears+` WHERE y.flow_id = $1 ORDER BY y.year`, flowID)
}

func (s *Store) queryYears(ctx context.Context, query string, args ...any) ([]store.YearRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query years: %w", err)
	}

	var out []store.YearRecord
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		out = append(out, y)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating years: %w", err)
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
	tag, err := s.pool.Exec(ctx, `
		UPDATE years SET
			flow_id = $2, year = $3, is_substitute = $4, total_weekly_hours = $5,
			substitute_months = $6, has_marriage = $7, children_count = $8,
			has_synypiretisi = $9, has_entopiotita = $10, has_studies = $11,
			has_ivf = $12, has_first_preference = $13
		WHERE id = $1
	`, y.ID, y.FlowID, y.Year, y.IsSubstitute, y.TotalWeeklyHours, y.SubstituteMonths,
		y.HasMarriage, y.ChildrenCount, y.HasSynypiretisi, y.HasEntopiotita,
		y.HasStudies, y.HasIVF, y.HasFirstPreference)
	if err != nil {
		return fmt.Errorf("failed to update year: %w", translateError(err, store.ErrDuplicateYear))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteYear removes a year. Placements cascade.
func (s *Store) DeleteYear(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM years WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete year: %w", err)
	}
	return nil
}

// AddPlacement inserts a placement under an existing year.
func (s *Store) AddPlacement(ctx context.Context, p store.PlacementRecord) error {
	return insertPlacement(ctx, s.pool, p)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertPlacement(ctx context.Context, db execer, p store.PlacementRecord) error {
	_, err := db.Exec(ctx, `
		INSERT INTO placements (id, year_id, school_name, months, msd, is_prison, weekly_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.YearID, p.SchoolName, p.Months, p.MSD, p.IsPrison, p.WeeklyHours)
	if err != nil {
		return fmt.Errorf("failed to insert placement: %w", translateError(err, nil))
	}
	return nil
}

func (s *Store) loadPlacements(ctx context.Context, yearID string) ([]store.PlacementRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, year_id, school_name, months, msd, is_prison, weekly_hours, created_at
		FROM placements WHERE year_id = $1 ORDER BY seq
	`, yearID)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	defer rows.Close()

	out := []store.PlacementRecord{}
	for rows.Next() {
		var p store.PlacementRecord
		if err := rows.Scan(&p.ID, &p.YearID, &p.SchoolName, &p.Months, &p.MSD,
			&p.IsPrison, &p.WeeklyHours, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating placements: %w", err)
	}
	return out, nil
}

func scanYear(row pgx.Row) (store.YearRecord, error) {
	var y store.YearRecord
	err := row.Scan(&y.ID, &y.FlowID, &y.FlowName, &y.FlowSlug, &y.Year, &y.IsSubstitute,
		&y.TotalWeeklyHours, &y.SubstituteMonths, &y.HasMarriage, &y.ChildrenCount,
		&y.HasSynypiretisi, &y.HasEntopiotita, &y.HasStudies, &y.HasIVF,
		&y.HasFirstPreference, &y.CreatedAt)
	return y, err
}
