package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/warp/placement-points/store"
)

// SaveCriterion upserts a catalog entry.
func (s *Store) SaveCriterion(ctx context.Context, c store.CriterionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO criteria (key, label) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET label = EXCLUDED.label
	`, c.Key, c.Label)
	if err != nil {
		return fmt.Errorf("failed to save criterion: %w", err)
	}
	return nil
}

// ListCriteria returns the catalog ordered by key.
func (s *Store) ListCriteria(ctx context.Context) ([]store.CriterionRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, label FROM criteria ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer rows.Close()

	var out []store.CriterionRecord
	for rows.Next() {
		var c store.CriterionRecord
		if err := rows.Scan(&c.Key, &c.Label); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating criteria: %w", err)
	}
	return out, nil
}

// SaveFlow upserts a flow and replaces its criterion rows in one transaction.
func (s *Store) SaveFlow(ctx context.Context, f store.FlowRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO flows (id, slug, name, description)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = NOW()
	`, f.ID, f.Slug, f.Name, f.Description)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", translateError(err, store.ErrSlugTaken))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM flow_criteria WHERE flow_id = $1`, f.ID); err != nil {
		return fmt.Errorf("failed to clear flow criteria: %w", err)
	}

	batch := &pgx.Batch{}
	for i, c := range f.Criteria {
		cfg := c.ConfigJSON
		if cfg == "" {
			cfg = "{}"
		}
		batch.Queue(`
			INSERT INTO flow_criteria (flow_id, criterion_key, label, enabled, config_json, position)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5::jsonb, $6)
		`, f.ID, c.CriterionKey, c.Label, c.Enabled, cfg, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save flow criteria: %w", err)
	}

	return tx.Commit(ctx)
}

// GetFlow retrieves a flow by ID. Returns nil, nil when absent.
func (s *Store) GetFlow(ctx context.Context, id string) (*store.FlowRecord, error) {
	return s.getFlow(ctx, "id", id)
}

// GetFlowBySlug retrieves a flow by slug. Returns nil, nil when absent.
func (s *Store) GetFlowBySlug(ctx context.Context, slug string) (*store.FlowRecord, error) {
	return s.getFlow(ctx, "slug", slug)
}

func (s *Store) getFlow(ctx context.Context, column, value string) (*store.FlowRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, slug, name, COALESCE(description, ''), created_at, updated_at
		FROM flows WHERE `+column+` = $1
	`, value)

	var f store.FlowRecord
	err := row.Scan(&f.ID, &f.Slug, &f.Name, &f.Description, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	f.Criteria, err = s.loadFlowCriteria(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFlows returns all flows ordered by name.
func (s *Store) ListFlows(ctx context.Context) ([]store.FlowRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, name, COALESCE(description, ''), created_at, updated_at
		FROM flows ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	var out []store.FlowRecord
	for rows.Next() {
		var f store.FlowRecord
		if err := rows.Scan(&f.ID, &f.Slug, &f.Name, &f.Description, &f.CreatedAt, &f.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		out = append(out, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	for i := range out {
		out[i].Criteria, err = s.loadFlowCriteria(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadFlowCriteria(ctx context.Context, flowID string) ([]store.FlowCriterionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT criterion_key, COALESCE(label, ''), enabled, config_json::text, position
		FROM flow_criteria WHERE flow_id = $1 ORDER BY position
	`, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow criteria: %w", err)
	}
	defer rows.Close()

	var out []store.FlowCriterionRecord
	for rows.Next() {
		var c store.FlowCriterionRecord
		if err := rows.Scan(&c.CriterionKey, &c.Label, &c.Enabled, &c.ConfigJSON, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan flow criterion: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flow criteria: %w", err)
	}
	return out, nil
}
