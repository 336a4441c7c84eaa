package store

import (
	"context"
	"fmt"

	"github.com/warp/placement-points/factory"
	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/scoring"
)

// disabledRows are criteria configured for a preset but switched off.
// They are stored so an admin can enable them without retyping values.
var disabledRows = map[string][]scoring.Config{
	flows.IDNewAppointee: {scoring.MSDConfig{PerYear: true}},
}

// Seed upserts the criterion catalog and the preset flows. It is safe to
// run repeatedly.
func Seed(ctx context.Context, s Store) error {
	for _, c := range scoring.Catalog() {
		if err := s.SaveCriterion(ctx, CriterionRecord{Key: string(c.Key), Label: c.Label}); err != nil {
			return fmt.Errorf("seed criterion %s: %w", c.Key, err)
		}
	}

	for _, flow := range flows.All() {
		rec, err := FlowRecordFromFlow(flow)
		if err != nil {
			return err
		}
		for _, cfg := range disabledRows[flow.ID] {
			row, err := disabledRow(cfg, len(rec.Criteria))
			if err != nil {
				return err
			}
			rec.Criteria = append(rec.Criteria, row)
		}
		if err := s.SaveFlow(ctx, rec); err != nil {
			return fmt.Errorf("seed flow %s: %w", flow.Slug, err)
		}
	}
	return nil
}

func disabledRow(cfg scoring.Config, position int) (FlowCriterionRecord, error) {
	raw, err := factory.EncodeConfig(cfg)
	if err != nil {
		return FlowCriterionRecord{}, err
	}
	c, _ := scoring.LookupCriterion(cfg.Key())
	return FlowCriterionRecord{
		CriterionKey: string(cfg.Key()),
		Label:        c.Label,
		Enabled:      false,
		ConfigJSON:   string(raw),
		Position:     position,
	}, nil
}
