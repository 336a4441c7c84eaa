package store

import (
	"context"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/warp/placement-points/factory"
	"github.com/warp/placement-points/scoring"
)

// =============================================================================
// FLOW CONVERSIONS
// =============================================================================

// FlowJSON converts a stored flow to its JSON form, keeping disabled rows.
func (f FlowRecord) FlowJSON() factory.FlowJSON {
	rows := append([]FlowCriterionRecord(nil), f.Criteria...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	fj := factory.FlowJSON{
		ID:           f.ID,
		Slug:         f.Slug,
		Name:         f.Name,
		Description:  f.Description,
		FlowCriteria: make([]factory.FlowCriterionJSON, 0, len(rows)),
	}
	for _, r := range rows {
		enabled := r.Enabled
		row := factory.FlowCriterionJSON{
			Criterion: factory.CriterionJSON{Key: r.CriterionKey, Label: r.Label},
			Enabled:   &enabled,
		}
		if r.ConfigJSON != "" {
			row.Config = json.RawMessage(r.ConfigJSON)
		}
		fj.FlowCriteria = append(fj.FlowCriteria, row)
	}
	return fj
}

// Flow converts a stored flow to a scoring flow. Disabled rows are dropped.
func (f FlowRecord) Flow() (scoring.Flow, error) {
	return factory.NewFlowFactory().FromJSON(f.FlowJSON())
}

// FlowRecordFromJSON converts a JSON flow definition into a record.
func FlowRecordFromJSON(fj factory.FlowJSON) FlowRecord {
	rec := FlowRecord{
		ID:          fj.ID,
		Slug:        string(scoring.CanonicalSlug(fj.Slug)),
		Name:        fj.Name,
		Description: fj.Description,
	}
	for i, row := range fj.FlowCriteria {
		label := row.Criterion.Label
		if label == "" {
			if c, ok := scoring.LookupCriterion(scoring.Key(row.Criterion.Key)); ok {
				label = c.Label
			}
		}
		cfg := "{}"
		if len(row.Config) > 0 {
			cfg = string(row.Config)
		}
		rec.Criteria = append(rec.Criteria, FlowCriterionRecord{
			CriterionKey: row.Criterion.Key,
			Label:        label,
			Enabled:      row.IsEnabled(),
			ConfigJSON:   cfg,
			Position:     i,
		})
	}
	return rec
}

// FlowRecordFromFlow converts a scoring flow into a record.
func FlowRecordFromFlow(flow scoring.Flow) (FlowRecord, error) {
	fj, err := factory.NewFlowFactory().ToJSON(flow)
	if err != nil {
		return FlowRecord{}, fmt.Errorf("flow %s: %w", flow.ID, err)
	}
	return FlowRecordFromJSON(fj), nil
}

// =============================================================================
// YEAR CONVERSIONS
// =============================================================================

// WorkYear converts a stored year to a scoring work year.
func (y YearRecord) WorkYear() scoring.WorkYear {
	wy := scoring.WorkYear{
		ID:               y.ID,
		Year:             y.Year,
		IsSubstitute:     y.IsSubstitute,
		TotalWeeklyHours: y.TotalWeeklyHours,
		SubstituteMonths: y.SubstituteMonths,
		Placements:       make([]scoring.Placement, len(y.Placements)),
	}
	for i, p := range y.Placements {
		wy.Placements[i] = scoring.Placement{
			SchoolName:  p.SchoolName,
			Months:      p.Months,
			MSD:         p.MSD,
			IsPrison:    p.IsPrison,
			WeeklyHours: p.WeeklyHours,
		}
	}
	return wy
}

// Flags returns the one-time answers stored with the year.
func (y YearRecord) Flags() scoring.Flags {
	return scoring.Flags{
		HasMarriage:        y.HasMarriage,
		ChildrenCount:      y.ChildrenCount,
		HasSynypiretisi:    y.HasSynypiretisi,
		HasEntopiotita:     y.HasEntopiotita,
		HasStudies:         y.HasStudies,
		HasIVF:             y.HasIVF,
		HasFirstPreference: y.HasFirstPreference,
	}
}

// History converts stored years into a career history ordered by year
// label ascending. The one-time answers come from the latest year.
func History(years []YearRecord) ([]scoring.WorkYear, scoring.Flags) {
	sorted := append([]YearRecord(nil), years...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	out := make([]scoring.WorkYear, len(sorted))
	for i, y := range sorted {
		out[i] = y.WorkYear()
	}

	var flags scoring.Flags
	if len(sorted) > 0 {
		flags = sorted[len(sorted)-1].Flags()
	}
	return out, flags
}

// =============================================================================
// LOOKUP
// =============================================================================

// LookupFlow finds a stored flow by id, then by slug. Legacy slugs are
// accepted. It returns nil when neither matches.
func LookupFlow(ctx context.Context, s Store, ref string) (*FlowRecord, error) {
	rec, err := s.GetFlow(ctx, ref)
	if err != nil || rec != nil {
		return rec, err
	}
	return s.GetFlowBySlug(ctx, string(scoring.CanonicalSlug(ref)))
}
