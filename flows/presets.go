/*
Package flows provides the ready-made placement tracks.

PURPOSE:
  Ready-to-use flow definitions for the three placement tracks, with the
  point values of the current regulations. The seeder stores them and the
  CLI scores offline against them when no database is given.

AVAILABLE FLOWS:
  NewAppointee (new-appointee):
    - Personal-status bonuses only, plus proypiresia at 2/year
    - Seniority is never scored for this track
    - No hardship (msd) scoring

  Transfer (transfer):
    - Personal-status bonuses and first preference
    - Seniority at a flat 2.5/year
    - Hardship scoring with dysprosita doubling (threshold 10) and +5 for prisons
    - Substitute years supported

  Secondment (secondment):
    - Personal-status bonuses, studies and IVF; higher child points
    - Seniority bracketed at x1 / x1.5 / x2 (<=10, <=20, >20 years)
    - Substitute years supported

EXAMPLE:
  flow := flows.Transfer()
  result := scoring.Engine{}.Score(scoring.Input{Flow: flow, Years: years})

SEE ALSO:
  - scoring/config.go: Configuration variants
  - factory/flow.go: JSON form of these flows
*/
package flows

import (
	"github.com/warp/placement-points/scoring"
)

// Stable IDs of the preset flows.
const (
	IDNewAppointee = "flow-1"
	IDTransfer     = "flow-2"
	IDSecondment   = "flow-3"
)

// =============================================================================
// NEW APPOINTEE
// =============================================================================

// NewAppointee is the first-year appointment track.
func NewAppointee() scoring.Flow {
	return scoring.Flow{
		ID:          IDNewAppointee,
		Slug:        scoring.SlugNewAppointee,
		Name:        "Νεοδιόριστος (1η χρονιά)",
		Description: "Ροή 1",
		Criteria: criteria(
			scoring.MarriageConfig{Points: 4},
			scoring.ChildrenConfig{First: 4, Second: 4, Third: 6, FourthPlus: 7},
			scoring.SynypiretisiConfig{Points: 4},
			scoring.EntopiotitaConfig{Points: 2},
			scoring.ProypiresiaConfig{PerYear: 2},
		),
	}
}

// =============================================================================
// TRANSFER
// =============================================================================

// Transfer is the transfer / permanent placement track.
func Transfer() scoring.Flow {
	return scoring.Flow{
		ID:          IDTransfer,
		Slug:        scoring.SlugTransfer,
		Name:        "Μετάθεση / Οριστική Τοποθέτηση",
		Description: "Ροή 2",
		Criteria: criteria(
			scoring.MarriageConfig{Points: 4},
			scoring.ChildrenConfig{First: 4, Second: 4, Third: 6, FourthPlus: 7},
			scoring.SynypiretisiConfig{Points: 4},
			scoring.EntopiotitaConfig{Points: 2},
			scoring.ProypiresiaConfig{PerYear: 2.5},
			scoring.MSDConfig{PerYear: true},
			scoring.DysprositaConfig{Threshold: 10, DoublesMSD: true},
			scoring.PrisonsConfig{ExtraMSD: 5},
			scoring.FirstPreferenceConfig{Points: 2},
		),
	}
}

// =============================================================================
// SECONDMENT
// =============================================================================

// Secondment is the secondment track.
func Secondment() scoring.Flow {
	return scoring.Flow{
		ID:          IDSecondment,
		Slug:        scoring.SlugSecondment,
		Name:        "Απόσπαση",
		Description: "Ροή 3",
		Criteria: criteria(
			scoring.MarriageConfig{Points: 4},
			scoring.ChildrenConfig{First: 5, Second: 6, Third: 8, FourthPlus: 10},
			scoring.SynypiretisiConfig{Points: 4},
			scoring.EntopiotitaConfig{Points: 2},
			scoring.ProypiresiaConfig{PerYear: 2},
			scoring.StudiesConfig{Points: 2},
			scoring.IVFConfig{Points: 3},
		),
	}
}

// =============================================================================
// LOOKUP
// =============================================================================

// All returns the preset flows in display order.
func All() []scoring.Flow {
	return []scoring.Flow{NewAppointee(), Transfer(), Secondment()}
}

// Find returns the preset whose ID or slug matches ref. Legacy slugs are
// accepted.
func Find(ref string) (scoring.Flow, bool) {
	slug := scoring.CanonicalSlug(ref)
	for _, f := range All() {
		if f.ID == ref || f.Slug == slug {
			return f, true
		}
	}
	return scoring.Flow{}, false
}

// criteria attaches catalog labels to a list of configurations.
func criteria(configs ...scoring.Config) []scoring.FlowCriterion {
	out := make([]scoring.FlowCriterion, 0, len(configs))
	for _, c := range configs {
		crit, ok := scoring.LookupCriterion(c.Key())
		if !ok {
			crit = scoring.Criterion{Key: c.Key(), Label: string(c.Key())}
		}
		out = append(out, scoring.FlowCriterion{Criterion: crit, Config: c})
	}
	return out
}
