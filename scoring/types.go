/*
Package scoring provides the placement points engine.

PURPOSE:
  Turns a flow's criterion configuration plus a career history into a
  point total for an educator applying to a placement track (new
  appointment, transfer, secondment). The total is broken down into
  one-time bonuses, seniority points and hardship-index (MSD) points.

KEY CONCEPTS IN THIS FILE (types.go):
  - Flow: a placement track with its enabled criteria
  - WorkYear / Placement: the caller-supplied career history
  - Flags: one-time personal-status answers (marriage, children, ...)

PURITY:
  Nothing in this package performs I/O, logs, or keeps state between
  calls. Every evaluation is a function of its inputs only, so the same
  Input always yields a bit-identical Result and callers may evaluate
  concurrently without coordination.

USAGE:
  flow := flows.Transfer()
  result := scoring.Engine{}.Score(scoring.Input{
      Flow:  flow,
      Years: years,
      Flags: scoring.Flags{HasMarriage: true, ChildrenCount: 2},
  })
  fmt.Println(result.Total, result.Seniority)

SEE ALSO:
  - config.go: Per-criterion configuration variants
  - engine.go: The orchestrator
  - hardship.go: MSD evaluator
*/
package scoring

import "strings"

// =============================================================================
// FLOW - Placement track
// =============================================================================

// Slug identifies a placement track and selects track-specific formulas.
type Slug string

const (
	SlugNewAppointee Slug = "new-appointee"
	SlugTransfer     Slug = "transfer"
	SlugSecondment   Slug = "secondment"
)

// Track names used by earlier exports of the calculator.
var slugAliases = map[string]Slug{
	"neodioristos": SlugNewAppointee,
	"metathesi":    SlugTransfer,
	"apospasi":     SlugSecondment,
}

// CanonicalSlug maps legacy track names onto the canonical slugs.
// Unknown slugs are returned unchanged.
func CanonicalSlug(s string) Slug {
	s = strings.TrimSpace(strings.ToLower(s))
	if alias, ok := slugAliases[s]; ok {
		return alias
	}
	return Slug(s)
}

// SupportsSubstitute reports whether the track distinguishes substitute
// from permanent years. All other tracks treat every year as permanent.
func (s Slug) SupportsSubstitute() bool {
	switch CanonicalSlug(string(s)) {
	case SlugTransfer, SlugSecondment:
		return true
	}
	return false
}

// Flow is a placement track. A criterion is enabled for the flow iff it
// appears in Criteria.
type Flow struct {
	ID          string
	Slug        Slug
	Name        string
	Description string
	Criteria    []FlowCriterion
}

// FlowCriterion binds a catalog criterion to its configuration for one flow.
type FlowCriterion struct {
	Criterion Criterion
	Config    Config
}

// CriteriaSet builds the key -> configuration lookup for the flow.
// When a key appears twice the last entry wins.
func (f Flow) CriteriaSet() CriteriaSet {
	set := make(CriteriaSet, len(f.Criteria))
	for _, fc := range f.Criteria {
		if fc.Config == nil {
			continue
		}
		set[fc.Config.Key()] = fc.Config
	}
	return set
}

// Enabled reports whether the criterion key is configured for the flow.
func (f Flow) Enabled(key Key) bool {
	for _, fc := range f.Criteria {
		if fc.Config != nil && fc.Config.Key() == key {
			return true
		}
	}
	return false
}

// =============================================================================
// CAREER HISTORY
// =============================================================================

// WorkYear is one school year of service.
type WorkYear struct {
	ID               string
	Year             int // label only, never used in arithmetic
	IsSubstitute     bool
	TotalWeeklyHours float64 // nominal full load
	SubstituteMonths float64 // 0-10
	Placements       []Placement
}

// Placement is service at a single school within a work year.
type Placement struct {
	SchoolName  string
	Months      float64
	MSD         int // hardship index, 1-14
	IsPrison    bool
	WeeklyHours float64
}

// substitute reports whether the year is scored as a substitute year
// under a flow with the given substitute support.
func (y WorkYear) substitute(supportsSubstitute bool) bool {
	return supportsSubstitute && y.IsSubstitute
}

// =============================================================================
// ONE-TIME FLAGS
// =============================================================================

// Flags are the personal-status answers scored once per request.
type Flags struct {
	HasMarriage        bool
	ChildrenCount      int
	HasSynypiretisi    bool
	HasEntopiotita     bool
	HasStudies         bool
	HasIVF             bool
	HasFirstPreference bool
}
