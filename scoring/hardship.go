/*
hardship.go - Hardship-index (MSD) evaluator

PURPOSE:
  Computes, for every work year, the weighted hardship points of that
  year's placements. Only runs when the flow enables the msd criterion.

BASE VALUE (shared by both branches):
  val = placement.MSD
  if MSD >= dysprosita threshold (default 10) and doublesMsd: val *= 2
  if placement is a prison school and prisons.extraMsd != 0:  val += extraMsd

SUBSTITUTE YEARS:
  Each placement contributes its share of the nominal weekly load:
    (weeklyHours / totalWeeklyHours) * val * m * (substituteMonths / 12)
  where m = 2 for MSD in [10, 14]. Shares are NOT renormalised, so a year
  whose placements cover fewer hours than the nominal load scores less.

PERMANENT YEARS:
  Weights are relative to the sum of the placements' weekly hours.
  A year whose placements are all MSD >= 10 is "high hardship". Its points
  are doubled when at least one other permanent year in the career is also
  high hardship. The years need not be adjacent.

SEE ALSO:
  - engine.go: Adds the per-year values to the total
*/
package scoring

const (
	defaultDysprositaThreshold = 10
	highHardshipMSD            = 10
	maxHardshipMSD             = 14
)

// hardshipRules is the resolved msd-related configuration of a flow.
type hardshipRules struct {
	threshold  float64
	doublesMSD bool
	extraMSD   float64
}

func newHardshipRules(criteria CriteriaSet) hardshipRules {
	dys, _ := criteria.Dysprosita()
	prisons, _ := criteria.Prisons()

	threshold := dys.Threshold
	if threshold == 0 {
		threshold = defaultDysprositaThreshold
	}
	return hardshipRules{
		threshold:  threshold,
		doublesMSD: dys.DoublesMSD,
		extraMSD:   prisons.ExtraMSD,
	}
}

// baseValue applies the dysprosita and prison adjustments to a placement.
func (r hardshipRules) baseValue(p Placement) float64 {
	val := float64(p.MSD)
	if float64(p.MSD) >= r.threshold && r.doublesMSD {
		val *= 2
	}
	if p.IsPrison && r.extraMSD != 0 {
		val += r.extraMSD
	}
	return val
}

// HardshipPoints returns the hardship points of each year, in input order.
// All values are zero when msd is not enabled.
func HardshipPoints(criteria CriteriaSet, years []WorkYear, supportsSubstitute bool) []float64 {
	points := make([]float64, len(years))
	if _, ok := criteria.MSD(); !ok {
		return points
	}

	rules := newHardshipRules(criteria)
	qualifying := highHardshipYears(years, supportsSubstitute)

	for i, y := range years {
		if y.substitute(supportsSubstitute) {
			points[i] = substituteYearHardship(rules, y)
			continue
		}

		multiplier := 1.0
		if qualifying[i] && countOthers(qualifying, i) > 0 {
			multiplier = 2
		}
		points[i] = permanentYearHardship(rules, y, multiplier)
	}
	return points
}

func substituteYearHardship(rules hardshipRules, y WorkYear) float64 {
	if y.TotalWeeklyHours <= 0 {
		return 0
	}

	monthsFactor := y.SubstituteMonths / 12
	var total float64
	for _, p := range y.Placements {
		multiplier := 1.0
		if p.MSD >= highHardshipMSD && p.MSD <= maxHardshipMSD {
			multiplier = 2
		}
		share := p.WeeklyHours / y.TotalWeeklyHours
		total += share * rules.baseValue(p) * multiplier * monthsFactor
	}
	return total
}

func permanentYearHardship(rules hardshipRules, y WorkYear, multiplier float64) float64 {
	hours := placementHours(y)

	var total float64
	for _, p := range y.Placements {
		weighted := rules.baseValue(p)
		if hours > 0 {
			weighted = p.WeeklyHours / hours * rules.baseValue(p)
		}
		total += weighted * multiplier
	}
	return total
}

// highHardshipYears marks the permanent years whose placements all have
// MSD >= 10. Years without placements never qualify.
func highHardshipYears(years []WorkYear, supportsSubstitute bool) []bool {
	out := make([]bool, len(years))
	for i, y := range years {
		if y.substitute(supportsSubstitute) {
			continue
		}
		out[i] = allSchoolsHighMSD(y)
	}
	return out
}

func allSchoolsHighMSD(y WorkYear) bool {
	if len(y.Placements) == 0 {
		return false
	}
	for _, p := range y.Placements {
		if p.MSD < highHardshipMSD {
			return false
		}
	}
	return true
}

func countOthers(flags []bool, self int) int {
	n := 0
	for i, f := range flags {
		if f && i != self {
			n++
		}
	}
	return n
}

func placementHours(y WorkYear) float64 {
	var hours float64
	for _, p := range y.Placements {
		hours += p.WeeklyHours
	}
	return hours
}
