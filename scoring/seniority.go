package scoring

// =============================================================================
// SENIORITY - Whole-career duration points
// =============================================================================

const (
	transferRatePerYear = 2.5

	secondmentLowerBracket = 10.0 // years, inclusive
	secondmentUpperBracket = 20.0 // years, inclusive
)

// ServiceMonths totals the months of service across the career.
// Substitute years count their SubstituteMonths; all other years count
// the sum of their placements' Months. A year with no placements counts
// nothing, whatever its declared SubstituteMonths.
func ServiceMonths(years []WorkYear, supportsSubstitute bool) float64 {
	var months float64
	for _, y := range years {
		if len(y.Placements) == 0 {
			continue
		}
		if y.substitute(supportsSubstitute) {
			months += y.SubstituteMonths
			continue
		}
		for _, p := range y.Placements {
			months += p.Months
		}
	}
	return months
}

// SeniorityPoints converts total service into a single point value using
// the track's formula. The new-appointee track never scores seniority.
func SeniorityPoints(slug Slug, criteria CriteriaSet, years []WorkYear) float64 {
	slug = CanonicalSlug(string(slug))
	if slug == SlugNewAppointee {
		return 0
	}

	totalYears := ServiceMonths(years, slug.SupportsSubstitute()) / 12

	switch slug {
	case SlugTransfer:
		return totalYears * transferRatePerYear
	case SlugSecondment:
		return totalYears * secondmentMultiplier(totalYears)
	}

	cfg, _ := criteria.Proypiresia()
	return cfg.PerYear * totalYears
}

// secondmentMultiplier applies to the whole total, not marginally.
func secondmentMultiplier(totalYears float64) float64 {
	switch {
	case totalYears <= secondmentLowerBracket:
		return 1
	case totalYears <= secondmentUpperBracket:
		return 1.5
	default:
		return 2
	}
}
