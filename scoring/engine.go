package scoring

// =============================================================================
// ENGINE - Composes the evaluators into a result
// =============================================================================

// Input is everything one evaluation needs.
type Input struct {
	Flow  Flow
	Years []WorkYear
	Flags Flags
}

// YearScore is the hardship contribution of a single work year.
// Seniority is a whole-career figure and is never included here.
type YearScore struct {
	Index    int // position in Input.Years
	YearID   string
	Year     int
	Hardship float64
}

// Result is the breakdown of a score.
type Result struct {
	Total     float64
	OneTime   float64
	Seniority float64
	Hardship  float64
	Years     []YearScore
	Warnings  []Warning
}

// Engine evaluates placement scores. The zero value is ready to use and
// holds no state.
type Engine struct{}

// Score computes the total and per-year breakdown:
//
//	Total = Σ hardship(year) + one-time points + seniority points
func (Engine) Score(in Input) Result {
	criteria := in.Flow.CriteriaSet()
	supportsSubstitute := in.Flow.Slug.SupportsSubstitute()

	hardship := HardshipPoints(criteria, in.Years, supportsSubstitute)

	result := Result{
		OneTime:   OneTimePoints(criteria, in.Flags),
		Seniority: SeniorityPoints(in.Flow.Slug, criteria, in.Years),
		Years:     make([]YearScore, len(in.Years)),
		Warnings:  Validate(in.Years),
	}

	for i, y := range in.Years {
		result.Years[i] = YearScore{
			Index:    i,
			YearID:   y.ID,
			Year:     y.Year,
			Hardship: hardship[i],
		}
		result.Hardship += hardship[i]
	}

	result.Total = result.Hardship + result.OneTime + result.Seniority
	return result
}

// HardshipByYear groups the per-year breakdown by year label for display.
// Years sharing a label are summed.
func (r Result) HardshipByYear() map[int]float64 {
	out := make(map[int]float64, len(r.Years))
	for _, ys := range r.Years {
		out[ys.Year] += ys.Hardship
	}
	return out
}
