package scoring

import "fmt"

// WarningCode classifies an advisory warning.
type WarningCode string

const (
	WarnHoursMismatch WarningCode = "hours_mismatch"
	WarnDuplicateYear WarningCode = "duplicate_year"
)

// Warning flags suspicious input. Warnings never block scoring.
type Warning struct {
	Code      WarningCode
	YearIndex int
	Year      int
	Message   string
}

func (w Warning) String() string { return string(w.Code) + ": " + w.Message }

// Validate inspects a career history for inconsistencies worth showing
// to the user: a multi-placement year whose declared weekly load differs
// from the sum of its placements, and year labels used more than once.
func Validate(years []WorkYear) []Warning {
	var warnings []Warning

	seen := make(map[int]int, len(years))
	for i, y := range years {
		if len(y.Placements) > 1 {
			sum := placementHours(y)
			if sum != y.TotalWeeklyHours {
				warnings = append(warnings, Warning{
					Code:      WarnHoursMismatch,
					YearIndex: i,
					Year:      y.Year,
					Message: fmt.Sprintf("year %d declares %g weekly hours but its placements sum to %g",
						y.Year, y.TotalWeeklyHours, sum),
				})
			}
		}

		seen[y.Year]++
		if seen[y.Year] == 2 {
			warnings = append(warnings, Warning{
				Code:      WarnDuplicateYear,
				YearIndex: i,
				Year:      y.Year,
				Message:   fmt.Sprintf("year %d appears more than once", y.Year),
			})
		}
	}

	return warnings
}
