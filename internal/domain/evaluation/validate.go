package evaluation

import (
	"slices"
	"time"
)

const DateLayout = "2006-01-02"

// IncidentTracked reports whether the item's score comes from its incident list.
func (it Item) IncidentTracked() bool {
	return it.SubCategory == SubCategoryComplaint || it.SubCategory == SubCategoryAccident
}

// AcceptsScore reports whether score is inside the item's valid range.
// A nil score (unscored) is always acceptable.
func (it Item) AcceptsScore(score *int) bool {
	if score == nil {
		return true
	}
	v := *score
	if len(it.ValidScores) > 0 {
		return slices.Contains(it.ValidScores, v)
	}
	if it.Max < 0 {
		return v >= it.Max && v <= 0
	}
	return v >= 0 && v <= it.Max
}

func (inc Incident) Valid() bool {
	return inc.Deduction <= 0 && inc.Improvement >= 0
}

func ValidEmployeeID(id string) bool {
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// ValidDate accepts an empty date or YYYY-MM-DD.
func ValidDate(raw string) bool {
	if raw == "" {
		return true
	}
	_, err := time.Parse(DateLayout, raw)
	return err == nil
}

// Valid reports whether p can be applied as-is: exactly twelve monthly slots,
// no negative counts.
func (p PerformanceData) Valid() bool {
	if len(p.MonthlyCuts) != MonthsPerYear || len(p.ExcludedFromAverage) != MonthsPerYear {
		return false
	}
	for _, c := range p.MonthlyCuts {
		if c < 0 {
			return false
		}
	}
	return p.GoalCuts >= 0 && p.MonthlyHolidays >= 0
}
