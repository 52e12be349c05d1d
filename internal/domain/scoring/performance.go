package scoring

import (
	"math"

	"staffeval/internal/domain/evaluation"
)

const (
	cutBaseline     = 6000
	cutScoreFloor   = 5
	cutScoreBase    = 15
	cutScoreStep    = 100
	cutScoreCeiling = 50
	daysPerMonth    = 30.5
)

// Metrics is the year-end forecast derived from monthly cut counts.
type Metrics struct {
	CurrentTotal   int `json:"currentTotal"`
	Average        int `json:"average"`
	EmptyCount     int `json:"emptyCount"`
	PredictedTotal int `json:"predictedTotal"`
}

// PerformanceMetrics computes the forecast. The running total ignores
// exclusion flags; the average only uses months with a positive count that are
// not excluded; every zero month, excluded or not, is filled with the average.
func PerformanceMetrics(monthlyCuts []int, excluded []bool) Metrics {
	var m Metrics
	validSum, validCount := 0, 0
	for i, raw := range monthlyCuts {
		count := max(raw, 0)
		m.CurrentTotal += count
		if count == 0 {
			m.EmptyCount++
			continue
		}
		if i < len(excluded) && excluded[i] {
			continue
		}
		validSum += count
		validCount++
	}
	if validCount > 0 {
		m.Average = roundHalfUp(float64(validSum) / float64(validCount))
	}
	m.PredictedTotal = m.CurrentTotal + m.Average*m.EmptyCount
	return m
}

// CutScore maps an annual cut count to 5..50 points. Crossing the baseline
// jumps from 5 to 15; every further 100 cuts adds a point.
func CutScore(cuts int) int {
	if cuts < cutBaseline {
		return cutScoreFloor
	}
	return min(cutScoreBase+(cuts-cutBaseline)/cutScoreStep, cutScoreCeiling)
}

func PerformanceScore(p evaluation.PerformanceData) int {
	m := PerformanceMetrics(p.MonthlyCuts, p.ExcludedFromAverage)
	return CutScore(m.PredictedTotal)
}

func GoalScore(p evaluation.PerformanceData) int {
	return CutScore(p.GoalCuts)
}

// GoalAchievement is the forecast as a percentage of the annual goal.
func GoalAchievement(m Metrics, goalCuts int) int {
	if goalCuts <= 0 {
		return 0
	}
	return roundHalfUp(float64(m.PredictedTotal) / float64(goalCuts) * 100)
}

// CutsPerDay is the productivity display: the monthly average (or the goal
// spread over the year while no month is entered) over contracted work days.
func CutsPerDay(m Metrics, p evaluation.PerformanceData) float64 {
	workDays := math.Max(0, daysPerMonth-float64(p.MonthlyHolidays))
	if workDays == 0 {
		return 0
	}
	basis := float64(m.Average)
	if m.Average <= 0 {
		basis = float64(p.GoalCuts) / evaluation.MonthsPerYear
	}
	return math.Round(basis/workDays*10) / 10
}

// PerformancePercentage scales the performance score onto the 0..100 chart range.
func PerformancePercentage(performanceScore int) int {
	return min(100, roundHalfUp(float64(performanceScore)/cutScoreCeiling*100))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
