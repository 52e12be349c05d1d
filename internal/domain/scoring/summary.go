package scoring

import "staffeval/internal/domain/evaluation"

// Summary bundles every derived value the chart, print and export
// collaborators read for one record.
type Summary struct {
	Metrics             Metrics                     `json:"metrics"`
	PerformanceScore    int                         `json:"performanceScore"`
	GoalScore           int                         `json:"goalScore"`
	GoalAchievement     int                         `json:"goalAchievement"`
	CutsPerDay          float64                     `json:"cutsPerDay"`
	ItemTotal           int                         `json:"itemTotal"`
	TotalScore          int                         `json:"totalScore"`
	SheetTotal          int                         `json:"sheetTotal"`
	CategoryTotals      map[evaluation.Category]int `json:"categoryTotals"`
	Axes                []Rollup                    `json:"axes"`
	Categories          []Rollup                    `json:"categories"`
	RestrictedBreakdown []Rollup                    `json:"restrictedBreakdown"`
	RestrictedScored    bool                        `json:"restrictedScored"`
}

// Summarize derives the summary of rec. restrictedSubCategories orders the
// restricted category breakdown; pass nil to skip it.
func Summarize(rec evaluation.StoredRecord, restrictedSubCategories []string) Summary {
	perf := rec.Metadata.Performance
	m := PerformanceMetrics(perf.MonthlyCuts, perf.ExcludedFromAverage)

	totals := make(map[evaluation.Category]int, len(evaluation.Categories))
	for _, cat := range evaluation.Categories {
		totals[cat] = CategoryTotal(rec.Items, cat)
	}

	return Summary{
		Metrics:             m,
		PerformanceScore:    rec.PerformanceScore,
		GoalScore:           GoalScore(perf),
		GoalAchievement:     GoalAchievement(m, perf.GoalCuts),
		CutsPerDay:          CutsPerDay(m, perf),
		ItemTotal:           ItemTotal(rec.Items),
		TotalScore:          TotalScore(rec.Items, rec.PerformanceScore),
		SheetTotal:          SheetTotal(rec.Items, rec.PerformanceScore),
		CategoryTotals:      totals,
		Axes:                AxisRollups(rec.Items, rec.PerformanceScore),
		Categories:          CategoryRollups(rec.Items, rec.PerformanceScore),
		RestrictedBreakdown: SubCategoryRollups(rec.Items, evaluation.RestrictedCategory, restrictedSubCategories),
		RestrictedScored:    AnyScored(rec.Items, evaluation.RestrictedCategory),
	}
}
