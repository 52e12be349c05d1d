package scoring

import "staffeval/internal/domain/evaluation"

// IncidentScore nets deductions against improvement credit. The result never
// exceeds 0; an empty list scores 0.
func IncidentScore(incidents []evaluation.Incident) int {
	total := 0
	for _, inc := range incidents {
		total += inc.Deduction + inc.Improvement
	}
	return min(0, total)
}

func ItemTotal(items []evaluation.Item) int {
	total := 0
	for _, it := range items {
		if it.Score != nil {
			total += *it.Score
		}
	}
	return total
}

// TotalScore is every item score (unscored counts 0) plus the performance score.
func TotalScore(items []evaluation.Item, performanceScore int) int {
	return ItemTotal(items) + performanceScore
}

// CategoryTotal sums the scores of one category.
func CategoryTotal(items []evaluation.Item, cat evaluation.Category) int {
	total := 0
	for _, it := range items {
		if it.Category == cat && it.Score != nil {
			total += *it.Score
		}
	}
	return total
}

// SheetTotal is the printed total: the three staff categories plus performance.
// The restricted category is reported separately.
func SheetTotal(items []evaluation.Item, performanceScore int) int {
	return CategoryTotal(items, evaluation.CategoryRelationship) +
		CategoryTotal(items, evaluation.CategoryService) +
		CategoryTotal(items, evaluation.CategoryTechnique) +
		performanceScore
}

// AnyScored reports whether some item of cat carries a score.
func AnyScored(items []evaluation.Item, cat evaluation.Category) bool {
	for _, it := range items {
		if it.Category == cat && it.Score != nil {
			return true
		}
	}
	return false
}
