package scoring

import "staffeval/internal/domain/evaluation"

// Rollup is one chart group: the summed score and ceiling of its point-scale
// items and the resulting percentage.
type Rollup struct {
	Key        string `json:"key"`
	Score      int    `json:"score"`
	Max        int    `json:"max"`
	Percentage int    `json:"percentage"`
}

// GroupRollup aggregates the items matched by include. Pure deduction items
// (negative max) have no ceiling and never enter the group.
func GroupRollup(key string, items []evaluation.Item, include func(evaluation.Item) bool) Rollup {
	r := Rollup{Key: key}
	for _, it := range items {
		if it.Max <= 0 || !include(it) {
			continue
		}
		if it.Score != nil {
			r.Score += *it.Score
		}
		r.Max += it.Max
	}
	if r.Max > 0 {
		r.Percentage = roundHalfUp(float64(r.Score) / float64(r.Max) * 100)
	}
	return r
}

func performanceRollup(key string, performanceScore int) Rollup {
	return Rollup{
		Key:        key,
		Score:      performanceScore,
		Max:        cutScoreCeiling,
		Percentage: PerformancePercentage(performanceScore),
	}
}

// AxisRollups covers the staff radar axes. The results axis has no items and
// is scaled from the performance score instead.
func AxisRollups(items []evaluation.Item, performanceScore int) []Rollup {
	out := make([]Rollup, 0, len(evaluation.ChartAxes))
	for _, axis := range evaluation.ChartAxes {
		if axis == evaluation.AxisResults {
			out = append(out, performanceRollup(string(axis), performanceScore))
			continue
		}
		a := axis
		out = append(out, GroupRollup(string(axis), items, func(it evaluation.Item) bool { return it.Axis == a }))
	}
	return out
}

func CategoryRollups(items []evaluation.Item, performanceScore int) []Rollup {
	out := make([]Rollup, 0, len(evaluation.Categories))
	for _, cat := range evaluation.Categories {
		if cat == evaluation.CategoryResults {
			out = append(out, performanceRollup(string(cat), performanceScore))
			continue
		}
		c := cat
		out = append(out, GroupRollup(string(cat), items, func(it evaluation.Item) bool { return it.Category == c }))
	}
	return out
}

// SubCategoryRollups groups one category's items by sub-category, in the order given.
func SubCategoryRollups(items []evaluation.Item, cat evaluation.Category, subCategories []string) []Rollup {
	out := make([]Rollup, 0, len(subCategories))
	for _, sub := range subCategories {
		s := sub
		out = append(out, GroupRollup(sub, items, func(it evaluation.Item) bool {
			return it.Category == cat && it.SubCategory == s
		}))
	}
	return out
}
