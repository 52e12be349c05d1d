package evaluation

const (
	CategoryRelationship Category = "関係性"
	CategoryService      Category = "接客"
	CategoryTechnique    Category = "技術"
	CategoryResults      Category = "実績"
	CategoryManager      Category = "店長"

	AxisMind           Axis = "マインド"
	AxisTeamwork       Axis = "チームワーク"
	AxisServiceProcess Axis = "接客プロセス"
	AxisProposal       Axis = "提案・対応"
	AxisTechnique      Axis = "技術力"
	AxisResults        Axis = "実績"
	AxisManagerSkill   Axis = "店長スキル"

	SubCategoryComplaint = "クレーム"
	SubCategoryAccident  = "事故"

	// RestrictedCategory is hidden behind the shared unlock code.
	RestrictedCategory = CategoryManager
	DefaultCategory    = CategoryRelationship

	MonthsPerYear = 12

	// BaselinePerformanceScore is the cut score for zero production.
	BaselinePerformanceScore = 5

	CurrentSchemaVersion = 2
	LegacySchemaVersion  = 1
)

var Categories = []Category{
	CategoryRelationship,
	CategoryService,
	CategoryTechnique,
	CategoryResults,
	CategoryManager,
}

var Axes = []Axis{
	AxisMind,
	AxisTeamwork,
	AxisServiceProcess,
	AxisProposal,
	AxisTechnique,
	AxisResults,
	AxisManagerSkill,
}

// ChartAxes are the axes drawn on the staff radar; the manager axis has its own chart.
var ChartAxes = Axes[:6]

// MonthLabels follow the fiscal year, April first.
var MonthLabels = [MonthsPerYear]string{"4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月", "1月", "2月", "3月"}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) Restricted() bool {
	return c == RestrictedCategory
}

func (a Axis) Valid() bool {
	for _, known := range Axes {
		if a == known {
			return true
		}
	}
	return false
}
