package evaluation

type Category string

type Axis string

type Incident struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Desc        string `json:"desc"`
	Deduction   int    `json:"deduction"`
	Improvement int    `json:"improvement"`
}

type Item struct {
	No          int            `json:"no"`
	Category    Category       `json:"category"`
	SubCategory string         `json:"subCategory"`
	Item        string         `json:"item"`
	Axis        Axis           `json:"axis"`
	Max         int            `json:"max"`
	Score       *int           `json:"score"`
	Desc        string         `json:"desc"`
	PointDesc   string         `json:"pointDesc,omitempty"`
	Criteria    map[int]string `json:"criteria,omitempty"`
	ValidScores []int          `json:"validScores,omitempty"`
	Memo        string         `json:"memo,omitempty"`
	Incidents   []Incident     `json:"incidents,omitempty"`
}

type PerformanceData struct {
	MonthlyCuts         []int  `json:"monthlyCuts"`
	ExcludedFromAverage []bool `json:"excludedFromAverage"`
	GoalCuts            int    `json:"goalCuts"`
	GoalScore           int    `json:"goalScore"`
	MonthlyHolidays     int    `json:"monthlyHolidays"`
}

type Metadata struct {
	ID          string          `json:"id"`
	Store       string          `json:"store"`
	Name        string          `json:"name"`
	EmployeeID  string          `json:"employeeId"`
	Evaluator   string          `json:"evaluator"`
	Date        string          `json:"date"`
	UpdatedAt   int64           `json:"updatedAt"`
	Performance PerformanceData `json:"performance"`
}

// StoredRecord is the persisted unit for one evaluation session.
type StoredRecord struct {
	SchemaVersion    int      `json:"schemaVersion,omitempty"`
	Metadata         Metadata `json:"metadata"`
	Items            []Item   `json:"items"`
	PerformanceScore int      `json:"performanceScore"`
}

type StaffSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Store     string `json:"store"`
	Date      string `json:"date"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (s StaffSummary) SameStaff(name, store string) bool {
	return s.Name == name && s.Store == store
}

func (r StoredRecord) Summary() StaffSummary {
	return StaffSummary{
		ID:        r.Metadata.ID,
		Name:      r.Metadata.Name,
		Store:     r.Metadata.Store,
		Date:      r.Metadata.Date,
		UpdatedAt: r.Metadata.UpdatedAt,
	}
}

// Clone returns a deep copy; item state of the copy never aliases the source.
func (r StoredRecord) Clone() StoredRecord {
	out := r
	out.Metadata.Performance = r.Metadata.Performance.Clone()
	out.Items = CloneItems(r.Items)
	return out
}

func (p PerformanceData) Clone() PerformanceData {
	out := p
	if p.MonthlyCuts != nil {
		out.MonthlyCuts = append([]int(nil), p.MonthlyCuts...)
	}
	if p.ExcludedFromAverage != nil {
		out.ExcludedFromAverage = append([]bool(nil), p.ExcludedFromAverage...)
	}
	return out
}

func (it Item) Clone() Item {
	out := it
	if it.Score != nil {
		score := *it.Score
		out.Score = &score
	}
	if it.Criteria != nil {
		out.Criteria = make(map[int]string, len(it.Criteria))
		for k, v := range it.Criteria {
			out.Criteria[k] = v
		}
	}
	if it.ValidScores != nil {
		out.ValidScores = append([]int(nil), it.ValidScores...)
	}
	if it.Incidents != nil {
		out.Incidents = append([]Incident(nil), it.Incidents...)
	}
	return out
}

func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// IntPtr is a small helper for building nullable scores.
func IntPtr(v int) *int {
	return &v
}
