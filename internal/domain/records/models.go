package records

import "staffeval/internal/domain/evaluation"

// Seed carries the identity fields a new record starts with.
type Seed struct {
	Store      string `json:"store"`
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Evaluator  string `json:"evaluator"`
	Date       string `json:"date"`
}

// HistoryEntry is an index entry hydrated from its record. Entries whose
// record could not be loaded keep only the summary fields.
type HistoryEntry struct {
	evaluation.StaffSummary
	Loaded           bool   `json:"loaded"`
	TotalScore       *int   `json:"totalScore,omitempty"`
	PerformanceScore int    `json:"performanceScore,omitempty"`
	Evaluator        string `json:"evaluator,omitempty"`
	EmployeeID       string `json:"employeeId,omitempty"`
}
