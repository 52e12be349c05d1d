package session

import (
	"github.com/google/uuid"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/scoring"
)

// Identity is the editable header of a record.
type Identity struct {
	Store      string `json:"store"`
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Evaluator  string `json:"evaluator"`
	Date       string `json:"date"`
}

// The mutation methods below report whether the change was applied. They
// refuse silently outside the editor, for unknown items, for out-of-range
// values and for restricted items while the session is locked.

func (s *Session) UpdateItemScore(no int, score *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.editableItemLocked(no)
	if it == nil || it.IncidentTracked() || !it.AcceptsScore(score) {
		return false
	}
	if score != nil {
		v := *score
		score = &v
	}
	it.Score = score
	s.markDirtyLocked()
	return true
}

func (s *Session) UpdateItemMemo(no int, memo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.editableItemLocked(no)
	if it == nil {
		return false
	}
	it.Memo = memo
	s.markDirtyLocked()
	return true
}

// UpdateItemIncidents replaces the incident list of an incident-tracked item
// and re-derives its score. Incidents without an id get one.
func (s *Session) UpdateItemIncidents(no int, incidents []evaluation.Incident) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.editableItemLocked(no)
	if it == nil || !it.IncidentTracked() {
		return false
	}
	list := make([]evaluation.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if !inc.Valid() {
			return false
		}
		if inc.ID == "" {
			inc.ID = uuid.NewString()
		}
		list = append(list, inc)
	}
	it.Incidents = list
	it.Score = evaluation.IntPtr(scoring.IncidentScore(list))
	s.markDirtyLocked()
	return true
}

// UpdatePerformanceData replaces the monthly data and recomputes the
// performance and goal scores.
func (s *Session) UpdatePerformanceData(p evaluation.PerformanceData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing || !p.Valid() {
		return false
	}
	p = p.Clone()
	p.GoalScore = scoring.GoalScore(p)
	s.current.Metadata.Performance = p
	s.current.PerformanceScore = scoring.PerformanceScore(p)
	s.markDirtyLocked()
	return true
}

func (s *Session) UpdateMetadata(id Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing || !evaluation.ValidEmployeeID(id.EmployeeID) || !evaluation.ValidDate(id.Date) {
		return false
	}
	meta := &s.current.Metadata
	meta.Store = id.Store
	meta.Name = id.Name
	meta.EmployeeID = id.EmployeeID
	meta.Evaluator = id.Evaluator
	meta.Date = id.Date
	sum := s.current.Summary()
	s.selected = &sum
	s.markDirtyLocked()
	return true
}

// ResetCategory clears one category after confirmation. The results
// category zeroes the monthly cuts and restores the baseline score;
// any other category drops scores, memos and incidents.
func (s *Session) ResetCategory(cat evaluation.Category, confirmed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !confirmed || s.mode != ModeEditing || !cat.Valid() {
		return false
	}
	if cat.Restricted() && !s.unlocked {
		return false
	}
	if cat == evaluation.CategoryResults {
		perf := &s.current.Metadata.Performance
		perf.MonthlyCuts = make([]int, evaluation.MonthsPerYear)
		s.current.PerformanceScore = evaluation.BaselinePerformanceScore
		s.markDirtyLocked()
		return true
	}
	for i := range s.current.Items {
		it := &s.current.Items[i]
		if it.Category != cat {
			continue
		}
		it.Score = nil
		if it.IncidentTracked() {
			it.Score = evaluation.IntPtr(0)
		}
		it.Memo = ""
		it.Incidents = nil
	}
	s.markDirtyLocked()
	return true
}

func (s *Session) editableItemLocked(no int) *evaluation.Item {
	if s.mode != ModeEditing {
		return nil
	}
	for i := range s.current.Items {
		it := &s.current.Items[i]
		if it.No != no {
			continue
		}
		if it.Category.Restricted() && !s.unlocked {
			return nil
		}
		return it
	}
	return nil
}
