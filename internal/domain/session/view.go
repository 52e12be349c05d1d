package session

import (
	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/scoring"
)

// View is a copy of the session state with every derived value filled in.
type View struct {
	Mode           Mode                     `json:"mode"`
	Selected       *evaluation.StaffSummary `json:"selected,omitempty"`
	Record         *evaluation.StoredRecord `json:"record,omitempty"`
	Summary        *scoring.Summary         `json:"summary,omitempty"`
	ReadOnly       bool                     `json:"readOnly"`
	Dirty          bool                     `json:"dirty"`
	SaveError      string                   `json:"saveError,omitempty"`
	HistoryOpen    bool                     `json:"historyOpen"`
	History        []records.HistoryEntry   `json:"history,omitempty"`
	Comparison     *evaluation.StoredRecord `json:"comparison,omitempty"`
	ComparisonSum  *scoring.Summary         `json:"comparisonSummary,omitempty"`
	Unlocked       bool                     `json:"unlocked"`
	ActiveCategory evaluation.Category      `json:"activeCategory"`
	VisibleItems   []evaluation.Item        `json:"visibleItems,omitempty"`
	Print          *PrintStatus             `json:"print,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Mode:           s.mode,
		ReadOnly:       s.mode != ModeEditing,
		Dirty:          s.dirty,
		HistoryOpen:    s.historyOpen,
		Unlocked:       s.unlocked,
		ActiveCategory: s.activeCategory,
	}
	if s.selected != nil {
		sel := *s.selected
		v.Selected = &sel
	}
	if s.lastSaveErr != nil {
		v.SaveError = s.lastSaveErr.Error()
	}
	if s.history != nil {
		v.History = append([]records.HistoryEntry(nil), s.history...)
	}
	if s.printStatus != nil {
		p := *s.printStatus
		v.Print = &p
	}

	subs := s.template.SubCategories(evaluation.RestrictedCategory)
	if s.current != nil {
		rec := s.current.Clone()
		sum := scoring.Summarize(rec, subs)
		v.Record = &rec
		v.Summary = &sum
		for _, it := range rec.Items {
			if it.Category == s.activeCategory {
				v.VisibleItems = append(v.VisibleItems, it)
			}
		}
	}
	if s.comparison != nil {
		c := s.comparison.Clone()
		sum := scoring.Summarize(c, subs)
		v.Comparison = &c
		v.ComparisonSum = &sum
	}
	return v
}
