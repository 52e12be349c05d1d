package session

import (
	"context"
	"log/slog"
	"time"

	"staffeval/internal/domain/records"
	"staffeval/internal/domain/reports"
)

// PrintStatus tracks the most recent print request.
type PrintStatus struct {
	State       string         `json:"state"`
	Pages       int            `json:"pages"`
	RequestedAt time.Time      `json:"requestedAt"`
	Result      reports.Result `json:"result"`
	Error       string         `json:"error,omitempty"`
}

// PrintCurrent snapshots the displayed record (and comparison) and
// schedules one render.
func (s *Session) PrintCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrInvalidTransition
	}
	sheet := reports.NewSheet(*s.current, s.comparison, s.template)
	return s.scheduleLocked([]reports.Sheet{sheet})
}

// PrintBatch snapshots every indexed record, with pending edits saved first.
func (s *Session) PrintBatch(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !confirmed {
		return records.ErrNotConfirmed
	}
	if s.printer == nil {
		return ErrPrintUnavailable
	}
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	recs, err := s.store.AllRecords(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return reports.ErrNothingToPrint
	}
	sheets := make([]reports.Sheet, 0, len(recs))
	for _, rec := range recs {
		sheets = append(sheets, reports.NewSheet(rec, nil, s.template))
	}
	return s.scheduleLocked(sheets)
}

func (s *Session) scheduleLocked(sheets []reports.Sheet) error {
	if s.printer == nil {
		return ErrPrintUnavailable
	}
	s.pendingPrint = sheets
	s.printStatus = &PrintStatus{State: PrintScheduled, Pages: len(sheets), RequestedAt: time.Now()}
	s.printTime.Trigger()
	return nil
}

func (s *Session) printFired() {
	s.mu.Lock()
	sheets := s.pendingPrint
	s.pendingPrint = nil
	status := s.printStatus
	s.mu.Unlock()
	if len(sheets) == 0 || status == nil {
		return
	}

	res, err := s.printer.Print(context.Background(), sheets)
	if s.metrics != nil {
		s.metrics.RecordPrint(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printStatus != status {
		return
	}
	done := *status
	if err != nil {
		slog.Warn("print failed", "pages", len(sheets), "err", err)
		done.State = PrintFailed
		done.Error = err.Error()
	} else {
		done.State = PrintCompleted
		done.Result = res
	}
	s.printStatus = &done
}
