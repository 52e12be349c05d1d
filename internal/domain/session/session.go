package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/records"
	"staffeval/internal/domain/reports"
	"staffeval/internal/platform/debounce"
)

const (
	DefaultAutosaveDelay = 500 * time.Millisecond
	DefaultPrintDelay    = time.Second
)

type Options struct {
	AutosaveDelay time.Duration
	PrintDelay    time.Duration
	Printer       Printer
	Gate          Verifier
	Metrics       Recorder
}

// Session is the single active evaluation session. Every public method
// takes mu; timer callbacks take it too, so edits, autosaves and
// navigation never interleave.
type Session struct {
	store    Store
	template *evaluation.Template
	printer  Printer
	gate     Verifier
	metrics  Recorder

	mu        sync.Mutex
	autosave  *debounce.Timer
	printTime *debounce.Timer

	mode           Mode
	selected       *evaluation.StaffSummary
	current        *evaluation.StoredRecord
	dirty          bool
	historyOpen    bool
	history        []records.HistoryEntry
	comparison     *evaluation.StoredRecord
	unlocked       bool
	activeCategory evaluation.Category
	lastSaveErr    error

	pendingPrint []reports.Sheet
	printStatus  *PrintStatus
}

func New(store Store, opts Options) *Session {
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = DefaultAutosaveDelay
	}
	if opts.PrintDelay < 0 {
		opts.PrintDelay = DefaultPrintDelay
	}
	s := &Session{
		store:          store,
		template:       store.Template(),
		printer:        opts.Printer,
		gate:           opts.Gate,
		metrics:        opts.Metrics,
		mode:           ModeBrowsing,
		activeCategory: evaluation.DefaultCategory,
	}
	s.autosave = debounce.New(opts.AutosaveDelay, s.autosaveFired)
	s.printTime = debounce.New(opts.PrintDelay, s.printFired)
	return s
}

// SelectStaff opens the action menu for one staff member.
func (s *Session) SelectStaff(summary evaluation.StaffSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeBrowsing && s.mode != ModeMenu {
		return ErrInvalidTransition
	}
	sel := summary
	s.selected = &sel
	s.mode = ModeMenu
	return nil
}

// Back returns from the staff menu to the listing.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeMenu {
		return ErrInvalidTransition
	}
	s.resetLocked()
	return nil
}

// Resume edits the selected staff member's latest record.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeMenu {
		return ErrInvalidTransition
	}
	rec, ok := s.store.LatestForStaff(ctx, s.selected.Name, s.selected.Store)
	if !ok {
		return ErrNoRecord
	}
	s.enterLocked(ModeEditing, rec)
	return nil
}

// StartNew creates a record for the selected staff member and edits it.
func (s *Session) StartNew(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeMenu {
		return ErrInvalidTransition
	}
	rec, err := s.store.CreateFromSummary(ctx, *s.selected)
	if err != nil {
		return err
	}
	s.enterLocked(ModeEditing, rec)
	return nil
}

// CreateBlank creates an unseeded record straight from the listing.
func (s *Session) CreateBlank(ctx context.Context, seed *records.Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeBrowsing {
		return ErrInvalidTransition
	}
	rec, err := s.store.CreateRecord(ctx, seed)
	if err != nil {
		return err
	}
	sum := rec.Summary()
	s.selected = &sum
	s.enterLocked(ModeEditing, rec)
	return nil
}

// OpenHistory shows the selected staff member's latest record read-only
// with the history list open.
func (s *Session) OpenHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeMenu {
		return ErrInvalidTransition
	}
	history, err := s.store.ListHistory(ctx, s.selected.Name, s.selected.Store)
	if err != nil {
		return err
	}
	var rec evaluation.StoredRecord
	found := false
	for _, h := range history {
		if rec, found = s.store.LoadRecord(ctx, h.ID); found {
			break
		}
	}
	if !found {
		return ErrNoRecord
	}
	s.enterLocked(ModeViewing, rec)
	s.historyOpen = true
	s.history = history
	return nil
}

// SelectHistory displays another past record read-only. From the editor,
// pending edits are flushed first.
func (s *Session) SelectHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeViewing && s.mode != ModeEditing {
		return ErrInvalidTransition
	}
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	rec, ok := s.store.LoadRecord(ctx, id)
	if !ok {
		return records.ErrNotFound
	}
	if s.history == nil || s.current == nil || !sameStaff(*s.current, rec) {
		history, err := s.store.ListHistory(ctx, rec.Metadata.Name, rec.Metadata.Store)
		if err != nil {
			return err
		}
		s.history = history
	}
	comparison, history := s.comparison, s.history
	s.enterLocked(ModeViewing, rec)
	s.comparison = comparison
	s.history = history
	s.historyOpen = true
	return nil
}

// RequestEdit turns the displayed record editable once confirmed.
func (s *Session) RequestEdit(confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeViewing {
		return ErrInvalidTransition
	}
	if !confirmed {
		return records.ErrNotConfirmed
	}
	s.mode = ModeEditing
	s.historyOpen = false
	return nil
}

// Leave returns to the listing. Pending edits are saved first; if that
// save fails the session stays in the editor.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeBrowsing {
		return nil
	}
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	s.resetLocked()
	return nil
}

// Reload saves pending edits, then drops every in-memory record, the
// category unlock and any scheduled print. If the save fails nothing is
// dropped.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	s.reloadLocked()
	return nil
}

// Close flushes pending edits and stops both timers.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.flushLocked(ctx)
	s.printTime.Cancel()
	return err
}

// DeleteRecord removes a record. Deleting the active record discards its
// pending autosave and returns to the listing. A failed delete leaves the
// active record and its unsaved edits in place.
func (s *Session) DeleteRecord(ctx context.Context, id string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !confirmed {
		return records.ErrNotConfirmed
	}
	active := s.current != nil && s.current.Metadata.ID == id
	if err := s.store.DeleteRecord(ctx, id, true); err != nil {
		if active && s.dirty {
			s.autosave.Trigger()
		}
		return err
	}
	if active {
		s.autosave.Cancel()
		s.resetLocked()
		return nil
	}
	if s.comparison != nil && s.comparison.Metadata.ID == id {
		s.comparison = nil
	}
	if s.historyOpen && s.current != nil {
		history, err := s.store.ListHistory(ctx, s.current.Metadata.Name, s.current.Metadata.Store)
		if err != nil {
			slog.Warn("history refresh failed", "err", err)
		} else {
			s.history = history
		}
	}
	return nil
}

// ImportAll saves pending edits, overwrites the store from blob and
// reloads so no pre-import state survives.
func (s *Session) ImportAll(ctx context.Context, blob []byte, confirmed bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !confirmed {
		return 0, records.ErrNotConfirmed
	}
	if err := s.flushLocked(ctx); err != nil {
		return 0, err
	}
	n, err := s.store.ImportAll(ctx, blob, true)
	if err != nil {
		return 0, err
	}
	s.reloadLocked()
	return n, nil
}

// Compare pins a snapshot of another record next to the active one.
func (s *Session) Compare(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrInvalidTransition
	}
	snap, ok := s.store.SnapshotForComparison(ctx, id)
	if !ok {
		return records.ErrNotFound
	}
	s.comparison = &snap
	return nil
}

func (s *Session) ClearComparison() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparison = nil
}

// SetActiveCategory switches the visible item subset. The restricted
// category answers with a challenge until the session is unlocked.
func (s *Session) SetActiveCategory(cat evaluation.Category) (CategoryOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !cat.Valid() {
		return "", ErrUnknownCategory
	}
	if cat.Restricted() && !s.unlocked {
		return CategoryChallenge, nil
	}
	s.activeCategory = cat
	return CategorySwitched, nil
}

// Unlock opens the restricted category for the rest of the session.
func (s *Session) Unlock(code string) CategoryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil || !s.gate.Verify(code) {
		return CategoryRejected
	}
	s.unlocked = true
	s.activeCategory = evaluation.RestrictedCategory
	return CategorySwitched
}

// Lock hides the restricted category again.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = false
	if s.activeCategory.Restricted() {
		s.activeCategory = evaluation.DefaultCategory
	}
}

// Save persists pending edits now.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return ErrInvalidTransition
	}
	return s.flushLocked(ctx)
}

func (s *Session) enterLocked(mode Mode, rec evaluation.StoredRecord) {
	s.mode = mode
	s.current = &rec
	s.dirty = false
	s.lastSaveErr = nil
	s.historyOpen = false
	s.history = nil
	s.comparison = nil
	if s.selected == nil || !s.selected.SameStaff(rec.Metadata.Name, rec.Metadata.Store) {
		sum := rec.Summary()
		s.selected = &sum
	}
}

func (s *Session) resetLocked() {
	s.mode = ModeBrowsing
	s.selected = nil
	s.current = nil
	s.dirty = false
	s.lastSaveErr = nil
	s.historyOpen = false
	s.history = nil
	s.comparison = nil
}

// reloadLocked is resetLocked plus the state a fresh session starts
// without: the category unlock and any scheduled print.
func (s *Session) reloadLocked() {
	s.resetLocked()
	s.unlocked = false
	s.activeCategory = evaluation.DefaultCategory
	s.printTime.Cancel()
	s.pendingPrint = nil
	s.printStatus = nil
}

// flushLocked cancels the autosave timer and writes pending edits.
func (s *Session) flushLocked(ctx context.Context) error {
	s.autosave.Cancel()
	if s.mode != ModeEditing || !s.dirty {
		return nil
	}
	return s.saveLocked(ctx)
}

func (s *Session) saveLocked(ctx context.Context) error {
	rec := s.current
	summary, err := s.store.SaveRecord(ctx, rec.Metadata.ID, rec.Metadata, rec.Items, rec.PerformanceScore)
	if s.metrics != nil {
		s.metrics.RecordSave(err)
	}
	if err != nil {
		s.lastSaveErr = err
		slog.Warn("record save failed", "id", rec.Metadata.ID, "err", err)
		return err
	}
	rec.Metadata.UpdatedAt = summary.UpdatedAt
	s.dirty = false
	s.lastSaveErr = nil
	return nil
}

func (s *Session) autosaveFired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing || !s.dirty {
		return
	}
	_ = s.saveLocked(context.Background())
}

func (s *Session) markDirtyLocked() {
	s.dirty = true
	s.autosave.Trigger()
}

func sameStaff(a, b evaluation.StoredRecord) bool {
	return a.Metadata.Name == b.Metadata.Name && a.Metadata.Store == b.Metadata.Store
}
