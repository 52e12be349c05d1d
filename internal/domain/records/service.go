package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/domain/scoring"
	"staffeval/internal/platform/kv"
)

// Service owns the staff index and the per-record keys. Index and record
// writes always land in one kv batch.
type Service struct {
	kv       kv.Store
	template *evaluation.Template
	now      func() time.Time
	newID    func() (string, error)

	// mu serializes index read-modify-write cycles.
	mu sync.Mutex
}

func NewService(store kv.Store, template *evaluation.Template) *Service {
	return &Service{
		kv:       store,
		template: template,
		now:      time.Now,
		newID:    newRecordID,
	}
}

// newRecordID is time-ordered with a random tail, so ids never collide
// within a millisecond.
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Service) Template() *evaluation.Template {
	return s.template
}

func (s *Service) ListStaff(ctx context.Context) ([]evaluation.StaffSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndex(ctx)
}

// CreateRecord writes a fresh unscored record and prepends it to the index.
func (s *Service) CreateRecord(ctx context.Context, seed *Seed) (evaluation.StoredRecord, error) {
	id, err := s.newID()
	if err != nil {
		return evaluation.StoredRecord{}, fmt.Errorf("generate record id: %w", err)
	}
	now := s.now()
	rec := evaluation.StoredRecord{
		SchemaVersion: evaluation.CurrentSchemaVersion,
		Metadata: evaluation.Metadata{
			ID:          id,
			Date:        now.Format(evaluation.DateLayout),
			UpdatedAt:   now.UnixMilli(),
			Performance: evaluation.DefaultPerformance(),
		},
		Items:            s.template.NewItems(),
		PerformanceScore: evaluation.BaselinePerformanceScore,
	}
	if seed != nil {
		rec.Metadata.Store = seed.Store
		rec.Metadata.Name = seed.Name
		rec.Metadata.EmployeeID = seed.EmployeeID
		rec.Metadata.Evaluator = seed.Evaluator
		if seed.Date != "" {
			rec.Metadata.Date = seed.Date
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index, err := s.loadIndex(ctx)
	if err != nil {
		return evaluation.StoredRecord{}, err
	}
	index = append([]evaluation.StaffSummary{rec.Summary()}, index...)

	rOp, err := recordOp(rec)
	if err != nil {
		return evaluation.StoredRecord{}, err
	}
	iOp, err := indexOp(index)
	if err != nil {
		return evaluation.StoredRecord{}, err
	}
	if err := s.kv.Apply(ctx, rOp, iOp); err != nil {
		return evaluation.StoredRecord{}, fmt.Errorf("create record: %w", err)
	}
	return rec.Clone(), nil
}

// CreateFromSummary starts a new record for the staff member in summary,
// carrying employee id and evaluator forward from their latest record.
func (s *Service) CreateFromSummary(ctx context.Context, summary evaluation.StaffSummary) (evaluation.StoredRecord, error) {
	seed := &Seed{Store: summary.Store, Name: summary.Name}
	prior, ok := s.LatestForStaff(ctx, summary.Name, summary.Store)
	if !ok && summary.ID != "" {
		prior, ok = s.LoadRecord(ctx, summary.ID)
	}
	if ok {
		seed.EmployeeID = prior.Metadata.EmployeeID
		seed.Evaluator = prior.Metadata.Evaluator
	}
	return s.CreateRecord(ctx, seed)
}

// LatestForStaff returns the most recently updated loadable record for name+store.
func (s *Service) LatestForStaff(ctx context.Context, name, store string) (evaluation.StoredRecord, bool) {
	index, err := s.ListStaff(ctx)
	if err != nil {
		slog.Warn("list staff failed", "err", err)
		return evaluation.StoredRecord{}, false
	}
	for _, entry := range index {
		if !entry.SameStaff(name, store) {
			continue
		}
		if rec, ok := s.LoadRecord(ctx, entry.ID); ok {
			return rec, true
		}
	}
	return evaluation.StoredRecord{}, false
}

// LoadRecord returns the stored record for id. Absent ids, backend errors
// and corrupt JSON all yield false; failures are logged.
func (s *Service) LoadRecord(ctx context.Context, id string) (evaluation.StoredRecord, bool) {
	raw, ok, err := s.kv.Get(ctx, RecordKey(id))
	if err != nil {
		slog.Warn("load record failed", "id", id, "err", err)
		return evaluation.StoredRecord{}, false
	}
	if !ok {
		return evaluation.StoredRecord{}, false
	}
	rec, err := evaluation.DecodeRecord([]byte(raw))
	if err != nil {
		slog.Warn("stored record corrupt", "id", id, "err", err)
		return evaluation.StoredRecord{}, false
	}
	if rec.Metadata.ID == "" {
		rec.Metadata.ID = id
	}
	normalizeItems(rec.Items)
	return rec, true
}

// normalizeItems drops out-of-range scores and re-derives incident-tracked scores.
func normalizeItems(items []evaluation.Item) {
	for i := range items {
		it := &items[i]
		if it.IncidentTracked() {
			it.Score = evaluation.IntPtr(scoring.IncidentScore(it.Incidents))
			continue
		}
		if !it.AcceptsScore(it.Score) {
			slog.Warn("dropping out-of-range score", "no", it.No, "score", *it.Score)
			it.Score = nil
		}
	}
}

// SaveRecord persists the record and refreshes its index entry in one batch.
// The returned summary carries the stamped updatedAt.
func (s *Service) SaveRecord(ctx context.Context, id string, meta evaluation.Metadata, items []evaluation.Item, performanceScore int) (evaluation.StaffSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex(ctx)
	if err != nil {
		return evaluation.StaffSummary{}, err
	}

	stamp := max(s.now().UnixMilli(), meta.UpdatedAt)
	pos := indexOf(index, id)
	if pos >= 0 {
		stamp = max(stamp, index[pos].UpdatedAt)
	}

	meta.ID = id
	meta.UpdatedAt = stamp
	meta.Performance = meta.Performance.Clone()
	rec := evaluation.StoredRecord{
		SchemaVersion:    evaluation.CurrentSchemaVersion,
		Metadata:         meta,
		Items:            evaluation.CloneItems(items),
		PerformanceScore: performanceScore,
	}

	summary := rec.Summary()
	if pos >= 0 {
		index[pos] = summary
	} else {
		index = append(index, summary)
	}
	sortIndex(index)

	rOp, err := recordOp(rec)
	if err != nil {
		return evaluation.StaffSummary{}, err
	}
	iOp, err := indexOp(index)
	if err != nil {
		return evaluation.StaffSummary{}, err
	}
	if err := s.kv.Apply(ctx, rOp, iOp); err != nil {
		return evaluation.StaffSummary{}, fmt.Errorf("save record %s: %w", id, err)
	}
	return summary, nil
}

// DeleteRecord removes the record and its index entry together.
func (s *Service) DeleteRecord(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	pos := indexOf(index, id)
	if pos < 0 {
		_, exists, err := s.kv.Get(ctx, RecordKey(id))
		if err != nil {
			return fmt.Errorf("read record %s: %w", id, err)
		}
		if !exists {
			return ErrNotFound
		}
	} else {
		index = slices.Delete(index, pos, pos+1)
	}

	iOp, err := indexOp(index)
	if err != nil {
		return err
	}
	if err := s.kv.Apply(ctx, kv.Delete(RecordKey(id)), iOp); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// ListHistory returns every record of name+store, newest first, with totals.
func (s *Service) ListHistory(ctx context.Context, name, store string) ([]HistoryEntry, error) {
	index, err := s.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	out := []HistoryEntry{}
	for _, entry := range index {
		if !entry.SameStaff(name, store) {
			continue
		}
		h := HistoryEntry{StaffSummary: entry}
		if rec, ok := s.LoadRecord(ctx, entry.ID); ok {
			total := scoring.TotalScore(rec.Items, rec.PerformanceScore)
			h.Loaded = true
			h.TotalScore = &total
			h.PerformanceScore = rec.PerformanceScore
			h.Evaluator = rec.Metadata.Evaluator
			h.EmployeeID = rec.Metadata.EmployeeID
		}
		out = append(out, h)
	}
	return out, nil
}

// SnapshotForComparison returns an independent copy of the record for id.
func (s *Service) SnapshotForComparison(ctx context.Context, id string) (evaluation.StoredRecord, bool) {
	rec, ok := s.LoadRecord(ctx, id)
	if !ok {
		return evaluation.StoredRecord{}, false
	}
	return rec.Clone(), true
}

// AllRecords loads every indexed record in index order, skipping failures.
func (s *Service) AllRecords(ctx context.Context) ([]evaluation.StoredRecord, error) {
	index, err := s.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]evaluation.StoredRecord, 0, len(index))
	for _, entry := range index {
		if rec, ok := s.LoadRecord(ctx, entry.ID); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ExportAll copies every key under the namespace.
func (s *Service) ExportAll(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.kv.Scan(ctx, Namespace)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return entries, nil
}

// ImportAll overwrites every namespaced key present in blob, a JSON object
// of key to string. Non-string values are stored as their JSON text and keys
// outside the namespace are ignored. It returns the number of keys written.
func (s *Service) ImportAll(ctx context.Context, blob []byte, confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}
	var bundle map[string]json.RawMessage
	if err := json.Unmarshal(blob, &bundle); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	ops := make([]kv.Op, 0, len(bundle))
	for key, raw := range bundle {
		if !strings.HasPrefix(key, Namespace) {
			slog.Warn("ignoring key outside namespace", "key", key)
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			value = string(raw)
		}
		ops = append(ops, kv.Put(key, value))
	}
	if len(ops) == 0 {
		return 0, fmt.Errorf("%w: no keys under %s", ErrInvalidBundle, Namespace)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Apply(ctx, ops...); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	return len(ops), nil
}
