package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"staffeval/internal/domain/evaluation"
	"staffeval/internal/platform/kv"
)

func sortIndex(index []evaluation.StaffSummary) {
	sort.SliceStable(index, func(i, j int) bool {
		return index[i].UpdatedAt > index[j].UpdatedAt
	})
}

func indexOp(index []evaluation.StaffSummary) (kv.Op, error) {
	if index == nil {
		index = []evaluation.StaffSummary{}
	}
	data, err := json.Marshal(index)
	if err != nil {
		return kv.Op{}, fmt.Errorf("encode index: %w", err)
	}
	return kv.Put(IndexKey, string(data)), nil
}

func recordOp(rec evaluation.StoredRecord) (kv.Op, error) {
	data, err := evaluation.EncodeRecord(rec)
	if err != nil {
		return kv.Op{}, fmt.Errorf("encode record %s: %w", rec.Metadata.ID, err)
	}
	return kv.Put(RecordKey(rec.Metadata.ID), string(data)), nil
}

// loadIndex reads the staff index. A missing or corrupt index is rebuilt
// from the record keys and written back.
func (s *Service) loadIndex(ctx context.Context) ([]evaluation.StaffSummary, error) {
	raw, ok, err := s.kv.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if ok {
		var index []evaluation.StaffSummary
		err := json.Unmarshal([]byte(raw), &index)
		if err == nil {
			return index, nil
		}
		slog.Warn("staff index corrupt, rebuilding", "err", err)
	}
	return s.rebuildIndex(ctx, ok)
}

func (s *Service) rebuildIndex(ctx context.Context, existed bool) ([]evaluation.StaffSummary, error) {
	entries, err := s.kv.Scan(ctx, RecordKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	index := make([]evaluation.StaffSummary, 0, len(entries))
	for key, raw := range entries {
		rec, err := evaluation.DecodeRecord([]byte(raw))
		if err != nil {
			slog.Warn("skipping corrupt record during index rebuild", "key", key, "err", err)
			continue
		}
		if rec.Metadata.ID == "" {
			rec.Metadata.ID = strings.TrimPrefix(key, RecordKeyPrefix)
		}
		index = append(index, rec.Summary())
	}
	sortIndex(index)

	if !existed && len(index) == 0 {
		return index, nil
	}
	op, err := indexOp(index)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Apply(ctx, op); err != nil {
		slog.Warn("staff index rewrite failed", "err", err)
	}
	return index, nil
}

func indexOf(index []evaluation.StaffSummary, id string) int {
	for i, entry := range index {
		if entry.ID == id {
			return i
		}
	}
	return -1
}
