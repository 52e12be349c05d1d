// Package audit keeps an operation log of destructive operations: which
// operation ran, on what, and when. It never stores who ran it or the
// content that was removed. Events live outside the record namespace so
// backups neither carry nor overwrite them.
package audit

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"staffeval/internal/platform/kv"
)

const KeyPrefix = "audit_"

const (
	ActionRecordDelete    = "record.delete"
	ActionBackupRestore   = "backup.restore"
	ActionCategoryReset   = "category.reset"
	ActionActionPlanReset = "actionplan.reset"
)

type Event struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
}

func (f Filter) match(evt Event) bool {
	return (f.Action == "" || evt.Action == f.Action) &&
		(f.EntityType == "" || evt.EntityType == f.EntityType)
}

type Service struct {
	kv  kv.Store
	now func() time.Time
}

func New(store kv.Store) *Service {
	return &Service{kv: store, now: time.Now}
}

// Record stores evt with a fresh id and timestamp. detail describes the
// outcome and is encoded as JSON when non-nil.
func (s *Service) Record(ctx context.Context, evt Event, detail any) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate audit id: %w", err)
	}
	evt.ID = id.String()
	evt.CreatedAt = s.now().UTC()
	if detail != nil {
		if evt.Detail, err = json.Marshal(detail); err != nil {
			return err
		}
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := s.kv.Apply(ctx, kv.Put(KeyPrefix+evt.ID, string(data))); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// List returns matching events, newest first. Undecodable entries are
// logged and skipped.
func (s *Service) List(ctx context.Context, filter Filter) ([]Event, error) {
	entries, err := s.kv.Scan(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	out := make([]Event, 0, len(entries))
	for key, raw := range entries {
		var evt Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			slog.Warn("audit event corrupt", "key", key, "err", err)
			continue
		}
		if filter.match(evt) {
			out = append(out, evt)
		}
	}
	slices.SortFunc(out, func(a, b Event) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(b.ID), strings.ToLower(a.ID))
	})
	return out, nil
}
