package actionplan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"staffeval/internal/platform/kv"
)

// Key lives inside the record namespace so bulk export carries it.
const Key = "qb_action_plan_data_v2"

type Service struct {
	kv kv.Store
}

func NewService(store kv.Store) *Service {
	return &Service{kv: store}
}

// Get returns the stored draft merged over the empty plan. A corrupt draft
// is logged and read as empty.
func (s *Service) Get(ctx context.Context) (Plan, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return Plan{}, fmt.Errorf("read action plan: %w", err)
	}
	var plan Plan
	if !ok {
		return plan, nil
	}
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		slog.Warn("action plan corrupt", "err", err)
		return Plan{}, nil
	}
	return plan, nil
}

func (s *Service) Save(ctx context.Context, plan Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode action plan: %w", err)
	}
	if err := s.kv.Apply(ctx, kv.Put(Key, string(data))); err != nil {
		return fmt.Errorf("save action plan: %w", err)
	}
	return nil
}

// Reset overwrites the draft with the empty plan.
func (s *Service) Reset(ctx context.Context) error {
	return s.Save(ctx, Plan{})
}
