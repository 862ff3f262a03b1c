package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

// MemoryStore keeps the registry and run history in process. It backs the
// service when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	models []registry.ModelRecord
	runs   map[uuid.UUID]*WeightRun
	order  []uuid.UUID
}

func NewMemoryStore(models []registry.ModelRecord) *MemoryStore {
	s := &MemoryStore{runs: make(map[uuid.UUID]*WeightRun)}
	s.models = cloneModels(models)
	return s
}

func (s *MemoryStore) ListModels(_ context.Context) ([]registry.ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneModels(s.models), nil
}

func (s *MemoryStore) ReplaceModels(_ context.Context, models []registry.ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = cloneModels(models)
	return nil
}

func (s *MemoryStore) CreateRun(_ context.Context, run *WeightRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	cp := *run
	s.runs[run.ID] = &cp
	s.order = append(s.order, run.ID)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id uuid.UUID) (*WeightRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, filter RunFilter) ([]*WeightRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*WeightRun
	for i := len(s.order) - 1; i >= 0; i-- {
		run := s.runs[s.order[i]]
		if filter.Scheme != "" && run.Scheme != filter.Scheme {
			continue
		}
		cp := *run
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneModels(models []registry.ModelRecord) []registry.ModelRecord {
	out := make([]registry.ModelRecord, len(models))
	for i, m := range models {
		m.Parents = append([]string(nil), m.Parents...)
		m.Variants = append([]string(nil), m.Variants...)
		out[i] = m
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
