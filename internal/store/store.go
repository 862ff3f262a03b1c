package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Democracy/internal/lookup"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
)

// WeightRun is a persisted weight query and its per-name results.
type WeightRun struct {
	ID         uuid.UUID  `json:"run_id"`
	Scheme     string     `json:"scheme"`
	Subset     []string   `json:"subset,omitempty"`
	Entries    []RunEntry `json:"entries"`
	Unresolved []string   `json:"unresolved,omitempty"`
	ModelCount int        `json:"model_count"`
	DurationMs float64    `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RunEntry is one reported weight. Fraction is "NA" and Weight nil when the
// name did not resolve.
type RunEntry struct {
	Name     string   `json:"name"`
	Model    string   `json:"model,omitempty"`
	Variant  bool     `json:"variant,omitempty"`
	Fraction string   `json:"fraction"`
	Weight   *float64 `json:"weight"`
}

// NewRunEntries converts a lookup result into storable entries.
func NewRunEntries(r *lookup.Result) []RunEntry {
	out := make([]RunEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		entry := RunEntry{
			Name:     e.Name,
			Model:    e.Model,
			Variant:  e.Variant,
			Fraction: e.FractionString(),
		}
		if e.Resolved {
			w := e.Weight
			entry.Weight = &w
		}
		out = append(out, entry)
	}
	return out
}

type RunFilter struct {
	Scheme string
	Limit  int
}

type Store interface {
	ListModels(ctx context.Context) ([]registry.ModelRecord, error)
	ReplaceModels(ctx context.Context, models []registry.ModelRecord) error

	CreateRun(ctx context.Context, run *WeightRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*WeightRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*WeightRun, error)

	Close() error
}
