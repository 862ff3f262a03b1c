package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/hermes"
	"github.com/MikeSquared-Agency/Democracy/internal/lookup"
	"github.com/MikeSquared-Agency/Democracy/internal/metrics"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

// ErrInvalidRegistry wraps genealogy validation failures of a registry.
var ErrInvalidRegistry = errors.New("invalid registry")

// Engine serves weight queries against the stored registry and records every
// run.
type Engine struct {
	store  store.Store
	hermes hermes.Client
	opts   genealogy.Options
	logger *slog.Logger
}

func New(s store.Store, h hermes.Client, opts genealogy.Options, logger *slog.Logger) *Engine {
	if h == nil {
		h = hermes.Nop{}
	}
	return &Engine{store: s, hermes: h, opts: opts, logger: logger}
}

// Compute weights subset under scheme, persists the run and announces it.
// Unresolved names are logged and published but do not fail the run.
func (e *Engine) Compute(ctx context.Context, scheme weighting.Scheme, subset []string) (*store.WeightRun, *lookup.Result, error) {
	models, err := e.store.ListModels(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list models: %w", err)
	}

	start := time.Now()
	result, err := lookup.Compute(models, scheme, subset, e.opts)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveFailure(string(scheme))
		if errors.Is(err, weighting.ErrInvalidScheme) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	metrics.ObserveComputation(string(scheme), elapsed, len(result.Unresolved))

	run := &store.WeightRun{
		ID:         uuid.New(),
		Scheme:     string(scheme),
		Subset:     subset,
		Entries:    store.NewRunEntries(result),
		Unresolved: result.Unresolved,
		ModelCount: len(models),
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("record run: %w", err)
	}

	runID := run.ID.String()
	if len(result.Unresolved) > 0 {
		e.logger.Warn("unresolved model names", "run_id", runID, "scheme", scheme, "names", result.Unresolved)
		e.publish(hermes.SubjectWeightsUnresolved(runID), hermes.WeightsUnresolvedEvent{
			RunID: runID,
			Names: result.Unresolved,
		})
	}
	e.publish(hermes.SubjectWeightsComputed(runID), hermes.WeightsComputedEvent{
		RunID:      runID,
		Scheme:     string(scheme),
		Entries:    len(run.Entries),
		Unresolved: len(result.Unresolved),
		DurationMs: run.DurationMs,
		Timestamp:  time.Now().UTC(),
	})
	e.logger.Info("weights computed", "run_id", runID, "scheme", scheme,
		"entries", len(run.Entries), "duration_ms", run.DurationMs)
	return run, result, nil
}

// Weights builds the genealogy of the stored registry and computes per-model
// weights without recording a run.
func (e *Engine) Weights(ctx context.Context, scheme weighting.Scheme) (*weighting.Weights, error) {
	if !scheme.Valid() {
		return nil, fmt.Errorf("%w %q", weighting.ErrInvalidScheme, scheme)
	}
	models, err := e.store.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	f, err := genealogy.Build(models, e.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	return weighting.Compute(f, scheme)
}

// ReplaceRegistry validates models as a genealogy and swaps them in. Active is
// derived from each model's variants; a caller-supplied flag is ignored.
func (e *Engine) ReplaceRegistry(ctx context.Context, models []registry.ModelRecord, updatedBy string) error {
	models = append([]registry.ModelRecord(nil), models...)
	registry.DeriveActive(models)
	if _, err := genealogy.Build(models, e.opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	if err := e.store.ReplaceModels(ctx, models); err != nil {
		return fmt.Errorf("replace models: %w", err)
	}

	active := 0
	for _, m := range models {
		if m.Active {
			active++
		}
	}
	metrics.SetRegistrySize(len(models))
	e.publish(hermes.SubjectRegistryUpdated, hermes.RegistryUpdatedEvent{
		Models:    len(models),
		Active:    active,
		UpdatedBy: updatedBy,
		Timestamp: time.Now().UTC(),
	})
	e.logger.Info("registry replaced", "models", len(models), "active", active, "updated_by", updatedBy)
	return nil
}

func (e *Engine) publish(subject string, event interface{}) {
	if err := e.hermes.Publish(subject, event); err != nil {
		e.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
