package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Democracy/internal/genealogy"
	"github.com/MikeSquared-Agency/Democracy/internal/lookup"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

func TestNewRunEntries(t *testing.T) {
	records := []registry.ModelRecord{{Name: "A", Active: true, Variants: []string{"a1"}}}
	r, err := lookup.Compute(records, weighting.SchemeModel, []string{"a1", "A", "ghost"}, genealogy.DefaultOptions())
	require.NoError(t, err)

	entries := NewRunEntries(r)
	require.Len(t, entries, 3)

	assert.Equal(t, "1", entries[0].Fraction)
	require.NotNil(t, entries[0].Weight)
	assert.Equal(t, 1.0, *entries[0].Weight)
	assert.True(t, entries[0].Variant)

	assert.Equal(t, "A", entries[1].Model)
	assert.False(t, entries[1].Variant)

	assert.Equal(t, lookup.NA, entries[2].Fraction)
	assert.Nil(t, entries[2].Weight)
}

func TestMemoryStoreModels(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore([]registry.ModelRecord{{Name: "B"}, {Name: "A", Variants: []string{"a1"}}})

	models, err := s.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "A", models[0].Name)

	// Callers get copies.
	models[0].Variants[0] = "mutated"
	again, _ := s.ListModels(ctx)
	assert.Equal(t, "a1", again[0].Variants[0])

	require.NoError(t, s.ReplaceModels(ctx, []registry.ModelRecord{{Name: "C"}}))
	models, _ = s.ListModels(ctx)
	require.Len(t, models, 1)
	assert.Equal(t, "C", models[0].Name)
}

func TestMemoryStoreRuns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	defer s.Close()

	first := &WeightRun{Scheme: "code"}
	require.NoError(t, s.CreateRun(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &WeightRun{Scheme: "model"}
	require.NoError(t, s.CreateRun(ctx, second))

	got, err := s.GetRun(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "code", got.Scheme)

	missing, err := s.GetRun(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)

	runs, _ = s.ListRuns(ctx, RunFilter{Scheme: "code"})
	require.Len(t, runs, 1)
	assert.Equal(t, first.ID, runs[0].ID)

	runs, _ = s.ListRuns(ctx, RunFilter{Limit: 1})
	require.Len(t, runs, 1)
}
