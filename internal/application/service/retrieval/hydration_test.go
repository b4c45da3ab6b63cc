package retrieval

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/types"
)

func newTestHydration(t *testing.T, store *fakeRelationalStore, mutate func(*config.Config)) *HydrationService {
	t.Helper()
	conf := testConfig()
	if mutate != nil {
		mutate(conf)
	}
	svc, err := NewHydrationService(store, conf)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func testEntity(id string, entityType types.EntityType, importance float64, createdAt time.Time) *types.Entity {
	return &types.Entity{
		ID:              id,
		OwnerID:         "owner-1",
		Type:            entityType,
		Title:           "title " + id,
		Content:         "content for " + id,
		ImportanceScore: importance,
		CreatedAt:       createdAt,
	}
}

func traversalResult(id string, entityType types.EntityType, score float64) types.TraversalResult {
	return types.TraversalResult{EntityID: id, EntityType: entityType, TraversalScore: score}
}

func TestHydrateRanksByCombinedScore(t *testing.T) {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	store := &fakeRelationalStore{entities: map[string]*types.Entity{
		// High traversal score but old and unimportant.
		"a": testEntity("a", types.EntityTypeMemoryUnit, 1.0, old),
		// Modest traversal score, very important and fresh.
		"b": testEntity("b", types.EntityTypeMemoryUnit, 9.0, fresh),
	}}
	svc := newTestHydration(t, store, nil)

	payload, degraded := svc.Hydrate(context.Background(), []types.TraversalResult{
		traversalResult("a", types.EntityTypeMemoryUnit, 0.9),
		traversalResult("b", types.EntityTypeMemoryUnit, 0.5),
	}, "owner-1")

	require.False(t, degraded)
	require.Len(t, payload.Entities, 2)
	// 0.5*0.5 + 0.3*0.9 + 0.2*~1 beats 0.5*0.9 + 0.3*0.1 + 0.2*~0.
	assert.Equal(t, "b", payload.Entities[0].ID)
	assert.Equal(t, "a", payload.Entities[1].ID)
	assert.Equal(t, 2, payload.CountsByType[types.EntityTypeMemoryUnit])
}

func TestHydrateTruncatesAtTokenBudget(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	store := &fakeRelationalStore{entities: map[string]*types.Entity{}}
	results := make([]types.TraversalResult, 0, 10)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		entity := testEntity(id, types.EntityTypeConcept, 5.0, now)
		entity.Content = strings.Repeat("knowledge ", 40)
		store.entities[id] = entity
		results = append(results, traversalResult(id, types.EntityTypeConcept, 0.8))
	}
	svc := newTestHydration(t, store, func(conf *config.Config) {
		conf.Retrieval.PayloadTokenBudget = 120
	})

	payload, degraded := svc.Hydrate(context.Background(), results, "owner-1")

	require.False(t, degraded)
	assert.True(t, payload.Truncated)
	assert.NotEmpty(t, payload.Entities)
	assert.Less(t, len(payload.Entities), 10)
}

func TestHydrateDropsDanglingReferences(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	store := &fakeRelationalStore{entities: map[string]*types.Entity{
		"present": testEntity("present", types.EntityTypeConcept, 5.0, now),
	}}
	svc := newTestHydration(t, store, nil)

	payload, degraded := svc.Hydrate(context.Background(), []types.TraversalResult{
		traversalResult("present", types.EntityTypeConcept, 0.9),
		traversalResult("deleted", types.EntityTypeConcept, 0.8),
		{EntityID: "untyped", TraversalScore: 0.7},
	}, "owner-1")

	require.False(t, degraded)
	require.Len(t, payload.Entities, 1)
	assert.Equal(t, "present", payload.Entities[0].ID)
}

func TestHydrateDegradesToEmptyPayloadOnStoreFailure(t *testing.T) {
	svc := newTestHydration(t, &fakeRelationalStore{fail: true}, nil)

	payload, degraded := svc.Hydrate(context.Background(), []types.TraversalResult{
		traversalResult("a", types.EntityTypeConcept, 0.9),
	}, "owner-1")

	assert.True(t, degraded)
	assert.Empty(t, payload.Entities)
	assert.False(t, payload.Truncated)
}

func TestHydrateEmptyInput(t *testing.T) {
	store := &fakeRelationalStore{entities: map[string]*types.Entity{}}
	svc := newTestHydration(t, store, nil)

	payload, degraded := svc.Hydrate(context.Background(), nil, "owner-1")

	assert.False(t, degraded)
	assert.Empty(t, payload.Entities)
}
