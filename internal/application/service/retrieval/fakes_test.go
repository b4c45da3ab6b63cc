package retrieval

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

var errDown = errors.New("store down")

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errDown
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1, 0}
	}
	return vectors, nil
}

type fakeVectorStore struct {
	// Per-phrase lookups run concurrently, so the fake returns the same set
	// for every call and only counts invocations.
	results []types.RetrievalCandidate
	fail    bool

	mu    sync.Mutex
	calls int
}

func (f *fakeVectorStore) Search(_ context.Context, _ interfaces.VectorSearchParams) ([]types.RetrievalCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, errDown
	}
	out := make([]types.RetrievalCandidate, len(f.results))
	copy(out, f.results)
	return out, nil
}

func (f *fakeVectorStore) IsAvailable(context.Context) bool { return !f.fail }

type fakeGraphStore struct {
	hitsBySeed map[string][]interfaces.GraphHit
	fail       bool
}

func (f *fakeGraphStore) Traverse(_ context.Context, params interfaces.TraverseParams) ([]interfaces.GraphHit, error) {
	if f.fail {
		return nil, errDown
	}
	var hits []interfaces.GraphHit
	for _, seedID := range params.SeedIDs {
		hits = append(hits, f.hitsBySeed[seedID]...)
	}
	return hits, nil
}

func (f *fakeGraphStore) IsAvailable(context.Context) bool { return !f.fail }

type fakeRelationalStore struct {
	entities map[string]*types.Entity
	fail     bool
}

func (f *fakeRelationalStore) FetchByIDs(_ context.Context, ownerID string,
	idsByType map[types.EntityType][]string,
) ([]*types.Entity, error) {
	if f.fail {
		return nil, errDown
	}
	var out []*types.Entity
	for _, ids := range idsByType {
		for _, id := range ids {
			if entity, ok := f.entities[id]; ok && entity.VisibleTo(ownerID) {
				out = append(out, entity)
			}
		}
	}
	return out, nil
}

func (f *fakeRelationalStore) IsAvailable(context.Context) bool { return !f.fail }

func testConfig() *config.Config {
	return &config.Config{
		Retrieval: config.RetrievalConfig{
			Stage1Timeout:      800 * time.Millisecond,
			Stage2Timeout:      900 * time.Millisecond,
			Stage3Timeout:      600 * time.Millisecond,
			OverallDeadline:    2500 * time.Millisecond,
			TopKPerPhrase:      8,
			CandidateCap:       30,
			TraversalCap:       50,
			MaxHops:            2,
			DecayFactor:        0.7,
			Stage1Concurrency:  5,
			Stage2Concurrency:  8,
			TraversalWeight:    0.5,
			ImportanceWeight:   0.3,
			RecencyWeight:      0.2,
			RecencyHalfLife:    30 * 24 * time.Hour,
			PayloadTokenBudget: 2000,
			ExcerptMaxRunes:    480,
			ShareVisibility:    true,
		},
	}
}
