package retrieval

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// GraphTraversalEngine is Stage 2: bounded multi-hop traversal from the
// Stage-1 seeds, one traversal task per seed on a bounded worker pool.
type GraphTraversalEngine struct {
	store   interfaces.GraphStore
	cfg     config.RetrievalConfig
	breaker *storeBreaker
}

// NewGraphTraversalEngine creates Stage 2.
func NewGraphTraversalEngine(store interfaces.GraphStore, cfg *config.Config) *GraphTraversalEngine {
	return &GraphTraversalEngine{
		store:   store,
		cfg:     cfg.Retrieval,
		breaker: newStoreBreaker("graph"),
	}
}

// Traverse expands the seed set along typed edges up to the configured hop
// bound. The seeds themselves are always part of the result (hop 0, score =
// similarity); a graph failure degrades the stage to exactly that seed set.
func (e *GraphTraversalEngine) Traverse(ctx context.Context, seeds []types.RetrievalCandidate,
	ownerID string, allowTypes []types.RelationshipType,
) ([]types.TraversalResult, bool) {
	log := logger.GetLogger(ctx)
	if len(seeds) == 0 {
		return nil, false
	}

	seedSimilarity := make(map[string]float64, len(seeds))
	merged := make(map[string]types.TraversalResult, len(seeds))
	for _, seed := range seeds {
		seedSimilarity[seed.EntityID] = seed.Similarity
		merged[seed.EntityID] = types.TraversalResult{
			EntityID:       seed.EntityID,
			EntityType:     seed.EntityType,
			HopCount:       0,
			SeedID:         seed.EntityID,
			SeedSimilarity: seed.Similarity,
			TraversalScore: seed.Similarity,
		}
	}

	hits, degraded := e.collectHits(ctx, seeds, ownerID, allowTypes)
	if degraded && len(hits) == 0 {
		log.Warnf("[Stage2] Graph store degraded, falling back to %d seeds", len(seeds))
	}

	for _, hit := range hits {
		similarity := seedSimilarity[hit.SeedID]
		result := types.TraversalResult{
			EntityID:       hit.EntityID,
			EntityType:     hit.EntityType,
			HopCount:       hit.HopCount,
			Path:           hit.Path,
			SeedID:         hit.SeedID,
			SeedSimilarity: similarity,
			TraversalScore: similarity * math.Pow(e.cfg.DecayFactor, float64(hit.HopCount)),
		}
		existing, ok := merged[hit.EntityID]
		if !ok || betterRecord(result, existing) {
			merged[hit.EntityID] = result
		}
	}

	results := make([]types.TraversalResult, 0, len(merged))
	for _, result := range merged {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].TraversalScore != results[j].TraversalScore {
			return results[i].TraversalScore > results[j].TraversalScore
		}
		return results[i].EntityID < results[j].EntityID
	})
	if len(results) > e.cfg.TraversalCap {
		results = results[:e.cfg.TraversalCap]
	}

	log.Debugf("[Stage2] %d seeds -> %d entities (degraded=%v)", len(seeds), len(results), degraded)
	return results, degraded
}

// betterRecord implements the dedup rule for an entity reached via multiple
// paths: lowest hop count wins; on a hop tie, the path from the seed with the
// higher similarity wins.
func betterRecord(candidate, existing types.TraversalResult) bool {
	if candidate.HopCount != existing.HopCount {
		return candidate.HopCount < existing.HopCount
	}
	return candidate.SeedSimilarity > existing.SeedSimilarity
}

// collectHits runs one traversal task per seed on a bounded ants pool. A task
// failure is absorbed; the stage is degraded if any task failed.
func (e *GraphTraversalEngine) collectHits(ctx context.Context, seeds []types.RetrievalCandidate,
	ownerID string, allowTypes []types.RelationshipType,
) ([]interfaces.GraphHit, bool) {
	log := logger.GetLogger(ctx)

	pool, err := ants.NewPool(e.cfg.Stage2Concurrency)
	if err != nil {
		log.Errorf("[Stage2] Failed to create worker pool: %v", err)
		return nil, true
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		hits     []interfaces.GraphHit
		failures int
	)
	for _, seed := range seeds {
		seedID := seed.EntityID
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			result, err := e.breaker.Execute(func() (interface{}, error) {
				return e.store.Traverse(ctx, interfaces.TraverseParams{
					SeedIDs:    []string{seedID},
					OwnerID:    ownerID,
					MaxHops:    e.cfg.MaxHops,
					AllowTypes: allowTypes,
				})
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warnf("[Stage2] Traversal from seed %s failed: %v", seedID, err)
				failures++
				return
			}
			hits = append(hits, result.([]interfaces.GraphHit)...)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			failures++
			mu.Unlock()
		}
	}
	wg.Wait()

	return hits, failures > 0 || ctx.Err() != nil
}
