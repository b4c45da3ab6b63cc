package retrieval

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// SemanticSearchClient is Stage 1: one vector lookup per key phrase, merged by
// maximum similarity per entity and capped to bound Stage-2 fan-out.
type SemanticSearchClient struct {
	store    interfaces.VectorStore
	embedder interfaces.Embedder
	cfg      config.RetrievalConfig
	breaker  *storeBreaker
}

// NewSemanticSearchClient creates Stage 1.
func NewSemanticSearchClient(store interfaces.VectorStore, embedder interfaces.Embedder,
	cfg *config.Config,
) *SemanticSearchClient {
	return &SemanticSearchClient{
		store:    store,
		embedder: embedder,
		cfg:      cfg.Retrieval,
		breaker:  newStoreBreaker("vector"),
	}
}

// Search embeds the key phrases in one batch, queries the vector store per
// phrase concurrently under the configured fan-out limit, and merges. A store
// or embedder failure degrades the stage to an empty candidate set; the second
// return value reports degradation.
func (c *SemanticSearchClient) Search(ctx context.Context, keyPhrases []string, ownerID string,
	typeFilter []types.EntityType,
) ([]types.RetrievalCandidate, bool) {
	log := logger.GetLogger(ctx)
	if len(keyPhrases) == 0 {
		return nil, false
	}

	embeddings, err := c.embedder.Embed(ctx, keyPhrases)
	if err != nil {
		log.Warnf("[Stage1] Embedding failed, degrading to empty candidate set: %v", err)
		return nil, true
	}

	var (
		mu       sync.Mutex
		best     = make(map[string]types.RetrievalCandidate)
		failures int
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.cfg.Stage1Concurrency)
	for i := range keyPhrases {
		phrase, embedding := keyPhrases[i], embeddings[i]
		group.Go(func() error {
			result, err := c.breaker.Execute(func() (interface{}, error) {
				return c.store.Search(groupCtx, interfaces.VectorSearchParams{
					Embedding:  embedding,
					OwnerID:    ownerID,
					TypeFilter: typeFilter,
					TopK:       c.cfg.TopKPerPhrase,
					Threshold:  c.cfg.SimilarityThreshold,
				})
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warnf("[Stage1] Lookup for phrase %q failed: %v", phrase, err)
				failures++
				return nil
			}
			for _, candidate := range result.([]types.RetrievalCandidate) {
				if existing, ok := best[candidate.EntityID]; !ok || candidate.Similarity > existing.Similarity {
					best[candidate.EntityID] = candidate
				}
			}
			return nil
		})
	}
	// Per-phrase failures are absorbed above; the only group error would be a
	// context cancellation, which the merge below already reflects.
	_ = group.Wait()

	degraded := failures > 0 || errors.Is(ctx.Err(), context.DeadlineExceeded)

	candidates := make([]types.RetrievalCandidate, 0, len(best))
	for _, candidate := range best {
		candidates = append(candidates, candidate)
	}
	// Descending similarity, entity ID as tiebreak so identical inputs yield
	// an identical ranked set.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].EntityID < candidates[j].EntityID
	})
	if len(candidates) > c.cfg.CandidateCap {
		candidates = candidates[:c.cfg.CandidateCap]
	}

	log.Debugf("[Stage1] %d phrases -> %d candidates (degraded=%v)", len(keyPhrases), len(candidates), degraded)
	return candidates, degraded
}
