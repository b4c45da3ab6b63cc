package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tiktoken-go/tokenizer"

	"github.com/mnemo-ai/mnemo/internal/config"
	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// HydrationService is Stage 3: batch-fetch full records per entity type,
// normalize, rank, and truncate to the payload token budget.
type HydrationService struct {
	store   interfaces.RelationalStore
	cfg     config.RetrievalConfig
	codec   tokenizer.Codec
	breaker *storeBreaker
	now     func() time.Time
}

// NewHydrationService creates Stage 3. The tokenizer load only fails on an
// unknown encoding, which is a build problem, not a runtime one.
func NewHydrationService(store interfaces.RelationalStore, cfg *config.Config) (*HydrationService, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &HydrationService{
		store:   store,
		cfg:     cfg.Retrieval,
		codec:   codec,
		breaker: newStoreBreaker("relational"),
		now:     time.Now,
	}, nil
}

// Hydrate resolves traversal results into the final ranked payload. A
// relational failure degrades the stage to an empty payload; a graph-referenced
// ID with no relational row is a data inconsistency, logged and dropped, never
// fabricated.
func (s *HydrationService) Hydrate(ctx context.Context, results []types.TraversalResult,
	ownerID string,
) (*types.ContextPayload, bool) {
	log := logger.GetLogger(ctx)
	if len(results) == 0 {
		return types.EmptyContextPayload(), false
	}

	idsByType := make(map[types.EntityType][]string)
	for _, result := range results {
		if result.EntityType == "" {
			// No table to look in; same handling as a missing row.
			log.Warnf("[Stage3] %v", &apperrors.DataInconsistencyError{EntityID: result.EntityID})
			continue
		}
		idsByType[result.EntityType] = append(idsByType[result.EntityType], result.EntityID)
	}

	fetched, err := s.breaker.Execute(func() (interface{}, error) {
		return s.store.FetchByIDs(ctx, ownerID, idsByType)
	})
	if err != nil {
		log.Warnf("[Stage3] Relational fetch failed, degrading to empty payload: %v", err)
		return types.EmptyContextPayload(), true
	}

	byID := make(map[string]*types.Entity)
	for _, entity := range fetched.([]*types.Entity) {
		byID[entity.ID] = entity
	}

	ranked := make([]rankedEntity, 0, len(results))
	for _, result := range results {
		if result.EntityType == "" {
			continue
		}
		entity, ok := byID[result.EntityID]
		if !ok {
			log.Warnf("[Stage3] %v", &apperrors.DataInconsistencyError{EntityID: result.EntityID})
			continue
		}
		ranked = append(ranked, rankedEntity{
			retrieved: types.RetrievedEntity{
				ID:              entity.ID,
				Type:            entity.Type,
				Title:           entity.Title,
				ContentExcerpt:  excerpt(entity.Content, s.cfg.ExcerptMaxRunes),
				ImportanceScore: entity.ImportanceScore,
				CreatedAt:       entity.CreatedAt,
				TraversalScore:  result.TraversalScore,
			},
			rank: s.rankScore(result.TraversalScore, entity),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].rank != ranked[j].rank {
			return ranked[i].rank > ranked[j].rank
		}
		return ranked[i].retrieved.ID < ranked[j].retrieved.ID
	})

	payload := types.EmptyContextPayload()
	budget := s.cfg.PayloadTokenBudget
	used := 0
	for _, item := range ranked {
		cost := s.tokenCost(item.retrieved)
		if used+cost > budget {
			payload.Truncated = true
			break
		}
		used += cost
		payload.Entities = append(payload.Entities, item.retrieved)
		payload.CountsByType[item.retrieved.Type]++
	}

	log.Debugf("[Stage3] Hydrated %d entities, %d/%d tokens, truncated=%v",
		len(payload.Entities), used, budget, payload.Truncated)
	return payload, false
}

type rankedEntity struct {
	retrieved types.RetrievedEntity
	rank      float64
}

// rankScore combines traversal score, importance, and recency with the
// configured weights. Importance is normalized from [0,10]; recency decays
// exponentially with the configured half-life.
func (s *HydrationService) rankScore(traversalScore float64, entity *types.Entity) float64 {
	age := s.now().Sub(entity.CreatedAt)
	if age < 0 {
		age = 0
	}
	recency := math.Pow(0.5, age.Hours()/s.cfg.RecencyHalfLife.Hours())
	return s.cfg.TraversalWeight*traversalScore +
		s.cfg.ImportanceWeight*(entity.ImportanceScore/10.0) +
		s.cfg.RecencyWeight*recency
}

func (s *HydrationService) tokenCost(entity types.RetrievedEntity) int {
	text := entity.Title + "\n" + entity.ContentExcerpt
	count, err := s.codec.Count(text)
	if err != nil {
		// Rough fallback, errs on the generous side.
		return len(text) / 3
	}
	return count
}

func excerpt(content string, maxRunes int) string {
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes])
}
