package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/mnemo-ai/mnemo/internal/config"
	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

const (
	fieldOwnerID    = "owner_id"
	fieldSharedWith = "shared_with"
	fieldEntityType = "entity_type"
)

type vectorRepository struct {
	client          *qdrant.Client
	collection      string
	shareVisibility bool
}

// NewVectorStore creates a Qdrant-backed Stage-1 store.
func NewVectorStore(client *qdrant.Client, cfg *config.Config) interfaces.VectorStore {
	log := logger.GetLogger(context.Background())
	log.Infof("[Qdrant] Initializing vector repository, collection: %s", cfg.Vector.Collection)

	return &vectorRepository{
		client:          client,
		collection:      cfg.Vector.Collection,
		shareVisibility: cfg.Retrieval.ShareVisibility,
	}
}

func (r *vectorRepository) IsAvailable(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	_, err := r.client.HealthCheck(ctx)
	return err == nil
}

// ownerFilter builds the visibility clause: owner match, or membership on the
// share allow-list when share visibility is enabled. The store-side filter is
// a first line only; callers re-verify owner scope on every result.
func (r *vectorRepository) ownerFilter(ownerID string) *qdrant.Filter {
	if !r.shareVisibility {
		return &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(fieldOwnerID, ownerID)},
		}
	}
	return &qdrant.Filter{
		Should: []*qdrant.Condition{
			qdrant.NewMatch(fieldOwnerID, ownerID),
			qdrant.NewMatch(fieldSharedWith, ownerID),
		},
		MinShould: &qdrant.MinShould{MinCount: 1},
	}
}

func (r *vectorRepository) Search(ctx context.Context, params interfaces.VectorSearchParams) ([]types.RetrievalCandidate, error) {
	log := logger.GetLogger(ctx)
	log.Debugf("[Qdrant] Vector search: dim=%d, topK=%d, owner=%s",
		len(params.Embedding), params.TopK, params.OwnerID)

	filter := r.ownerFilter(params.OwnerID)
	if len(params.TypeFilter) > 0 {
		typeNames := make([]string, 0, len(params.TypeFilter))
		for _, t := range params.TypeFilter {
			typeNames = append(typeNames, string(t))
		}
		filter.Must = append(filter.Must, qdrant.NewMatchKeywords(fieldEntityType, typeNames...))
	}

	query := &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQueryDense(params.Embedding),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(params.TopK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if params.Threshold > 0 {
		query.ScoreThreshold = qdrant.PtrOf(float32(params.Threshold))
	}

	points, err := r.client.Query(ctx, query)
	if err != nil {
		log.Errorf("[Qdrant] Vector search failed: %v", err)
		return nil, apperrors.NewStoreError("qdrant", "query",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}

	candidates := make([]types.RetrievalCandidate, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		owner := payload[fieldOwnerID].GetStringValue()
		if !visibleTo(payload, owner, params.OwnerID, r.shareVisibility) {
			// The store-side filter should have excluded this point.
			violation := &apperrors.OwnerScopeViolationError{
				EntityID:        point.GetId().GetUuid(),
				EntityOwner:     owner,
				RequestingOwner: params.OwnerID,
			}
			log.Errorf("[Qdrant] %v", violation)
			continue
		}
		candidates = append(candidates, types.RetrievalCandidate{
			EntityID:   point.GetId().GetUuid(),
			EntityType: types.EntityType(payload[fieldEntityType].GetStringValue()),
			Similarity: float64(point.GetScore()),
		})
	}

	log.Debugf("[Qdrant] Vector search returned %d candidates", len(candidates))
	return candidates, nil
}

func visibleTo(payload map[string]*qdrant.Value, owner, requester string, shareVisibility bool) bool {
	if owner == requester {
		return true
	}
	if !shareVisibility {
		return false
	}
	shared := payload[fieldSharedWith].GetListValue()
	if shared == nil {
		return false
	}
	for _, v := range shared.GetValues() {
		if v.GetStringValue() == requester {
			return true
		}
	}
	return false
}
