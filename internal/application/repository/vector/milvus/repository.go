package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	client "github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/mnemo-ai/mnemo/internal/config"
	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

const (
	fieldID         = "id"
	fieldOwnerID    = "owner_id"
	fieldSharedWith = "shared_with"
	fieldEntityType = "entity_type"
	fieldEmbedding  = "embedding"
)

var outputFields = []string{fieldID, fieldOwnerID, fieldSharedWith, fieldEntityType}

type milvusRepository struct {
	filter
	client          *client.Client
	collection      string
	shareVisibility bool
}

// NewVectorStore creates a Milvus-backed Stage-1 store.
func NewVectorStore(cli *client.Client, cfg *config.Config) interfaces.VectorStore {
	log := logger.GetLogger(context.Background())
	log.Infof("[Milvus] Initializing vector repository, collection: %s", cfg.Vector.Collection)

	return &milvusRepository{
		filter:          filter{},
		client:          cli,
		collection:      cfg.Vector.Collection,
		shareVisibility: cfg.Retrieval.ShareVisibility,
	}
}

func (m *milvusRepository) IsAvailable(ctx context.Context) bool {
	if m.client == nil {
		return false
	}
	_, err := m.client.ListCollections(ctx, client.NewListCollectionOption())
	return err == nil
}

// visibilityCondition builds the owner-scope clause: owner equality, or share
// allow-list membership when share visibility is enabled.
func (m *milvusRepository) visibilityCondition(ownerID string) *filterCondition {
	ownerCond := &filterCondition{Field: fieldOwnerID, Operator: operatorEqual, Value: ownerID}
	if !m.shareVisibility {
		return ownerCond
	}
	return &filterCondition{
		Operator: operatorOr,
		Value: []*filterCondition{
			ownerCond,
			{Field: fieldSharedWith, Operator: operatorArrayContains, Value: ownerID},
		},
	}
}

func (m *milvusRepository) Search(ctx context.Context, params interfaces.VectorSearchParams) ([]types.RetrievalCandidate, error) {
	log := logger.GetLogger(ctx)
	log.Debugf("[Milvus] Vector search: dim=%d, topK=%d, owner=%s",
		len(params.Embedding), params.TopK, params.OwnerID)

	conditions := []*filterCondition{m.visibilityCondition(params.OwnerID)}
	if len(params.TypeFilter) > 0 {
		typeNames := make([]string, 0, len(params.TypeFilter))
		for _, t := range params.TypeFilter {
			typeNames = append(typeNames, string(t))
		}
		conditions = append(conditions, &filterCondition{
			Field:    fieldEntityType,
			Operator: operatorIn,
			Value:    typeNames,
		})
	}
	converted, err := m.Convert(&filterCondition{Operator: operatorAnd, Value: conditions})
	if err != nil {
		log.Errorf("[Milvus] Failed to build filter: %v", err)
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}

	searchOption := client.NewSearchOption(m.collection, params.TopK,
		[]entity.Vector{entity.FloatVector(params.Embedding)})
	searchOption.WithANNSField(fieldEmbedding)
	searchOption.WithFilter(converted.exprStr)
	for k, v := range converted.params {
		searchOption.WithTemplateParam(k, v)
	}
	searchOption.WithOutputFields(outputFields...)
	if params.Threshold > 0 {
		ann := index.NewCustomAnnParam()
		ann.WithRadius(params.Threshold)
		searchOption.WithAnnParam(&ann)
	}

	resultSet, err := m.client.Search(ctx, searchOption)
	if err != nil {
		log.Errorf("[Milvus] Vector search failed: %v", err)
		return nil, apperrors.NewStoreError("milvus", "search",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}

	candidates, err := m.convertResultSet(ctx, resultSet, params.OwnerID)
	if err != nil {
		log.Errorf("[Milvus] Failed to convert result set: %v", err)
		return nil, fmt.Errorf("failed to convert result set: %w", err)
	}

	log.Debugf("[Milvus] Vector search returned %d candidates", len(candidates))
	return candidates, nil
}

func (m *milvusRepository) convertResultSet(ctx context.Context,
	resultSet []client.ResultSet, requestingOwner string,
) ([]types.RetrievalCandidate, error) {
	log := logger.GetLogger(ctx)
	var candidates []types.RetrievalCandidate
	if len(resultSet) == 0 {
		return candidates, nil
	}

	set := resultSet[0]
	idColumn := set.GetColumn(fieldID)
	ownerColumn := set.GetColumn(fieldOwnerID)
	sharedColumn := set.GetColumn(fieldSharedWith)
	typeColumn := set.GetColumn(fieldEntityType)
	if idColumn == nil || ownerColumn == nil {
		return candidates, nil
	}

	for i := 0; i < idColumn.Len(); i++ {
		id, err := idColumn.GetAsString(i)
		if err != nil {
			return nil, err
		}
		owner, err := ownerColumn.GetAsString(i)
		if err != nil {
			return nil, err
		}
		// Owner scope is re-checked here; the expression filter is not trusted
		// to be the only boundary. A foreign-owner row is kept only when share
		// visibility is on and the requester is on the row's allow-list.
		if owner != requestingOwner &&
			!(m.shareVisibility && sharedWithContains(sharedColumn, i, requestingOwner)) {
			violation := &apperrors.OwnerScopeViolationError{
				EntityID:        id,
				EntityOwner:     owner,
				RequestingOwner: requestingOwner,
			}
			log.Errorf("[Milvus] %v", violation)
			continue
		}
		var entityType string
		if typeColumn != nil {
			entityType, _ = typeColumn.GetAsString(i)
		}
		var score float64
		if i < len(set.Scores) {
			score = float64(set.Scores[i])
		}
		candidates = append(candidates, types.RetrievalCandidate{
			EntityID:   id,
			EntityType: types.EntityType(entityType),
			Similarity: score,
		})
	}
	return candidates, nil
}

// sharedWithContains reports whether the allow-list at row i names the
// requester. A missing or malformed column grants nothing.
func sharedWithContains(col column.Column, i int, requester string) bool {
	if col == nil || i >= col.Len() {
		return false
	}
	raw, err := col.Get(i)
	if err != nil {
		return false
	}
	switch list := raw.(type) {
	case []string:
		for _, member := range list {
			if member == requester {
				return true
			}
		}
	case []interface{}:
		for _, member := range list {
			if s, ok := member.(string); ok && s == requester {
				return true
			}
		}
	}
	return false
}
