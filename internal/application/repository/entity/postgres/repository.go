package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

type entityRepository struct {
	db *gorm.DB
}

// NewRelationalStore creates the Stage-3 store over the per-type entity tables.
func NewRelationalStore(db *gorm.DB) interfaces.RelationalStore {
	return &entityRepository{db: db}
}

func (r *entityRepository) IsAvailable(ctx context.Context) bool {
	if r.db == nil {
		return false
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

// FetchByIDs issues one batched query per entity type. Rows the requesting
// owner cannot see are dropped and alert-logged; IDs with no row at all are
// simply absent and left to the caller to classify as data inconsistencies.
func (r *entityRepository) FetchByIDs(ctx context.Context, ownerID string,
	idsByType map[types.EntityType][]string,
) ([]*types.Entity, error) {
	log := logger.GetLogger(ctx)

	var entities []*types.Entity
	for _, entityType := range types.AllEntityTypes {
		ids := idsByType[entityType]
		if len(ids) == 0 {
			continue
		}
		fetched, err := r.fetchType(ctx, entityType, ids)
		if err != nil {
			log.Errorf("[Postgres] Batch fetch for type %s failed: %v", entityType, err)
			return nil, apperrors.NewStoreError("postgres", "fetch_by_ids",
				fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
		}
		for _, entity := range fetched {
			if !entity.VisibleTo(ownerID) {
				violation := &apperrors.OwnerScopeViolationError{
					EntityID:        entity.ID,
					EntityOwner:     entity.OwnerID,
					RequestingOwner: ownerID,
				}
				log.Errorf("[Postgres] %v", violation)
				continue
			}
			entities = append(entities, entity)
		}
	}

	log.Debugf("[Postgres] Hydrated %d of %d requested entities",
		len(entities), countIDs(idsByType))
	return entities, nil
}

func (r *entityRepository) fetchType(ctx context.Context, entityType types.EntityType, ids []string) ([]*types.Entity, error) {
	db := r.db.WithContext(ctx)

	switch entityType {
	case types.EntityTypeConcept:
		var rows []ConceptModel
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		entities := make([]*types.Entity, 0, len(rows))
		for i := range rows {
			entities = append(entities, rows[i].toEntity(entityType, rows[i].Name, rows[i].Description))
		}
		return entities, nil

	case types.EntityTypeMemoryUnit:
		var rows []MemoryUnitModel
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		entities := make([]*types.Entity, 0, len(rows))
		for i := range rows {
			entities = append(entities, rows[i].toEntity(entityType, rows[i].Title, rows[i].Narrative))
		}
		return entities, nil

	case types.EntityTypeArtifact:
		var rows []ArtifactModel
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		entities := make([]*types.Entity, 0, len(rows))
		for i := range rows {
			entities = append(entities, rows[i].toEntity(entityType, rows[i].Title, rows[i].Body))
		}
		return entities, nil

	case types.EntityTypeGrowthEvent:
		var rows []GrowthEventModel
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		entities := make([]*types.Entity, 0, len(rows))
		for i := range rows {
			entities = append(entities, rows[i].toEntity(entityType, rows[i].Label, rows[i].Details))
		}
		return entities, nil

	case types.EntityTypeCommunity:
		var rows []CommunityModel
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		entities := make([]*types.Entity, 0, len(rows))
		for i := range rows {
			entities = append(entities, rows[i].toEntity(entityType, rows[i].Name, rows[i].Summary))
		}
		return entities, nil

	case types.EntityTypeCard:
		var rows []CardModel
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		entities := make([]*types.Entity, 0, len(rows))
		for i := range rows {
			entities = append(entities, rows[i].toEntity(entityType, rows[i].Front, rows[i].Back))
		}
		return entities, nil

	default:
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func countIDs(idsByType map[types.EntityType][]string) int {
	total := 0
	for _, ids := range idsByType {
		total += len(ids)
	}
	return total
}
