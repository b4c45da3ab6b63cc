package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// resultLimit bounds a single traversal query. The engine caps the merged set
// again after dedup; this just keeps one query from flooding the driver.
const resultLimit = 200

type GraphRepository struct {
	driver neo4j.Driver
}

// NewGraphStore creates a Neo4j-backed Stage-2 store.
func NewGraphStore(driver neo4j.Driver) interfaces.GraphStore {
	return &GraphRepository{driver: driver}
}

func (r *GraphRepository) IsAvailable(ctx context.Context) bool {
	if r.driver == nil {
		return false
	}
	return r.driver.VerifyConnectivity(ctx) == nil
}

func (r *GraphRepository) Traverse(ctx context.Context, params interfaces.TraverseParams) ([]interfaces.GraphHit, error) {
	log := logger.GetLogger(ctx)
	if len(params.SeedIDs) == 0 {
		return nil, nil
	}

	typed := len(params.AllowTypes) > 0
	query := traversalQuery(params.MaxHops, typed)

	queryParams := map[string]interface{}{
		"seed_ids": params.SeedIDs,
		"owner_id": params.OwnerID,
		"limit":    resultLimit,
	}
	if typed {
		typeNames := make([]string, 0, len(params.AllowTypes))
		for _, t := range params.AllowTypes {
			typeNames = append(typeNames, string(t))
		}
		queryParams["allow_types"] = typeNames
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, queryParams)
		if err != nil {
			return nil, err
		}

		var hits []interfaces.GraphHit
		for res.Next(ctx) {
			record := res.Record()
			rec, err := recordToHit(record)
			if err != nil {
				log.Warnf("[Neo4j] Skipping malformed traversal record: %v", err)
				continue
			}
			// Owner scope is enforced in the query pattern and re-checked
			// here; a relationship edge must never leak into another user's
			// private subgraph.
			if !rec.visibleTo(params.OwnerID) {
				violation := &apperrors.OwnerScopeViolationError{
					EntityID:        rec.hit.EntityID,
					EntityOwner:     rec.hit.OwnerID,
					RequestingOwner: params.OwnerID,
				}
				log.Errorf("[Neo4j] %v", violation)
				continue
			}
			hits = append(hits, rec.hit)
		}
		return hits, res.Err()
	})
	if err != nil {
		log.Errorf("[Neo4j] Traversal failed: %v", err)
		return nil, apperrors.NewStoreError("neo4j", "traverse",
			fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err))
	}

	hits := result.([]interfaces.GraphHit)
	log.Debugf("[Neo4j] Traversal from %d seeds returned %d hits", len(params.SeedIDs), len(hits))
	return hits, nil
}

type hitRecord struct {
	hit        interfaces.GraphHit
	sharedWith []string
}

func (r hitRecord) visibleTo(ownerID string) bool {
	if r.hit.OwnerID == ownerID {
		return true
	}
	for _, shared := range r.sharedWith {
		if shared == ownerID {
			return true
		}
	}
	return false
}

func recordToHit(record *neo4j.Record) (hitRecord, error) {
	var rec hitRecord

	entityID, ok := stringField(record, "entity_id")
	if !ok {
		return rec, fmt.Errorf("missing entity_id")
	}
	seedID, ok := stringField(record, "seed_id")
	if !ok {
		return rec, fmt.Errorf("missing seed_id")
	}
	ownerID, _ := stringField(record, "owner_id")
	entityType, _ := stringField(record, "entity_type")

	hopRaw, _ := record.Get("hop_count")
	hopCount, ok := hopRaw.(int64)
	if !ok || hopCount < 1 {
		return rec, fmt.Errorf("invalid hop_count for entity %s", entityID)
	}

	var path []types.RelationshipType
	if pathRaw, found := record.Get("path_types"); found {
		if typeList, ok := pathRaw.([]interface{}); ok {
			for _, item := range typeList {
				if name, ok := item.(string); ok {
					path = append(path, types.RelationshipType(name))
				}
			}
		}
	}

	if sharedRaw, found := record.Get("shared_with"); found {
		if sharedList, ok := sharedRaw.([]interface{}); ok {
			for _, item := range sharedList {
				if name, ok := item.(string); ok {
					rec.sharedWith = append(rec.sharedWith, name)
				}
			}
		}
	}

	rec.hit = interfaces.GraphHit{
		EntityID:   entityID,
		EntityType: types.EntityType(entityType),
		OwnerID:    ownerID,
		HopCount:   int(hopCount),
		Path:       path,
		SeedID:     seedID,
	}
	return rec, nil
}

func stringField(record *neo4j.Record, key string) (string, bool) {
	raw, found := record.Get(key)
	if !found {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}
