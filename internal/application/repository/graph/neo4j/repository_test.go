package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo/internal/types"
)

func traversalRecord(values map[string]interface{}) *neo4j.Record {
	keys := []string{"seed_id", "entity_id", "entity_type", "owner_id", "shared_with", "hop_count", "path_types"}
	record := &neo4j.Record{Keys: keys}
	for _, key := range keys {
		record.Values = append(record.Values, values[key])
	}
	return record
}

func TestRecordToHit(t *testing.T) {
	rec, err := recordToHit(traversalRecord(map[string]interface{}{
		"seed_id":     "seed-1",
		"entity_id":   "m1",
		"entity_type": "memory_unit",
		"owner_id":    "owner-1",
		"shared_with": []interface{}{"owner-2"},
		"hop_count":   int64(2),
		"path_types":  []interface{}{"RELATED_TO", "MENTIONS"},
	}))
	require.NoError(t, err)

	assert.Equal(t, "m1", rec.hit.EntityID)
	assert.Equal(t, types.EntityTypeMemoryUnit, rec.hit.EntityType)
	assert.Equal(t, "seed-1", rec.hit.SeedID)
	assert.Equal(t, 2, rec.hit.HopCount)
	assert.Equal(t, []types.RelationshipType{types.RelRelatedTo, types.RelMentions}, rec.hit.Path)
	assert.Equal(t, []string{"owner-2"}, rec.sharedWith)
}

func TestRecordToHitRejectsMalformedRecords(t *testing.T) {
	_, err := recordToHit(traversalRecord(map[string]interface{}{
		"seed_id":   "seed-1",
		"hop_count": int64(1),
	}))
	assert.Error(t, err, "missing entity_id")

	_, err = recordToHit(traversalRecord(map[string]interface{}{
		"seed_id":   "seed-1",
		"entity_id": "m1",
		"hop_count": int64(0),
	}))
	assert.Error(t, err, "hop_count below traversal minimum")
}

func TestHitRecordVisibility(t *testing.T) {
	owned := hitRecord{}
	owned.hit.OwnerID = "owner-1"
	assert.True(t, owned.visibleTo("owner-1"))
	assert.False(t, owned.visibleTo("owner-2"))

	shared := hitRecord{sharedWith: []string{"owner-2"}}
	shared.hit.OwnerID = "owner-1"
	assert.True(t, shared.visibleTo("owner-2"))
	assert.False(t, shared.visibleTo("owner-3"))
}
