package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mnemo-ai/mnemo/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "entities.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ConceptModel{}, &MemoryUnitModel{}, &ArtifactModel{},
		&GrowthEventModel{}, &CommunityModel{}, &CardModel{},
	))
	return db
}

func columns(id, ownerID string, importance float64, sharedWith []string) EntityColumns {
	return EntityColumns{
		ID:              id,
		OwnerID:         ownerID,
		ImportanceScore: importance,
		SharedWith:      sharedWith,
		CreatedAt:       time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchByIDsAcrossTypes(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&ConceptModel{
		EntityColumns: columns("c1", "owner-1", 7, nil),
		Name:          "gardening",
		Description:   "growing vegetables at home",
	}).Error)
	require.NoError(t, db.Create(&MemoryUnitModel{
		EntityColumns: columns("m1", "owner-1", 5, nil),
		Title:         "first harvest",
		Narrative:     "picked the first tomatoes",
	}).Error)
	require.NoError(t, db.Create(&CardModel{
		EntityColumns: columns("k1", "owner-1", 3, nil),
		Front:         "companion planting",
		Back:          "basil next to tomatoes",
	}).Error)
	store := NewRelationalStore(db)

	entities, err := store.FetchByIDs(context.Background(), "owner-1", map[types.EntityType][]string{
		types.EntityTypeConcept:    {"c1"},
		types.EntityTypeMemoryUnit: {"m1"},
		types.EntityTypeCard:       {"k1"},
	})
	require.NoError(t, err)
	require.Len(t, entities, 3)

	byID := make(map[string]*types.Entity)
	for _, entity := range entities {
		byID[entity.ID] = entity
	}
	assert.Equal(t, "gardening", byID["c1"].Title)
	assert.Equal(t, "growing vegetables at home", byID["c1"].Content)
	assert.Equal(t, types.EntityTypeConcept, byID["c1"].Type)
	assert.Equal(t, "picked the first tomatoes", byID["m1"].Content)
	assert.Equal(t, "companion planting", byID["k1"].Title)
}

func TestFetchByIDsDropsForeignRows(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&ConceptModel{
		EntityColumns: columns("mine", "owner-1", 5, nil),
		Name:          "mine",
	}).Error)
	require.NoError(t, db.Create(&ConceptModel{
		EntityColumns: columns("theirs", "owner-2", 5, nil),
		Name:          "theirs",
	}).Error)
	store := NewRelationalStore(db)

	// An adversarial ID list naming another owner's row must not leak it.
	entities, err := store.FetchByIDs(context.Background(), "owner-1", map[types.EntityType][]string{
		types.EntityTypeConcept: {"mine", "theirs"},
	})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "mine", entities[0].ID)
}

func TestFetchByIDsHonorsShareList(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&ArtifactModel{
		EntityColumns: columns("shared", "owner-2", 5, []string{"owner-1", "owner-3"}),
		Title:         "reading list",
		Body:          "books we both liked",
	}).Error)
	store := NewRelationalStore(db)

	entities, err := store.FetchByIDs(context.Background(), "owner-1", map[types.EntityType][]string{
		types.EntityTypeArtifact: {"shared"},
	})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "owner-2", entities[0].OwnerID)
	assert.Equal(t, []string{"owner-1", "owner-3"}, entities[0].SharedWith)
}

func TestFetchByIDsLeavesMissingRowsAbsent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&ConceptModel{
		EntityColumns: columns("c1", "owner-1", 5, nil),
		Name:          "present",
	}).Error)
	store := NewRelationalStore(db)

	entities, err := store.FetchByIDs(context.Background(), "owner-1", map[types.EntityType][]string{
		types.EntityTypeConcept: {"c1", "gone"},
	})
	require.NoError(t, err)
	assert.Len(t, entities, 1)
}

func TestFetchByIDsEmptyRequest(t *testing.T) {
	store := NewRelationalStore(newTestDB(t))

	entities, err := store.FetchByIDs(context.Background(), "owner-1", nil)
	require.NoError(t, err)
	assert.Empty(t, entities)
}
