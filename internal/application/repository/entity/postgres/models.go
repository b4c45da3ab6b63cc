package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mnemo-ai/mnemo/internal/types"
)

// StringList stores a string slice as a jsonb column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// EntityColumns are the columns shared by every entity table.
type EntityColumns struct {
	ID              string     `gorm:"column:id;primaryKey"`
	OwnerID         string     `gorm:"column:owner_id;index"`
	ImportanceScore float64    `gorm:"column:importance_score"`
	SharedWith      StringList `gorm:"column:shared_with;type:jsonb"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

// ConceptModel is an abstract idea or topic the user has engaged with.
type ConceptModel struct {
	EntityColumns
	Name        string `gorm:"column:name"`
	Description string `gorm:"column:description"`
}

func (ConceptModel) TableName() string { return "concepts" }

// MemoryUnitModel is a recorded conversational or experiential memory.
type MemoryUnitModel struct {
	EntityColumns
	Title      string    `gorm:"column:title"`
	Narrative  string    `gorm:"column:narrative"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (MemoryUnitModel) TableName() string { return "memory_units" }

// ArtifactModel is a user-produced or user-referenced piece of content.
type ArtifactModel struct {
	EntityColumns
	Title  string `gorm:"column:title"`
	Body   string `gorm:"column:body"`
	Medium string `gorm:"column:medium"`
}

func (ArtifactModel) TableName() string { return "artifacts" }

// GrowthEventModel marks a milestone on one of the user's growth dimensions.
type GrowthEventModel struct {
	EntityColumns
	Label     string `gorm:"column:label"`
	Details   string `gorm:"column:details"`
	Dimension string `gorm:"column:dimension"`
}

func (GrowthEventModel) TableName() string { return "growth_events" }

// CommunityModel is a cluster of related entities detected by the analysis side.
type CommunityModel struct {
	EntityColumns
	Name    string `gorm:"column:name"`
	Summary string `gorm:"column:summary"`
}

func (CommunityModel) TableName() string { return "communities" }

// CardModel is a reviewable knowledge card derived from other entities.
type CardModel struct {
	EntityColumns
	Front string `gorm:"column:front"`
	Back  string `gorm:"column:back"`
}

func (CardModel) TableName() string { return "cards" }

func (c *EntityColumns) toEntity(entityType types.EntityType, title, content string) *types.Entity {
	return &types.Entity{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		Type:            entityType,
		Title:           title,
		Content:         content,
		ImportanceScore: c.ImportanceScore,
		SharedWith:      c.SharedWith,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
