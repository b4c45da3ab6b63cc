package types

import "time"

// EntityType classifies a storable node. The set is closed; stores index on it
// and the hydration layer selects a table per type.
type EntityType string

const (
	EntityTypeConcept     EntityType = "concept"
	EntityTypeMemoryUnit  EntityType = "memory_unit"
	EntityTypeArtifact    EntityType = "artifact"
	EntityTypeGrowthEvent EntityType = "growth_event"
	EntityTypeCommunity   EntityType = "community"
	EntityTypeCard        EntityType = "card"
)

// AllEntityTypes lists every known entity type in hydration order.
var AllEntityTypes = []EntityType{
	EntityTypeConcept,
	EntityTypeMemoryUnit,
	EntityTypeArtifact,
	EntityTypeGrowthEvent,
	EntityTypeCommunity,
	EntityTypeCard,
}

// Entity is the supertype for everything storable. IDs are globally unique and
// immutable; an entity is owned exclusively by its creator and may additionally
// be visible to owners on its share allow-list.
type Entity struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Type            EntityType `json:"entity_type"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	ImportanceScore float64    `json:"importance_score"` // [0,10]
	SharedWith      []string   `json:"shared_with,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// VisibleTo reports whether the entity may be surfaced to the given owner:
// the owner created it or sits on its explicit share allow-list.
func (e *Entity) VisibleTo(ownerID string) bool {
	if e.OwnerID == ownerID {
		return true
	}
	for _, shared := range e.SharedWith {
		if shared == ownerID {
			return true
		}
	}
	return false
}
