package types

// RelationshipType is the closed taxonomy of edge types. Grouped by category:
// hierarchical, causal, temporal, associative, domain-specific, metaphorical,
// and a fallback. Graph queries only ever reference members of this set.
type RelationshipType string

const (
	// Hierarchical
	RelParentOf   RelationshipType = "PARENT_OF"
	RelChildOf    RelationshipType = "CHILD_OF"
	RelPartOf     RelationshipType = "PART_OF"
	RelInstanceOf RelationshipType = "INSTANCE_OF"

	// Causal
	RelCauses   RelationshipType = "CAUSES"
	RelCausedBy RelationshipType = "CAUSED_BY"
	RelEnables  RelationshipType = "ENABLES"
	RelPrevents RelationshipType = "PREVENTS"

	// Temporal
	RelPrecedes   RelationshipType = "PRECEDES"
	RelFollows    RelationshipType = "FOLLOWS"
	RelConcurrent RelationshipType = "CONCURRENT_WITH"

	// Associative
	RelRelatedTo   RelationshipType = "RELATED_TO"
	RelSimilarTo   RelationshipType = "SIMILAR_TO"
	RelContrastsTo RelationshipType = "CONTRASTS_WITH"
	RelMentions    RelationshipType = "MENTIONS"

	// Domain-specific
	RelAuthoredBy RelationshipType = "AUTHORED_BY"
	RelInvolves   RelationshipType = "INVOLVES"
	RelOccurredAt RelationshipType = "OCCURRED_AT"
	RelBelongsTo  RelationshipType = "BELONGS_TO"

	// Metaphorical
	RelMetaphorFor RelationshipType = "METAPHOR_FOR"

	// Fallback
	RelAssociated RelationshipType = "ASSOCIATED"
)

// AllRelationshipTypes lists every edge type in the taxonomy.
var AllRelationshipTypes = []RelationshipType{
	RelParentOf, RelChildOf, RelPartOf, RelInstanceOf,
	RelCauses, RelCausedBy, RelEnables, RelPrevents,
	RelPrecedes, RelFollows, RelConcurrent,
	RelRelatedTo, RelSimilarTo, RelContrastsTo, RelMentions,
	RelAuthoredBy, RelInvolves, RelOccurredAt, RelBelongsTo,
	RelMetaphorFor, RelAssociated,
}

// RelationshipEdge is a directed, typed edge between two entities. Strength is
// bounded to [0,1]; the description must stay semantically coherent with the
// type (verified by sampling, not machine-checked).
type RelationshipEdge struct {
	SourceID    string           `json:"source_id"`
	TargetID    string           `json:"target_id"`
	Type        RelationshipType `json:"relationship_type"`
	Strength    float64          `json:"strength"`
	Description string           `json:"description"`
}

// ValidRelationshipType reports whether t belongs to the closed taxonomy.
func ValidRelationshipType(t RelationshipType) bool {
	for _, known := range AllRelationshipTypes {
		if known == t {
			return true
		}
	}
	return false
}
