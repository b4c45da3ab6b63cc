package types

import "time"

// RetrievalCandidate is a Stage-1 result: an entity surfaced by vector
// similarity against one or more key phrases. Similarity is the maximum across
// phrases, bounded to [0,1].
type RetrievalCandidate struct {
	EntityID   string     `json:"entity_id"`
	EntityType EntityType `json:"entity_type"`
	Similarity float64    `json:"similarity"`
}

// TraversalResult is a Stage-2 result: one record per entity reached from the
// seed set, deduplicated across paths (lowest hop count wins; ties go to the
// seed with higher similarity).
type TraversalResult struct {
	EntityID       string             `json:"entity_id"`
	EntityType     EntityType         `json:"entity_type"`
	HopCount       int                `json:"hop_count"`
	Path           []RelationshipType `json:"path"`
	SeedID         string             `json:"seed_id"`
	SeedSimilarity float64            `json:"seed_similarity"`
	TraversalScore float64            `json:"traversal_score"`
}

// RetrievedEntity is the normalized Stage-3 record handed to the response
// generator. Heterogeneous per-type relational shapes all flatten to this.
type RetrievedEntity struct {
	ID              string     `json:"id"`
	Type            EntityType `json:"type"`
	Title           string     `json:"title"`
	ContentExcerpt  string     `json:"content_excerpt"`
	ImportanceScore float64    `json:"importance_score"`
	CreatedAt       time.Time  `json:"created_at"`
	TraversalScore  float64    `json:"traversal_score"`
}

// ContextPayload is the bounded, ranked retrieval output for one turn. It is
// discarded after exactly one downstream turn.
type ContextPayload struct {
	Entities     []RetrievedEntity  `json:"entities"`
	CountsByType map[EntityType]int `json:"counts_by_type"`
	Truncated    bool               `json:"truncated"`

	// DegradedStages names the pipeline stages that fell back because a
	// backing store was slow or unavailable. Empty on a clean run.
	DegradedStages []string `json:"degraded_stages,omitempty"`
}

// EmptyContextPayload returns a payload with no entities, as produced when
// every stage degraded or Stage 1 found nothing.
func EmptyContextPayload() *ContextPayload {
	return &ContextPayload{
		Entities:     []RetrievedEntity{},
		CountsByType: map[EntityType]int{},
	}
}
