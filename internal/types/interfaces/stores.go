package interfaces

import (
	"context"

	"github.com/mnemo-ai/mnemo/internal/types"
)

// VectorSearchParams carries one Stage-1 lookup: a single embedded key phrase
// queried against the vector store under a mandatory owner filter.
type VectorSearchParams struct {
	Embedding  []float32
	OwnerID    string
	TypeFilter []types.EntityType // empty means all types
	TopK       int
	Threshold  float64 // minimum similarity, 0 disables
}

// VectorStore is the Stage-1 backing store. Implementations must apply the
// owner filter inside the query; callers re-verify it regardless.
type VectorStore interface {
	Search(ctx context.Context, params VectorSearchParams) ([]types.RetrievalCandidate, error)
	IsAvailable(ctx context.Context) bool
}

// TraverseParams carries one Stage-2 traversal from a set of seeds. Queries are
// selected from a closed template table, never assembled free-form.
type TraverseParams struct {
	SeedIDs    []string
	OwnerID    string
	MaxHops    int
	AllowTypes []types.RelationshipType // empty means the full taxonomy
}

// GraphHit is a raw traversal record before dedup and scoring.
type GraphHit struct {
	EntityID   string
	EntityType types.EntityType
	OwnerID    string
	HopCount   int
	Path       []types.RelationshipType
	SeedID     string
}

// GraphStore is the Stage-2 backing store.
type GraphStore interface {
	Traverse(ctx context.Context, params TraverseParams) ([]GraphHit, error)
	IsAvailable(ctx context.Context) bool
}

// RelationalStore is the Stage-3 backing store. FetchByIDs issues one batched
// query per entity type rather than per-ID round trips. IDs with no matching
// row are simply absent from the result; the caller treats them as data
// inconsistencies.
type RelationalStore interface {
	FetchByIDs(ctx context.Context, ownerID string, idsByType map[types.EntityType][]string) ([]*types.Entity, error)
	IsAvailable(ctx context.Context) bool
}

// Embedder turns key phrases into vectors. Assumed external; the retrieval core
// never trains or stores embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// TurnStateStore holds the augmented context echo for exactly one subsequent
// turn. Consume removes the value as it reads it.
type TurnStateStore interface {
	Put(ctx context.Context, conversationID string, amc *types.AugmentedMemoryContext) error
	Consume(ctx context.Context, conversationID string) (*types.AugmentedMemoryContext, error)
}
