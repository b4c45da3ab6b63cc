package interfaces

import (
	"context"

	"github.com/mnemo-ai/mnemo/internal/types"
)

// DecisionService decides per turn whether memory lookup is needed and, when it
// is, produces the retrieval key phrases.
type DecisionService interface {
	// Decide is a pure function of the turn state: identical input yields an
	// identical decision.
	Decide(ctx context.Context, state types.TurnState) types.Decision
}

// RetrievalService runs the three-stage pipeline for one turn.
type RetrievalService interface {
	// Retrieve executes Stage 1 (vector), Stage 2 (graph), Stage 3 (hydration)
	// under the overall turn deadline. Store failures degrade stages; they
	// never surface as an error. The returned payload is owner-scoped.
	Retrieve(ctx context.Context, keyPhrases []string, ownerID string) (*types.ContextPayload, error)
}

// TurnService runs the full memory flow for one conversational turn: pop the
// previous turn's echo, run the decision gate, retrieve when it fires, and
// assemble the augmented context.
type TurnService interface {
	// ProcessTurn returns the context the response generator should see for
	// this turn, or nil when the turn needs no memory augmentation. Store
	// failures never fail the turn.
	ProcessTurn(ctx context.Context, state types.TurnState) (*types.AugmentedMemoryContext, error)
}

// ContextAssembler packages the pipeline output for the response generator and
// parks the echo that drives the next turn's override rule.
type ContextAssembler interface {
	Assemble(ctx context.Context, state types.TurnState, decision types.Decision,
		payload *types.ContextPayload) (*types.AugmentedMemoryContext, error)

	// ConsumeEcho pops the context attached by the previous turn, if any.
	// A context is observable for exactly one subsequent turn.
	ConsumeEcho(ctx context.Context, conversationID string) (*types.AugmentedMemoryContext, error)
}
