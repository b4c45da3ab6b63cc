package retrieval

import (
	"context"

	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// Assembler packages the pipeline output for the response generator and parks
// the echo that makes the next turn's override rule fire. Nothing is cached
// beyond that single echo: a later information need runs a fresh cycle.
type Assembler struct {
	turnStates interfaces.TurnStateStore
}

// NewAssembler creates the context assembler.
func NewAssembler(turnStates interfaces.TurnStateStore) interfaces.ContextAssembler {
	return &Assembler{turnStates: turnStates}
}

func (a *Assembler) Assemble(ctx context.Context, state types.TurnState, decision types.Decision,
	payload *types.ContextPayload,
) (*types.AugmentedMemoryContext, error) {
	if payload == nil {
		payload = types.EmptyContextPayload()
	}
	amc := &types.AugmentedMemoryContext{
		ConversationID: state.ConversationID,
		TurnID:         state.TurnID,
		Payload:        payload,
		KeyPhrases:     decision.KeyPhrases,
		Decision:       decision,
	}

	// The echo drives the next turn's override rule. Losing it costs at worst
	// one redundant retrieval, so a store failure is logged, not surfaced.
	if err := a.turnStates.Put(ctx, state.ConversationID, amc); err != nil {
		logger.Warnf(ctx, "[Assembler] Failed to park context echo for conversation %s: %v",
			state.ConversationID, err)
	}
	return amc, nil
}

func (a *Assembler) ConsumeEcho(ctx context.Context, conversationID string) (*types.AugmentedMemoryContext, error) {
	amc, err := a.turnStates.Consume(ctx, conversationID)
	if err != nil {
		logger.Warnf(ctx, "[Assembler] Failed to consume context echo for conversation %s: %v",
			conversationID, err)
		return nil, nil
	}
	return amc, nil
}
