package turn

import (
	"context"

	"github.com/google/uuid"

	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// Service sequences the per-turn memory flow in front of the response
// generator: consume the previous turn's context echo, run the decision gate,
// run retrieval when the gate fires, and park the result for the next turn.
type Service struct {
	gate      interfaces.DecisionService
	retrieval interfaces.RetrievalService
	assembler interfaces.ContextAssembler
}

// NewService creates the turn service.
func NewService(gate interfaces.DecisionService, retrieval interfaces.RetrievalService,
	assembler interfaces.ContextAssembler,
) interfaces.TurnService {
	return &Service{
		gate:      gate,
		retrieval: retrieval,
		assembler: assembler,
	}
}

// ProcessTurn returns the augmented context for this turn, or nil when the
// generator should answer unaugmented. A consumed echo forces a direct
// response, so one information need costs at most one retrieval round-trip.
func (s *Service) ProcessTurn(ctx context.Context, state types.TurnState) (*types.AugmentedMemoryContext, error) {
	log := logger.GetLogger(ctx)
	if state.TurnID == "" {
		// Hosts that don't track turn IDs still get a usable audit trail.
		state.TurnID = uuid.New().String()
	}

	echo, err := s.assembler.ConsumeEcho(ctx, state.ConversationID)
	if err != nil {
		log.Warnf("[Turn] Echo lookup failed for conversation %s: %v", state.ConversationID, err)
	}
	if echo != nil {
		state.AugmentedContextPresent = true
	}

	decision := s.gate.Decide(ctx, state)
	if decision.Kind == types.RespondDirectly {
		log.Debugf("[Turn] Responding directly for conversation %s turn %s (echo=%v)",
			state.ConversationID, state.TurnID, echo != nil)
		return echo, nil
	}

	log.Infof("[Turn] Retrieval triggered for conversation %s turn %s, predicates=%v",
		state.ConversationID, state.TurnID, decision.FiredPredicates)

	payload, err := s.retrieval.Retrieve(ctx, decision.KeyPhrases, state.OwnerID)
	if err != nil {
		// Store failures degrade inside the pipeline; an error here is
		// caller misuse and must surface.
		return nil, err
	}

	return s.assembler.Assemble(ctx, state, decision, payload)
}
