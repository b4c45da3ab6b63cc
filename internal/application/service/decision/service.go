package decision

import (
	"context"

	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/internal/types"
	"github.com/mnemo-ai/mnemo/internal/types/interfaces"
)

// DecisionGate implements the per-turn two-state automaton: a turn without an
// attached context may transition to memory lookup; a turn whose state carries
// a context always resolves to a direct response for that information need.
type DecisionGate struct{}

// NewDecisionGate creates the gate.
func NewDecisionGate() interfaces.DecisionService {
	return &DecisionGate{}
}

// Decide evaluates the gate in strict priority order. It is a pure function of
// the turn state: no hidden randomness, identical input gives identical output.
func (g *DecisionGate) Decide(ctx context.Context, state types.TurnState) types.Decision {
	// Override rule: an attached context resolves the information need this
	// turn, unconditionally. At most one retrieval round-trip per need.
	if state.AugmentedContextPresent {
		return types.Decision{Kind: types.RespondDirectly}
	}

	if isNoise(state.Utterance) {
		return types.Decision{Kind: types.RespondDirectly}
	}

	analysis, err := analyze(state.Utterance)
	if err != nil {
		// Ambiguity defaults conservatively to a direct response: the bias is
		// against over-querying.
		logger.Warnf(ctx, "[Decision] Utterance analysis failed, responding directly: %v", err)
		return types.Decision{Kind: types.RespondDirectly}
	}

	var fired []string
	if namedEntityMention(analysis) {
		fired = append(fired, predNamedEntity)
	}
	if possessiveReference(analysis) {
		fired = append(fired, predPossessive)
	}
	if genericBackReference(analysis) {
		fired = append(fired, predBackReference)
	}
	if completionStatement(analysis) {
		fired = append(fired, predCompletion)
	}
	if temporalBackReference(analysis) {
		fired = append(fired, predTemporal)
	}
	if state.LowGroundingSignal {
		fired = append(fired, predLowGrounding)
	}

	if len(fired) == 0 {
		return types.Decision{Kind: types.RespondDirectly}
	}

	phrases := generateKeyPhrases(analysis, state.RecentHistory)
	if len(phrases) < minKeyPhrases {
		// Predicates fired but nothing specific enough to search for.
		logger.Debugf(ctx, "[Decision] Predicates %v fired but no usable key phrases, responding directly", fired)
		return types.Decision{Kind: types.RespondDirectly}
	}

	logger.Debugf(ctx, "[Decision] query_memory: predicates=%v phrases=%d", fired, len(phrases))
	return types.Decision{
		Kind:            types.QueryMemory,
		KeyPhrases:      phrases,
		FiredPredicates: fired,
	}
}
