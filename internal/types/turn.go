package types

// Turn is a single utterance in the conversation history.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// TurnState is the per-turn input to the decision gate. It is an explicit value,
// not flags scattered across a larger conversational object, so the gate stays a
// pure function over it.
type TurnState struct {
	ConversationID string `json:"conversation_id"`
	TurnID         string `json:"turn_id"`
	OwnerID        string `json:"owner_id"`
	Utterance      string `json:"utterance"`
	RecentHistory  []Turn `json:"recent_history"`

	// AugmentedContextPresent is true when the previous turn attached a memory
	// context. It forces a direct response: at most one retrieval round-trip
	// per information need.
	AugmentedContextPresent bool `json:"augmented_memory_context_present"`

	// LowGroundingSignal is the response generator's own report that it lacks
	// required context for this utterance.
	LowGroundingSignal bool `json:"low_grounding_signal"`
}

// DecisionKind is the outcome of the per-turn gate.
type DecisionKind string

const (
	RespondDirectly DecisionKind = "respond_directly"
	QueryMemory     DecisionKind = "query_memory"
)

// Decision is the gate output. KeyPhrases is nil unless Kind is QueryMemory.
type Decision struct {
	Kind       DecisionKind `json:"kind"`
	KeyPhrases []string     `json:"key_phrases,omitempty"`

	// FiredPredicates records which utterance predicates triggered the
	// retrieval, for audit logging. Empty for direct responses.
	FiredPredicates []string `json:"fired_predicates,omitempty"`
}

// AugmentedMemoryContext is the object handed to the response generator and
// echoed back as turn state for exactly one subsequent turn.
type AugmentedMemoryContext struct {
	ConversationID string          `json:"conversation_id"`
	TurnID         string          `json:"turn_id"`
	Payload        *ContextPayload `json:"payload"`
	KeyPhrases     []string        `json:"key_phrases"`
	Decision       Decision        `json:"decision"`
}
