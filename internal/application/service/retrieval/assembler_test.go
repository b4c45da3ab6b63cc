package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo/internal/types"
)

type fakeTurnStateStore struct {
	stored map[string]*types.AugmentedMemoryContext
	fail   bool
}

func (f *fakeTurnStateStore) Put(_ context.Context, conversationID string, amc *types.AugmentedMemoryContext) error {
	if f.fail {
		return errDown
	}
	if f.stored == nil {
		f.stored = make(map[string]*types.AugmentedMemoryContext)
	}
	f.stored[conversationID] = amc
	return nil
}

func (f *fakeTurnStateStore) Consume(_ context.Context, conversationID string) (*types.AugmentedMemoryContext, error) {
	if f.fail {
		return nil, errDown
	}
	amc := f.stored[conversationID]
	delete(f.stored, conversationID)
	return amc, nil
}

func TestAssembleParksEcho(t *testing.T) {
	store := &fakeTurnStateStore{}
	assembler := NewAssembler(store)

	state := types.TurnState{ConversationID: "conv-1", TurnID: "turn-2"}
	decision := types.Decision{Kind: types.QueryMemory, KeyPhrases: []string{"garden layout", "raised beds"}}
	payload := types.EmptyContextPayload()
	payload.Entities = append(payload.Entities, types.RetrievedEntity{ID: "c1", Type: types.EntityTypeConcept})

	amc, err := assembler.Assemble(context.Background(), state, decision, payload)
	require.NoError(t, err)

	assert.Equal(t, "conv-1", amc.ConversationID)
	assert.Equal(t, decision.KeyPhrases, amc.KeyPhrases)
	assert.Same(t, payload, amc.Payload)
	assert.Same(t, amc, store.stored["conv-1"])
}

func TestAssembleNilPayloadBecomesEmpty(t *testing.T) {
	assembler := NewAssembler(&fakeTurnStateStore{})

	amc, err := assembler.Assemble(context.Background(),
		types.TurnState{ConversationID: "conv-1"}, types.Decision{Kind: types.RespondDirectly}, nil)
	require.NoError(t, err)
	require.NotNil(t, amc.Payload)
	assert.Empty(t, amc.Payload.Entities)
}

// A turn-state store outage must not fail the turn in either direction.
func TestAssemblerAbsorbsStoreFailures(t *testing.T) {
	assembler := NewAssembler(&fakeTurnStateStore{fail: true})

	amc, err := assembler.Assemble(context.Background(),
		types.TurnState{ConversationID: "conv-1"}, types.Decision{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, amc)

	echo, err := assembler.ConsumeEcho(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Nil(t, echo)
}

func TestConsumeEchoPassesThrough(t *testing.T) {
	store := &fakeTurnStateStore{stored: map[string]*types.AugmentedMemoryContext{
		"conv-1": {ConversationID: "conv-1", TurnID: "turn-1"},
	}}
	assembler := NewAssembler(store)

	echo, err := assembler.ConsumeEcho(context.Background(), "conv-1")
	require.NoError(t, err)
	require.NotNil(t, echo)
	assert.Equal(t, "turn-1", echo.TurnID)

	echo, err = assembler.ConsumeEcho(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Nil(t, echo)
}
