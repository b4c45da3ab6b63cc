package turn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo/internal/types"
)

type fakeGate struct {
	decision types.Decision
	seen     []types.TurnState
}

func (f *fakeGate) Decide(_ context.Context, state types.TurnState) types.Decision {
	f.seen = append(f.seen, state)
	// Mirror the override rule: a present context always wins.
	if state.AugmentedContextPresent {
		return types.Decision{Kind: types.RespondDirectly}
	}
	return f.decision
}

type fakeRetrieval struct {
	payload *types.ContextPayload
	err     error
	calls   int
}

func (f *fakeRetrieval) Retrieve(_ context.Context, _ []string, _ string) (*types.ContextPayload, error) {
	f.calls++
	return f.payload, f.err
}

type fakeAssembler struct {
	echo      *types.AugmentedMemoryContext
	assembled *types.AugmentedMemoryContext
}

func (f *fakeAssembler) Assemble(_ context.Context, state types.TurnState, decision types.Decision,
	payload *types.ContextPayload,
) (*types.AugmentedMemoryContext, error) {
	f.assembled = &types.AugmentedMemoryContext{
		ConversationID: state.ConversationID,
		TurnID:         state.TurnID,
		Payload:        payload,
		KeyPhrases:     decision.KeyPhrases,
		Decision:       decision,
	}
	return f.assembled, nil
}

func (f *fakeAssembler) ConsumeEcho(context.Context, string) (*types.AugmentedMemoryContext, error) {
	echo := f.echo
	f.echo = nil
	return echo, nil
}

func TestProcessTurnRetrievesAndAssembles(t *testing.T) {
	gate := &fakeGate{decision: types.Decision{
		Kind:       types.QueryMemory,
		KeyPhrases: []string{"garden layout"},
	}}
	payload := types.EmptyContextPayload()
	retrieval := &fakeRetrieval{payload: payload}
	assembler := &fakeAssembler{}
	service := NewService(gate, retrieval, assembler)

	state := types.TurnState{ConversationID: "conv-1", TurnID: "t2", OwnerID: "owner-1",
		Utterance: "how is that garden plan going?"}
	amc, err := service.ProcessTurn(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, amc)

	assert.Equal(t, 1, retrieval.calls)
	assert.Same(t, payload, amc.Payload)
	assert.Equal(t, []string{"garden layout"}, amc.KeyPhrases)
	assert.Same(t, assembler.assembled, amc)
}

// A consumed echo marks the context present, the gate responds directly, and
// the echo itself is handed to the generator. No second retrieval happens.
func TestProcessTurnEchoForcesDirectResponse(t *testing.T) {
	gate := &fakeGate{decision: types.Decision{
		Kind:       types.QueryMemory,
		KeyPhrases: []string{"would retrieve without the echo"},
	}}
	retrieval := &fakeRetrieval{payload: types.EmptyContextPayload()}
	echo := &types.AugmentedMemoryContext{ConversationID: "conv-1", TurnID: "t1"}
	service := NewService(gate, retrieval, &fakeAssembler{echo: echo})

	amc, err := service.ProcessTurn(context.Background(),
		types.TurnState{ConversationID: "conv-1", TurnID: "t2", OwnerID: "owner-1"})
	require.NoError(t, err)

	assert.Same(t, echo, amc)
	assert.Zero(t, retrieval.calls)
	require.Len(t, gate.seen, 1)
	assert.True(t, gate.seen[0].AugmentedContextPresent)
}

func TestProcessTurnDirectResponseWithoutEcho(t *testing.T) {
	gate := &fakeGate{decision: types.Decision{Kind: types.RespondDirectly}}
	retrieval := &fakeRetrieval{}
	service := NewService(gate, retrieval, &fakeAssembler{})

	amc, err := service.ProcessTurn(context.Background(),
		types.TurnState{ConversationID: "conv-1", TurnID: "t1", OwnerID: "owner-1", Utterance: "hello"})
	require.NoError(t, err)

	assert.Nil(t, amc)
	assert.Zero(t, retrieval.calls)
}

func TestProcessTurnSurfacesRetrievalMisuse(t *testing.T) {
	gate := &fakeGate{decision: types.Decision{
		Kind:       types.QueryMemory,
		KeyPhrases: []string{"garden layout"},
	}}
	retrieval := &fakeRetrieval{err: errors.New("retrieve: owner ID is required")}
	service := NewService(gate, retrieval, &fakeAssembler{})

	_, err := service.ProcessTurn(context.Background(),
		types.TurnState{ConversationID: "conv-1", TurnID: "t2"})
	assert.Error(t, err)
}
