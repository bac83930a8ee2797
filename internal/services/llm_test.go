package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel replies with the queued outputs in order and records every conversation.
type scriptedModel struct {
	replies []string
	err     error
	calls   [][]ChatMessage
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Complete(_ context.Context, messages []ChatMessage) (string, error) {
	snapshot := append([]ChatMessage(nil), messages...)
	m.calls = append(m.calls, snapshot)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func TestGenerateStructuredFirstAttempt(t *testing.T) {
	model := &scriptedModel{replies: []string{"```json\n{\"justification\":\"Strong Java background\"}\n```"}}
	llm := NewStructuredLLM(model, nil)

	out, err := llm.GenerateStructured(context.Background(), ChatContext{SystemPrompt: "sys", UserMessage: "q", Context: "ctx"})
	require.NoError(t, err)
	assert.Equal(t, "Strong Java background", out.Justification)

	require.Len(t, model.calls, 1)
	roles := []ChatRole{}
	for _, m := range model.calls[0] {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []ChatRole{RoleSystem, RoleSystem, RoleUser}, roles)
}

func TestGenerateStructuredRetriesWithCorrection(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"I think the best is Ana.",
		`<think>fix it</think>{"selected_candidate":{"candidate_id":"c-1","rank":1},"justification":"Ana leads"}`,
	}}
	llm := NewStructuredLLM(model, nil)

	out, err := llm.GenerateStructured(context.Background(), ChatContext{SystemPrompt: "sys", UserMessage: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Ana leads", out.Justification)
	require.NotNil(t, out.SelectedCandidate)
	assert.Equal(t, "c-1", out.SelectedCandidate.CandidateID)

	require.Len(t, model.calls, 2)
	retry := model.calls[1]
	require.Len(t, retry, 4)
	assert.Equal(t, ChatMessage{Role: RoleAssistant, Content: "I think the best is Ana."}, retry[2])
	assert.Equal(t, RoleUser, retry[3].Role)
	assert.Equal(t, correctivePrompt, retry[3].Content)
}

func TestGenerateStructuredFailsAfterTwoAttempts(t *testing.T) {
	model := &scriptedModel{replies: []string{"nope", `{"justification":""}`, `{"justification":"never asked"}`}}
	llm := NewStructuredLLM(model, nil)

	_, err := llm.GenerateStructured(context.Background(), ChatContext{SystemPrompt: "sys", UserMessage: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuredOutput)

	var outErr *LLMOutputError
	require.True(t, errors.As(err, &outErr))
	assert.Equal(t, 2, outErr.Attempts)
	assert.Equal(t, `{"justification":""}`, outErr.RawOutput)
	assert.Len(t, model.calls, 2)
}

func TestGenerateStructuredPropagatesTransportErrors(t *testing.T) {
	boom := errors.New("connection refused")
	llm := NewStructuredLLM(&scriptedModel{err: boom}, nil)

	_, err := llm.GenerateStructured(context.Background(), ChatContext{SystemPrompt: "sys", UserMessage: "q"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrStructuredOutput)
}
