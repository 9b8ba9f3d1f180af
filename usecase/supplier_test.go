package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interviewer/domain"
)

func TestGenerateConsequentialStoresUnaskedBatch(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)

	questions, err := h.supplier.GenerateConsequential(h.ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "Design a payment ledger.", questions[0].Text)

	unasked, err := h.store.CountQuestions(h.ctx, id, domain.SourceConsequential, false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unasked)

	calls := h.model.callsFor(domain.TaskConsequential)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].User, "Create 3 ")
}

func TestGenerateConsequentialAppendsOnRepeat(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)

	_, err := h.supplier.GenerateConsequential(h.ctx, id, 3)
	require.NoError(t, err)
	_, err = h.supplier.GenerateConsequential(h.ctx, id, 3)
	require.NoError(t, err)

	unasked, err := h.store.CountQuestions(h.ctx, id, domain.SourceConsequential, false)
	require.NoError(t, err)
	assert.EqualValues(t, 6, unasked)
}

func TestGenerateConsequentialKeepsRequestedCount(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)

	questions, err := h.supplier.GenerateConsequential(h.ctx, id, 2)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerateConsequentialAcceptsBareArray(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskConsequential, `["only one"]`)
	id := h.newInterview(t, h.candidate)

	questions, err := h.supplier.GenerateConsequential(h.ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "only one", questions[0].Text)
}

func TestGenerateConsequentialMalformed(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskConsequential, `{"questions": []}`)
	id := h.newInterview(t, h.candidate)

	_, err := h.supplier.GenerateConsequential(h.ctx, id, 3)
	requireCode(t, err, domain.CodeUpstreamFormat)

	n, err := h.store.CountQuestions(h.ctx, id, domain.SourceConsequential, false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerateConsequentialUnknownInterview(t *testing.T) {
	h := newHarness(t)
	_, err := h.supplier.GenerateConsequential(h.ctx, 999, 3)
	requireCode(t, err, domain.CodeNotFound)
}

func TestGenerateFollowupNeedsScoredAnswer(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)

	_, err := h.supplier.GenerateFollowup(h.ctx, id)
	requireCode(t, err, domain.CodePreconditionFailed)
	assert.Contains(t, err.Error(), "cannot generate follow-up: no previous answer")
	assert.Empty(t, h.model.callsFor(domain.TaskFollowup))
}

func TestGenerateFollowupUsesMostRecentScoredExchange(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)

	score := 3
	q1 := h.servedQuestion(t, id, "first question")
	require.NoError(t, h.store.SaveAnswer(h.ctx, q1, "first answer", &score, false))
	q2 := h.servedQuestion(t, id, "second question")
	require.NoError(t, h.store.SaveAnswer(h.ctx, q2, "second answer", &score, false))
	// awaiting retry, not scored
	q3 := h.servedQuestion(t, id, "third question")
	require.NoError(t, h.store.SaveAnswer(h.ctx, q3, "vague", nil, true))

	q, err := h.supplier.GenerateFollowup(h.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "How would the ledger survive a region outage?", q.Text)
	assert.Equal(t, domain.SourceFollowup, q.SourceType)
	assert.False(t, q.Asked)

	calls := h.model.callsFor(domain.TaskFollowup)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].User, "second answer")
	assert.NotContains(t, calls[0].User, "vague")
}

func TestGenerateFollowupScopedToInterview(t *testing.T) {
	h := newHarness(t)
	mine := h.newInterview(t, h.candidate)
	theirs := h.newInterview(t, h.other)
	h.scored(t, theirs, 5)

	_, err := h.supplier.GenerateFollowup(h.ctx, mine)
	requireCode(t, err, domain.CodePreconditionFailed)
}

func TestGenerateFollowupAcceptsBareString(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskFollowup, `"What breaks first under 10x load?"`)
	id := h.newInterview(t, h.candidate)
	h.scored(t, id, 4)

	q, err := h.supplier.GenerateFollowup(h.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "What breaks first under 10x load?", q.Text)
}

func TestGenerateFollowupMalformed(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskFollowup, `{"text": "wrong key"}`)
	id := h.newInterview(t, h.candidate)
	h.scored(t, id, 4)

	_, err := h.supplier.GenerateFollowup(h.ctx, id)
	requireCode(t, err, domain.CodeUpstreamFormat)
}
