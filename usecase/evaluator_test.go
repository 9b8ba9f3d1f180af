package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ai-interviewer/domain"
)

func TestEvaluateVagueAnswerRequiresRetryOnce(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskEvaluate, fxVague)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "Design a ledger.")

	first, err := h.evaluator.Evaluate(h.ctx, "Design a ledger.", "it depends", id, qid)
	require.NoError(t, err)
	assert.True(t, first.RetryRequired)
	assert.Equal(t, "No concrete design.", first.RejectReason)

	answer, err := h.store.GetAnswer(h.ctx, qid)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Nil(t, answer.Score)
	assert.True(t, answer.RetryUsed)

	second, err := h.evaluator.Evaluate(h.ctx, "Design a ledger.", "still depends", id, qid)
	require.NoError(t, err)
	assert.False(t, second.RetryRequired)
	assert.Equal(t, 1, second.Score)

	answer, err = h.store.GetAnswer(h.ctx, qid)
	require.NoError(t, err)
	require.NotNil(t, answer.Score)
	assert.Equal(t, 1, *answer.Score)
	assert.True(t, answer.RetryUsed, "retry flag never resets")
	assert.Equal(t, "still depends", answer.Text)
}

func TestEvaluateVagueRetryLeavesSkillsUntouched(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskEvaluate,
		`{"score": 1, "is_vague": true, "skill_confidence": {"Go": 10}, "reject_reason": "too short"}`)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")

	_, err := h.evaluator.Evaluate(h.ctx, "q", "meh", id, qid)
	require.NoError(t, err)

	skills, err := h.store.ListSkills(h.ctx, id)
	require.NoError(t, err)
	for _, s := range skills {
		assert.Nil(t, s.ConfidenceScore, s.Name)
	}
}

func TestEvaluateAcceptedAnswerUpsertsSkills(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskEvaluate,
		`{"score": 5, "is_vague": false, "skill_confidence": {"Go": 85, "Rust": 40}, "feedback": "great"}`)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")

	result, err := h.evaluator.Evaluate(h.ctx, "q", "a detailed answer", id, qid)
	require.NoError(t, err)
	assert.False(t, result.RetryRequired)
	assert.Equal(t, 5, result.Score)
	assert.Equal(t, "great", result.Feedback)

	skills, err := h.store.ListSkills(h.ctx, id)
	require.NoError(t, err)
	byName := map[string]domain.Skill{}
	for _, s := range skills {
		byName[s.Name] = s
	}

	require.NotNil(t, byName["Go"].ConfidenceScore)
	assert.Equal(t, 85, *byName["Go"].ConfidenceScore)
	assert.Equal(t, 90, byName["Go"].ImportanceScore)

	require.Contains(t, byName, "Rust")
	assert.Equal(t, domain.FallbackImportance, byName["Rust"].ImportanceScore)
	assert.Equal(t, 40, *byName["Rust"].ConfidenceScore)

	assert.Nil(t, byName["Kafka"].ConfidenceScore)
}

func TestEvaluateConfidenceLastWriteWins(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)

	h.model.on(domain.TaskEvaluate, `{"score": 4, "is_vague": false, "skill_confidence": {"Go": 30}}`)
	q1 := h.servedQuestion(t, id, "q1")
	_, err := h.evaluator.Evaluate(h.ctx, "q1", "a", id, q1)
	require.NoError(t, err)

	h.model.on(domain.TaskEvaluate, `{"score": 4, "is_vague": false, "skill_confidence": {"Go": 70}}`)
	q2 := h.servedQuestion(t, id, "q2")
	_, err = h.evaluator.Evaluate(h.ctx, "q2", "a", id, q2)
	require.NoError(t, err)

	skills, err := h.store.ListSkills(h.ctx, id)
	require.NoError(t, err)
	for _, s := range skills {
		if s.Name == "Go" {
			assert.Equal(t, 70, *s.ConfidenceScore)
		}
	}
}

func TestEvaluateMalformedOutputIsFatal(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskEvaluate, "I think this answer is good, 4/5")
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")

	_, err := h.evaluator.Evaluate(h.ctx, "q", "answer", id, qid)
	requireCode(t, err, domain.CodeUpstreamFormat)

	answer, err := h.store.GetAnswer(h.ctx, qid)
	require.NoError(t, err)
	assert.Nil(t, answer)
}

func TestEvaluateVagueWithoutReasonIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskEvaluate, `{"score": 1, "is_vague": true, "reject_reason": " "}`)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")

	_, err := h.evaluator.Evaluate(h.ctx, "q", "answer", id, qid)
	requireCode(t, err, domain.CodeUpstreamFormat)
}

func TestEvaluateModelFailure(t *testing.T) {
	h := newHarness(t)
	h.model.fail(domain.TaskEvaluate, errModelDown)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")

	_, err := h.evaluator.Evaluate(h.ctx, "q", "answer", id, qid)
	requireCode(t, err, domain.CodeUpstreamFailure)
	assert.ErrorIs(t, err, errModelDown)
}

func TestEvaluateRejectsEmptyAnswer(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")

	_, err := h.evaluator.Evaluate(h.ctx, "q", "   ", id, qid)
	requireCode(t, err, domain.CodeValidationFailed)
	assert.Empty(t, h.model.callsFor(domain.TaskEvaluate))
}

func TestEvaluateClampsVagueScore(t *testing.T) {
	h := newHarness(t)
	h.model.on(domain.TaskEvaluate, `{"score": 3, "is_vague": true, "reject_reason": "generic"}`)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "q")
	core, logs := observer.New(zapcore.WarnLevel)
	evaluator := NewEvaluator(h.store, h.model, h.validator, zap.New(core))

	_, err := evaluator.Evaluate(h.ctx, "q", "first", id, qid)
	require.NoError(t, err)
	result, err := evaluator.Evaluate(h.ctx, "q", "second", id, qid)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 2, logs.FilterMessage("vague answer scored above 1, clamping").Len())
}

func TestEvaluatePromptCarriesContext(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.ReplaceJobDescription(h.ctx, "Staff engineer, payments"))
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "Design a ledger.")

	_, err := h.evaluator.Evaluate(h.ctx, "Design a ledger.", "double entry", id, qid)
	require.NoError(t, err)

	calls := h.model.callsFor(domain.TaskEvaluate)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].User, "Staff engineer, payments")
	assert.Contains(t, calls[0].User, "Ada Lovelace")
	assert.Contains(t, calls[0].User, "double entry")
}

func TestEvaluateScoredQuestionSkipsModel(t *testing.T) {
	h := newHarness(t)
	id := h.newInterview(t, h.candidate)
	qid := h.servedQuestion(t, id, "Design a ledger.")

	_, err := h.evaluator.Evaluate(h.ctx, "Design a ledger.", "double entry", id, qid)
	require.NoError(t, err)
	require.Len(t, h.model.callsFor(domain.TaskEvaluate), 1)

	_, err = h.evaluator.Evaluate(h.ctx, "Design a ledger.", "again", id, qid)
	requireCode(t, err, domain.CodePreconditionFailed)
	assert.Len(t, h.model.callsFor(domain.TaskEvaluate), 1)

	answer, err := h.store.GetAnswer(h.ctx, qid)
	require.NoError(t, err)
	assert.Equal(t, "double entry", answer.Text)
}
