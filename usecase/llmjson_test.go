package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interviewer/domain"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "code fence", raw: "```json\n{\"a\": [1, 2]}\n```", want: `{"a": [1, 2]}`},
		{name: "prose around", raw: `Sure! Here it is: {"q": "x"} hope that helps {"b":2}`, want: `{"q": "x"}`},
		{name: "braces inside strings", raw: `{"q": "use {braces} and \"quotes\" ]"}`, want: `{"q": "use {braces} and \"quotes\" ]"}`},
		{name: "array", raw: `["one", "two"] trailing`, want: `["one", "two"]`},
		{name: "nested", raw: `{"a": {"b": [ {"c": 1} ]}}`, want: `{"a": {"b": [ {"c": 1} ]}}`},
		{name: "fence without language tag", raw: "```{\"question\": \"x\"}\n```", want: `{"question": "x"}`},
		{name: "fence with json on tag line", raw: "```json {\"a\": 1}```", want: `{"a": 1}`},
		{name: "object after array", raw: `Note [1]: {"a":1}`, want: `{"a":1}`},
		{name: "array of objects", raw: `[{"a": 1}, {"b": 2}]`, want: `[{"a": 1}, {"b": 2}]`},
		{name: "braces inside array strings", raw: `["use {x}", "y"]`, want: `["use {x}", "y"]`},
		{name: "unbalanced bracket before object", raw: `see [1 then {"a": 2}`, want: `{"a": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONFailures(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"a": 1`, `{"a": ]}`} {
		_, err := ExtractJSON(raw)
		assert.Error(t, err, raw)
	}
}

func TestDecodeModelJSONRejectsSchemaMismatch(t *testing.T) {
	v := NewValidator()

	var out modelEvaluation
	err := decodeModelJSON(v, `{"score": 9, "is_vague": false}`, domain.TaskEvaluate, &out)
	requireCode(t, err, domain.CodeUpstreamFormat)

	appErr, _ := domain.AsAppError(err)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "score")
}

func TestDecodeModelJSONMissingRequiredBool(t *testing.T) {
	var out modelEvaluation
	err := decodeModelJSON(NewValidator(), `{"score": 3}`, domain.TaskEvaluate, &out)
	requireCode(t, err, domain.CodeUpstreamFormat)
}

func TestDecodeModelJSONConfidenceRange(t *testing.T) {
	var out modelEvaluation
	err := decodeModelJSON(NewValidator(),
		`{"score": 3, "is_vague": false, "skill_confidence": {"Go": 101}}`, domain.TaskEvaluate, &out)
	requireCode(t, err, domain.CodeUpstreamFormat)
}
