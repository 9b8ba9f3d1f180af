package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

// Evaluation is the outcome of scoring one answer.
type Evaluation struct {
	Score           int
	IsVague         bool
	SkillConfidence map[string]int
	Feedback        string
	RejectReason    string
	RetryRequired   bool
}

// modelEvaluation is the schema the model must return.
type modelEvaluation struct {
	Score           *int           `json:"score" validate:"required,min=1,max=5"`
	IsVague         *bool          `json:"is_vague" validate:"required"`
	SkillConfidence map[string]int `json:"skill_confidence" validate:"dive,keys,required,endkeys,min=1,max=100"`
	Feedback        string         `json:"feedback"`
	RejectReason    string         `json:"reject_reason"`
}

func errAlreadyAnswered() error {
	return domain.ErrPrecondition("question has already been answered")
}

type Evaluator struct {
	store     *infrastructure.Store
	model     domain.LanguageModel
	validator *Validator
	log       *zap.Logger
}

func NewEvaluator(store *infrastructure.Store, model domain.LanguageModel, v *Validator, log *zap.Logger) *Evaluator {
	return &Evaluator{store: store, model: model, validator: v, log: log}
}

// Evaluate scores answerText and persists the outcome. A first vague answer
// stores the text with a nil score and asks for a retry; any other answer is
// finalized and its skill confidences are upserted.
func (e *Evaluator) Evaluate(ctx context.Context, questionText, answerText string, interviewID, questionID uint) (*Evaluation, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, domain.ErrValidation("answer must not be empty")
	}

	prev, err := e.store.GetAnswer(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.Score != nil {
		return nil, errAlreadyAnswered()
	}

	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	profile, err := interview.Profile()
	if err != nil {
		return nil, err
	}
	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := e.model.Complete(ctx, evaluationPrompt(profile, settings.JobDescription, questionText, answerText))
	if err != nil {
		return nil, domain.ErrUpstreamFailure(err, domain.TaskEvaluate)
	}

	var out modelEvaluation
	if err := decodeModelJSON(e.validator, raw, domain.TaskEvaluate, &out); err != nil {
		return nil, err
	}
	if *out.IsVague && strings.TrimSpace(out.RejectReason) == "" {
		return nil, domain.ErrUpstreamFormat(errors.New("vague answer without reject_reason"), domain.TaskEvaluate)
	}

	result := &Evaluation{
		Score:           *out.Score,
		IsVague:         *out.IsVague,
		SkillConfidence: out.SkillConfidence,
		Feedback:        out.Feedback,
		RejectReason:    out.RejectReason,
	}
	if result.IsVague && result.Score != 1 {
		e.log.Warn("vague answer scored above 1, clamping",
			zap.Uint("question_id", questionID),
			zap.Int("score", result.Score),
		)
		result.Score = 1
	}

	err = e.store.Transaction(ctx, func(tx *infrastructure.Store) error {
		prev, err := tx.GetAnswer(ctx, questionID)
		if err != nil {
			return err
		}
		// checked again in case a concurrent submission finished first
		if prev != nil && prev.Score != nil {
			return errAlreadyAnswered()
		}
		retryUsed := prev != nil && prev.RetryUsed

		if result.IsVague && !retryUsed {
			result.RetryRequired = true
			return tx.SaveAnswer(ctx, questionID, answerText, nil, true)
		}

		score := result.Score
		if err := tx.SaveAnswer(ctx, questionID, answerText, &score, retryUsed); err != nil {
			return err
		}
		for name, confidence := range result.SkillConfidence {
			inserted, err := tx.UpsertSkillConfidence(ctx, interviewID, name, confidence)
			if err != nil {
				return err
			}
			if inserted {
				e.log.Debug("skill first seen during evaluation",
					zap.Uint("interview_id", interviewID),
					zap.String("skill", name),
				)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("answer evaluated",
		zap.Uint("interview_id", interviewID),
		zap.Uint("question_id", questionID),
		zap.Int("score", result.Score),
		zap.Bool("vague", result.IsVague),
		zap.Bool("retry_required", result.RetryRequired),
	)
	return result, nil
}
