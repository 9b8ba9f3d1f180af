package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

type consequentialBatch struct {
	Questions []string `json:"questions" validate:"required,min=1,dive,required"`
}

type followupQuestion struct {
	Question string `json:"question" validate:"required"`
}

// Supplier generates interview questions through the language model.
type Supplier struct {
	store     *infrastructure.Store
	model     domain.LanguageModel
	validator *Validator
	log       *zap.Logger
}

func NewSupplier(store *infrastructure.Store, model domain.LanguageModel, v *Validator, log *zap.Logger) *Supplier {
	return &Supplier{store: store, model: model, validator: v, log: log}
}

func (s *Supplier) context(ctx context.Context, interviewID uint) (domain.CandidateProfile, string, error) {
	interview, err := s.store.GetInterview(ctx, interviewID)
	if err != nil {
		return domain.CandidateProfile{}, "", err
	}
	profile, err := interview.Profile()
	if err != nil {
		return domain.CandidateProfile{}, "", err
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return domain.CandidateProfile{}, "", err
	}
	return profile, settings.JobDescription, nil
}

// GenerateConsequential asks for count scenario questions and stores them as
// unasked. Calling it twice appends a second batch; callers gate on supply.
func (s *Supplier) GenerateConsequential(ctx context.Context, interviewID uint, count int) ([]domain.Question, error) {
	if count < 1 {
		return nil, domain.ErrValidation("question count must be at least 1")
	}
	profile, jd, err := s.context(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	raw, err := s.model.Complete(ctx, consequentialPrompt(profile, jd, count))
	if err != nil {
		return nil, domain.ErrUpstreamFailure(err, domain.TaskConsequential)
	}

	var batch consequentialBatch
	if body, err := ExtractJSON(raw); err == nil && strings.HasPrefix(body, "[") {
		// tolerate a bare array of strings
		raw = `{"questions":` + body + `}`
	}
	if err := decodeModelJSON(s.validator, raw, domain.TaskConsequential, &batch); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(batch.Questions))
	for _, q := range batch.Questions {
		if q = strings.TrimSpace(q); q != "" {
			texts = append(texts, q)
		}
	}
	if len(texts) > count {
		texts = texts[:count]
	}

	questions, err := s.store.InsertQuestions(ctx, interviewID, texts, domain.SourceConsequential)
	if err != nil {
		return nil, err
	}
	s.log.Info("consequential questions generated",
		zap.Uint("interview_id", interviewID),
		zap.Int("requested", count),
		zap.Int("stored", len(questions)),
	)
	return questions, nil
}

// GenerateFollowup builds one harder question from the most recent scored
// exchange and stores it unasked.
func (s *Supplier) GenerateFollowup(ctx context.Context, interviewID uint) (*domain.Question, error) {
	last, err := s.store.LastScoredExchange(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, domain.ErrPrecondition("cannot generate follow-up: no previous answer")
	}
	profile, jd, err := s.context(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	raw, err := s.model.Complete(ctx, followupPrompt(profile, jd, *last))
	if err != nil {
		return nil, domain.ErrUpstreamFailure(err, domain.TaskFollowup)
	}

	var out followupQuestion
	var bare string
	if json.Unmarshal([]byte(stripCodeFence(strings.TrimSpace(raw))), &bare) == nil {
		// a bare JSON string is accepted as well
		out.Question = bare
	} else if err := decodeModelJSON(s.validator, raw, domain.TaskFollowup, &out); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(out.Question)
	if text == "" {
		return nil, domain.ErrUpstreamFormat(errNoJSON, domain.TaskFollowup)
	}

	questions, err := s.store.InsertQuestions(ctx, interviewID, []string{text}, domain.SourceFollowup)
	if err != nil {
		return nil, err
	}
	s.log.Info("follow-up question generated", zap.Uint("interview_id", interviewID), zap.Uint("question_id", questions[0].ID))
	return &questions[0], nil
}
