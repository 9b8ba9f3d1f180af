package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

// QuestionView is a question as served to the candidate.
type QuestionView struct {
	ID         uint              `json:"question_id"`
	Text       string            `json:"text"`
	SourceType domain.SourceType `json:"source_type"`
}

func viewOf(q *domain.Question) *QuestionView {
	return &QuestionView{ID: q.ID, Text: q.Text, SourceType: q.SourceType}
}

type SubmitResult struct {
	RetryRequired bool          `json:"retry_required"`
	Feedback      string        `json:"feedback,omitempty"`
	Score         *int          `json:"score,omitempty"`
	NextQuestion  *QuestionView `json:"next_question,omitempty"`
	Done          bool          `json:"done"`
}

type NextQuestionResult struct {
	Question *QuestionView `json:"question,omitempty"`
	Done     bool          `json:"done"`
}

// Engine drives an interview from its first question to completion.
type Engine struct {
	store     *infrastructure.Store
	evaluator *Evaluator
	supplier  *Supplier
	events    domain.EventPublisher
	locks     *keyLock
	log       *zap.Logger
}

func NewEngine(store *infrastructure.Store, evaluator *Evaluator, supplier *Supplier, events domain.EventPublisher, log *zap.Logger) *Engine {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Engine{
		store:     store,
		evaluator: evaluator,
		supplier:  supplier,
		events:    events,
		locks:     newKeyLock(),
		log:       log,
	}
}

// SubmitAnswer evaluates an answer to a served question and decides what
// happens next: retry, follow-up, next consequential question or completion.
func (e *Engine) SubmitAnswer(ctx context.Context, p domain.Principal, questionID uint, answerText string) (*SubmitResult, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, domain.ErrValidation("answer must not be empty")
	}

	question, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	interviewID := question.InterviewID

	unlock := e.locks.Lock(interviewID)
	defer unlock()

	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := authorizeInterview(p, interview); err != nil {
		return nil, err
	}
	if !interview.Status.AcceptsAnswers() {
		return nil, domain.ErrPrecondition(fmt.Sprintf("interview is %s and does not accept answers", interview.Status))
	}

	// re-read under the lock
	question, err = e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !question.Asked {
		return nil, domain.ErrPrecondition("question has not been served yet")
	}

	eval, err := e.evaluator.Evaluate(ctx, question.Text, answerText, interviewID, questionID)
	if err != nil {
		return nil, err
	}
	if eval.RetryRequired {
		return &SubmitResult{RetryRequired: true, Feedback: eval.RejectReason}, nil
	}

	score := eval.Score
	result := &SubmitResult{Feedback: eval.Feedback, Score: &score}

	started, err := e.store.TransitionStatus(ctx, interviewID, domain.StatusInProgress, domain.StatusGeneratingQuestions)
	if err != nil {
		return nil, err
	}
	if started {
		publishEvent(ctx, e.events, e.log, interviewID, domain.StatusInProgress, "first answer accepted")
	}

	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	answered, err := e.store.CountScoredAnswers(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	if answered >= int64(settings.TotalQuestions) {
		if err := e.complete(ctx, interviewID, answered); err != nil {
			return nil, err
		}
		result.Done = true
		return result, nil
	}

	next, err := e.selectNext(ctx, interviewID, answered, settings)
	if err != nil {
		return nil, err
	}
	result.NextQuestion = viewOf(next)
	return result, nil
}

// selectNext prefers a follow-up while fewer follow-ups than answers have been
// asked and the follow-up quota allows, otherwise the next consequential
// question.
func (e *Engine) selectNext(ctx context.Context, interviewID uint, answered int64, settings domain.Settings) (*domain.Question, error) {
	followAsked, err := e.store.CountQuestions(ctx, interviewID, domain.SourceFollowup, true)
	if err != nil {
		return nil, err
	}

	if followAsked < answered && followAsked < int64(settings.FollowupMax) {
		q, err := e.supplier.GenerateFollowup(ctx, interviewID)
		if err != nil {
			return nil, err
		}
		return e.serve(ctx, q)
	}

	q, err := e.store.FirstUnasked(ctx, interviewID, domain.SourceConsequential)
	if err != nil {
		return nil, err
	}
	if q == nil {
		if _, err := e.replenish(ctx, interviewID, settings); err != nil {
			return nil, err
		}
		q, err = e.store.FirstUnasked(ctx, interviewID, domain.SourceConsequential)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, errors.New("no consequential question available after generation")
		}
	}
	return e.serve(ctx, q)
}

// replenish generates the consequential questions still owed under
// consequential_max, or a single one once that quota is used up.
func (e *Engine) replenish(ctx context.Context, interviewID uint, settings domain.Settings) ([]domain.Question, error) {
	asked, err := e.store.CountQuestions(ctx, interviewID, domain.SourceConsequential, true)
	if err != nil {
		return nil, err
	}
	count := settings.ConsequentialMax - int(asked)
	if count < 1 {
		count = 1
	}
	return e.supplier.GenerateConsequential(ctx, interviewID, count)
}

func (e *Engine) serve(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	if err := e.store.MarkAsked(ctx, q.ID); err != nil {
		return nil, err
	}
	q.Asked = true
	e.log.Info("question served",
		zap.Uint("interview_id", q.InterviewID),
		zap.Uint("question_id", q.ID),
		zap.String("source", string(q.SourceType)),
	)
	return q, nil
}

func (e *Engine) complete(ctx context.Context, interviewID uint, answered int64) error {
	done, err := e.store.TransitionStatus(ctx, interviewID, domain.StatusCompleted,
		domain.StatusGeneratingQuestions, domain.StatusInProgress)
	if err != nil {
		return err
	}
	if done {
		e.log.Info("interview completed", zap.Uint("interview_id", interviewID), zap.Int64("answered", answered))
		publishEvent(ctx, e.events, e.log, interviewID, domain.StatusCompleted, fmt.Sprintf("%d answers scored", answered))
	}
	return nil
}

// NextQuestion returns the question the candidate should answer now. A served
// question still awaiting a score is returned again; otherwise the lowest-id
// unasked question is served, generating consequential supply when needed.
func (e *Engine) NextQuestion(ctx context.Context, p domain.Principal, interviewID uint) (*NextQuestionResult, error) {
	unlock := e.locks.Lock(interviewID)
	defer unlock()

	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := authorizeInterview(p, interview); err != nil {
		return nil, err
	}
	switch interview.Status {
	case domain.StatusCompleted, domain.StatusReported:
		return &NextQuestionResult{Done: true}, nil
	case domain.StatusGeneratingQuestions, domain.StatusInProgress:
	default:
		return nil, domain.ErrPrecondition(fmt.Sprintf("interview is %s", interview.Status))
	}

	settings, err := e.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	answered, err := e.store.CountScoredAnswers(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if answered >= int64(settings.TotalQuestions) {
		if err := e.complete(ctx, interviewID, answered); err != nil {
			return nil, err
		}
		return &NextQuestionResult{Done: true}, nil
	}

	pending, err := e.store.PendingQuestion(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return &NextQuestionResult{Question: viewOf(pending)}, nil
	}

	conseqAsked, err := e.store.CountQuestions(ctx, interviewID, domain.SourceConsequential, true)
	if err != nil {
		return nil, err
	}
	if conseqAsked < int64(settings.ConsequentialMax) {
		supply, err := e.store.FirstUnasked(ctx, interviewID, domain.SourceConsequential)
		if err != nil {
			return nil, err
		}
		if supply == nil {
			if _, err := e.replenish(ctx, interviewID, settings); err != nil {
				return nil, err
			}
		}
	}

	q, err := e.store.FirstUnasked(ctx, interviewID, "")
	if err != nil {
		return nil, err
	}
	if q == nil {
		// quota used up with nothing left to serve
		if _, err := e.replenish(ctx, interviewID, settings); err != nil {
			return nil, err
		}
		if q, err = e.store.FirstUnasked(ctx, interviewID, ""); err != nil {
			return nil, err
		}
		if q == nil {
			return nil, errors.New("no question available after generation")
		}
	}

	q, err = e.serve(ctx, q)
	if err != nil {
		return nil, err
	}
	return &NextQuestionResult{Question: viewOf(q)}, nil
}

// AbortInterview stops an interview that has not reached a terminal state.
func (e *Engine) AbortInterview(ctx context.Context, p domain.Principal, interviewID uint) error {
	unlock := e.locks.Lock(interviewID)
	defer unlock()

	interview, err := e.store.GetInterview(ctx, interviewID)
	if err != nil {
		return err
	}
	if err := authorizeInterview(p, interview); err != nil {
		return err
	}

	aborted, err := e.store.TransitionStatus(ctx, interviewID, domain.StatusAborted,
		domain.StatusUploadedResume, domain.StatusGeneratingQuestions, domain.StatusInProgress)
	if err != nil {
		return err
	}
	if !aborted {
		return domain.ErrPrecondition(fmt.Sprintf("interview is %s and cannot be aborted", interview.Status))
	}

	e.log.Info("interview aborted", zap.Uint("interview_id", interviewID), zap.String("by", p.Username))
	publishEvent(ctx, e.events, e.log, interviewID, domain.StatusAborted, "aborted by "+p.Username)
	return nil
}
