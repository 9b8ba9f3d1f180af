package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ai-interviewer/domain"
)

const scoredAnswerFilter = "answers.score IS NOT NULL"

// InsertQuestions batch-inserts unasked questions and returns them with ids.
func (s *Store) InsertQuestions(ctx context.Context, interviewID uint, texts []string, source domain.SourceType) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(texts))
	for _, text := range texts {
		questions = append(questions, domain.Question{
			InterviewID: interviewID,
			Text:        text,
			SourceType:  source,
		})
	}
	if len(questions) == 0 {
		return nil, nil
	}
	if err := s.db.WithContext(ctx).Create(&questions).Error; err != nil {
		return nil, fmt.Errorf("insert %s questions: %w", source, err)
	}
	return questions, nil
}

func (s *Store) GetQuestion(ctx context.Context, id uint) (*domain.Question, error) {
	var q domain.Question
	err := s.db.WithContext(ctx).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound("question", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", id, err)
	}
	return &q, nil
}

// CountQuestions counts an interview's questions of one source type with the
// given asked flag.
func (s *Store) CountQuestions(ctx context.Context, interviewID uint, source domain.SourceType, asked bool) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Question{}).
		Where("interview_id = ? AND source_type = ? AND asked = ?", interviewID, source, asked).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count %s questions: %w", source, err)
	}
	return n, nil
}

// FirstUnasked returns the lowest-id unasked question, restricted to source
// when it is non-empty. It returns nil when there is none.
func (s *Store) FirstUnasked(ctx context.Context, interviewID uint, source domain.SourceType) (*domain.Question, error) {
	query := s.db.WithContext(ctx).Where("interview_id = ? AND asked = ?", interviewID, false)
	if source != "" {
		query = query.Where("source_type = ?", source)
	}
	return firstQuestion(query)
}

// PendingQuestion returns the lowest-id served question that has no scored
// answer yet, or nil.
func (s *Store) PendingQuestion(ctx context.Context, interviewID uint) (*domain.Question, error) {
	query := s.db.WithContext(ctx).
		Where("interview_id = ? AND asked = ?", interviewID, true).
		Where("NOT EXISTS (SELECT 1 FROM answers WHERE answers.question_id = questions.id AND " + scoredAnswerFilter + ")")
	return firstQuestion(query)
}

func firstQuestion(query *gorm.DB) (*domain.Question, error) {
	var q domain.Question
	err := query.Order("id ASC").First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return &q, nil
}

// MarkAsked flips asked from false to true. Serving the same question twice is
// a precondition failure.
func (s *Store) MarkAsked(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&domain.Question{}).
		Where("id = ? AND asked = ?", id, false).
		Update("asked", true)
	if res.Error != nil {
		return fmt.Errorf("mark question %d asked: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPrecondition(fmt.Sprintf("question %d was already served", id))
	}
	return nil
}

// GetAnswer returns the answer row of a question, or nil.
func (s *Store) GetAnswer(ctx context.Context, questionID uint) (*domain.Answer, error) {
	var a domain.Answer
	err := s.db.WithContext(ctx).Where("question_id = ?", questionID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load answer of question %d: %w", questionID, err)
	}
	return &a, nil
}

// SaveAnswer upserts the single answer row of a question.
func (s *Store) SaveAnswer(ctx context.Context, questionID uint, text string, score *int, retryUsed bool) error {
	answer := domain.Answer{
		QuestionID: questionID,
		Text:       text,
		Score:      score,
		RetryUsed:  retryUsed,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_text", "score", "retry_used", "updated_at"}),
	}).Create(&answer).Error
	if err != nil {
		return fmt.Errorf("save answer of question %d: %w", questionID, err)
	}
	return nil
}

func (s *Store) scoredAnswers(ctx context.Context, interviewID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&domain.Answer{}).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.interview_id = ?", interviewID).
		Where(scoredAnswerFilter)
}

// CountScoredAnswers counts finalized answers of one interview.
func (s *Store) CountScoredAnswers(ctx context.Context, interviewID uint) (int64, error) {
	var n int64
	if err := s.scoredAnswers(ctx, interviewID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count scored answers: %w", err)
	}
	return n, nil
}

// Scores returns the finalized scores of one interview in answer order.
func (s *Store) Scores(ctx context.Context, interviewID uint) ([]int, error) {
	var scores []int
	err := s.scoredAnswers(ctx, interviewID).
		Order("answers.id ASC").
		Pluck("answers.score", &scores).Error
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	return scores, nil
}

// LastScoredExchange returns the most recently inserted scored answer with its
// question, or nil when nothing has been scored.
func (s *Store) LastScoredExchange(ctx context.Context, interviewID uint) (*domain.Exchange, error) {
	var rows []domain.Exchange
	err := s.scoredAnswers(ctx, interviewID).
		Select("questions.question_text AS question_text, answers.answer_text AS answer_text").
		Order("answers.id DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load last exchange: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
