package domain

import "time"

type SourceType string

const (
	SourceConsequential SourceType = "consequential"
	SourceFollowup      SourceType = "followup"
)

type Question struct {
	ID          uint       `gorm:"primaryKey"`
	InterviewID uint       `gorm:"not null;index"`
	Text        string     `gorm:"column:question_text;type:text;not null"`
	SourceType  SourceType `gorm:"size:16;not null"`
	Asked       bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

// Answer is upserted per question. Score stays nil while the answer awaits a
// retry.
type Answer struct {
	ID         uint   `gorm:"primaryKey"`
	QuestionID uint   `gorm:"not null;uniqueIndex"`
	Text       string `gorm:"column:answer_text;type:text"`
	Score      *int
	RetryUsed  bool `gorm:"not null;default:false"`
	UpdatedAt  time.Time
}

// FallbackImportance is used for skills first seen during evaluation.
const FallbackImportance = 50

type Skill struct {
	ID              uint   `gorm:"primaryKey"`
	InterviewID     uint   `gorm:"not null;uniqueIndex:idx_skill_interview_name"`
	Name            string `gorm:"size:255;not null;uniqueIndex:idx_skill_interview_name"`
	ImportanceScore int    `gorm:"not null"`
	ConfidenceScore *int
}

// Weighted is importance x confidence, zero for skills never assessed.
func (s Skill) Weighted() int {
	if s.ConfidenceScore == nil {
		return 0
	}
	return s.ImportanceScore * *s.ConfidenceScore
}

// Exchange is a question paired with its answer text.
type Exchange struct {
	QuestionText string
	AnswerText   string
}
