package domain

import "time"

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// Defaults applied when the settings row is first created.
const (
	DefaultTotalQuestions   = 5
	DefaultConsequentialMax = 3
	DefaultFollowupMax      = 2
	DefaultPassThreshold    = 0.85
)

// Settings holds the global job description, question budget and pass
// threshold. Exactly one row exists after migration.
type Settings struct {
	ID                      uint   `gorm:"primaryKey"`
	JobDescription          string `gorm:"type:text"`
	JobDescriptionUpdatedAt *time.Time
	TotalQuestions          int     `gorm:"not null"`
	ConsequentialMax        int     `gorm:"not null"`
	FollowupMax             int     `gorm:"not null"`
	PassThreshold           float64 `gorm:"not null"`
	UpdatedAt               time.Time
}

func (Settings) TableName() string { return "app_settings" }

func DefaultSettings() Settings {
	return Settings{
		ID:               SettingsID,
		TotalQuestions:   DefaultTotalQuestions,
		ConsequentialMax: DefaultConsequentialMax,
		FollowupMax:      DefaultFollowupMax,
		PassThreshold:    DefaultPassThreshold,
	}
}

type QuestionConfig struct {
	TotalQuestions   int `json:"total_questions"`
	ConsequentialMax int `json:"consequential_max"`
	FollowupMax      int `json:"followup_max"`
}

func (s Settings) QuestionConfig() QuestionConfig {
	return QuestionConfig{
		TotalQuestions:   s.TotalQuestions,
		ConsequentialMax: s.ConsequentialMax,
		FollowupMax:      s.FollowupMax,
	}
}
