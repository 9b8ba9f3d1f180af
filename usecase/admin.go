package usecase

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

// CandidateSummary is one row of the admin candidate listing.
type CandidateSummary struct {
	InterviewID    uint                   `json:"interview_id"`
	Username       string                 `json:"username"`
	CandidateName  string                 `json:"candidate_name"`
	Status         domain.InterviewStatus `json:"status"`
	Answered       int64                  `json:"answered"`
	Recommendation domain.Recommendation  `json:"recommendation,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

type SettingsView struct {
	JobDescription          string     `json:"job_description"`
	JobDescriptionUpdatedAt *time.Time `json:"job_description_updated_at,omitempty"`
	TotalQuestions          int        `json:"total_questions"`
	ConsequentialMax        int        `json:"consequential_max"`
	FollowupMax             int        `json:"followup_max"`
	PassThreshold           float64    `json:"pass_threshold"`
}

// Admin holds the operations reserved for the admin principal. Every method
// checks the caller before looking at its input.
type Admin struct {
	store     *infrastructure.Store
	extractor domain.TextExtractor
	maxBytes  int64
	log       *zap.Logger
}

func NewAdmin(store *infrastructure.Store, extractor domain.TextExtractor, maxBytes int64, log *zap.Logger) *Admin {
	return &Admin{store: store, extractor: extractor, maxBytes: maxBytes, log: log}
}

func (a *Admin) SetJobDescription(ctx context.Context, p domain.Principal, text string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return domain.ErrValidation("job description must not be empty")
	}
	if err := a.store.ReplaceJobDescription(ctx, text); err != nil {
		return err
	}
	a.log.Info("job description replaced", zap.String("by", p.Username), zap.Int("length", len(text)))
	return nil
}

func (a *Admin) SetJobDescriptionFile(ctx context.Context, p domain.Principal, filename string, data []byte) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := checkUpload(data, a.maxBytes); err != nil {
		return err
	}
	text, err := a.extractor.Extract(filename, data)
	if err != nil {
		return domain.WrapError(err, domain.CodeValidationFailed, "job description file could not be read")
	}
	return a.SetJobDescription(ctx, p, text)
}

func (a *Admin) SetThreshold(ctx context.Context, p domain.Principal, threshold float64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return domain.ErrValidation("threshold must be between 0 and 1")
	}
	if err := a.store.SetPassThreshold(ctx, threshold); err != nil {
		return err
	}
	a.log.Info("pass threshold updated", zap.String("by", p.Username), zap.Float64("threshold", threshold))
	return nil
}

func (a *Admin) SetQuestionConfig(ctx context.Context, p domain.Principal, cfg domain.QuestionConfig) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	fields := map[string]string{}
	if cfg.TotalQuestions < 1 {
		fields["total_questions"] = "Must be at least 1"
	}
	if cfg.ConsequentialMax < 1 {
		fields["consequential_max"] = "Must be at least 1"
	}
	if cfg.FollowupMax < 0 || cfg.FollowupMax >= cfg.TotalQuestions {
		fields["followup_max"] = "Must be between 0 and total_questions - 1"
	}
	if len(fields) > 0 {
		return domain.ErrValidation("invalid question config").WithDetails(fields)
	}
	if err := a.store.SetQuestionConfig(ctx, cfg); err != nil {
		return err
	}
	a.log.Info("question config updated",
		zap.String("by", p.Username),
		zap.Int("total", cfg.TotalQuestions),
		zap.Int("consequential_max", cfg.ConsequentialMax),
		zap.Int("followup_max", cfg.FollowupMax),
	)
	return nil
}

func (a *Admin) GetSettings(ctx context.Context, p domain.Principal) (*SettingsView, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	s, err := a.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsView{
		JobDescription:          s.JobDescription,
		JobDescriptionUpdatedAt: s.JobDescriptionUpdatedAt,
		TotalQuestions:          s.TotalQuestions,
		ConsequentialMax:        s.ConsequentialMax,
		FollowupMax:             s.FollowupMax,
		PassThreshold:           s.PassThreshold,
	}, nil
}

func (a *Admin) ListCandidates(ctx context.Context, p domain.Principal) ([]CandidateSummary, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	rows, err := a.store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CandidateSummary, 0, len(rows))
	for _, row := range rows {
		summary := CandidateSummary{
			InterviewID: row.ID,
			Username:    row.Username,
			Status:      row.Status,
			Answered:    row.Answered,
			CreatedAt:   row.CreatedAt,
		}
		var profile domain.CandidateProfile
		if len(row.CandidateProfile) > 0 && json.Unmarshal(row.CandidateProfile, &profile) == nil {
			summary.CandidateName = profile.CandidateName
		}
		if len(row.Report) > 0 {
			var report domain.FinalReport
			if err := json.Unmarshal(row.Report, &report); err != nil {
				a.log.Warn("skip corrupt report in listing", zap.Uint("interview_id", row.ID), zap.Error(err))
			} else {
				summary.Recommendation = report.Recommendation
			}
		}
		out = append(out, summary)
	}
	return out, nil
}
