package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

const (
	rationaleSelected = "Candidate demonstrated skills above expectations for this role."
	rationaleRejected = "Candidate did not meet the strict skill depth and relevance threshold."

	rankedSkills = 3
)

type commentary struct {
	StrengthComments map[string]string `json:"strength_comments"`
	WeaknessComments map[string]string `json:"weakness_comments"`
	AnythingExtra    string            `json:"anything_extra"`
}

// ReportCompiler builds and persists the final report of a completed
// interview.
type ReportCompiler struct {
	store     *infrastructure.Store
	model     domain.LanguageModel
	validator *Validator
	events    domain.EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewReportCompiler(store *infrastructure.Store, model domain.LanguageModel, v *Validator, events domain.EventPublisher, log *zap.Logger) *ReportCompiler {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &ReportCompiler{
		store:     store,
		model:     model,
		validator: v,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// GenerateReport returns the stored report of an interview, compiling and
// persisting it on first use.
func (r *ReportCompiler) GenerateReport(ctx context.Context, p domain.Principal, interviewID uint) (*domain.FinalReport, error) {
	interview, err := r.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := authorizeInterview(p, interview); err != nil {
		return nil, err
	}
	if interview.Status != domain.StatusCompleted && interview.Status != domain.StatusReported {
		return nil, domain.ErrPrecondition(fmt.Sprintf("interview is %s, report is available once it is completed", interview.Status))
	}

	if stored, ok := r.decodeStored(interview); ok {
		return stored, nil
	}

	report, err := r.compile(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	var winner *domain.FinalReport
	err = r.store.Transaction(ctx, func(tx *infrastructure.Store) error {
		current, err := tx.GetInterview(ctx, interviewID)
		if err != nil {
			return err
		}
		// a concurrent request may have persisted first
		if stored, ok := r.decodeStored(current); ok {
			winner = stored
			return nil
		}
		return tx.SaveReport(ctx, interviewID, body)
	})
	if err != nil {
		return nil, err
	}
	if winner != nil {
		return winner, nil
	}

	r.log.Info("report generated",
		zap.Uint("interview_id", interviewID),
		zap.Float64("final_percentage", report.FinalPercentage),
		zap.String("recommendation", string(report.Recommendation)),
	)
	publishEvent(ctx, r.events, r.log, interviewID, domain.StatusReported, string(report.Recommendation))
	return report, nil
}

func (r *ReportCompiler) decodeStored(interview *domain.Interview) (*domain.FinalReport, bool) {
	if len(interview.Report) == 0 {
		return nil, false
	}
	var report domain.FinalReport
	if err := json.Unmarshal(interview.Report, &report); err != nil {
		r.log.Warn("stored report is corrupt, regenerating", zap.Uint("interview_id", interview.ID), zap.Error(err))
		return nil, false
	}
	return &report, true
}

func (r *ReportCompiler) compile(ctx context.Context, interviewID uint) (*domain.FinalReport, error) {
	scores, err := r.store.Scores(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	skills, err := r.store.ListSkills(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	settings, err := r.store.Settings(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, s := range scores {
		total += s
	}
	percentage := scorePercentage(scores)

	strengths, weaknesses := rankSkills(skills)
	extra := r.annotate(ctx, interviewID, strengths, weaknesses)

	report := &domain.FinalReport{
		ReportGeneratedAt: r.now().UTC().Format(time.RFC3339),
		FinalScore:        total,
		FinalPercentage:   finalPercentage(scores),
		PassThreshold:     settings.PassThreshold,
		Strengths:         strengths,
		Weaknesses:        weaknesses,
		AnythingExtra:     extra,
	}
	if percentage >= settings.PassThreshold {
		report.Recommendation = domain.RecommendationSelected
		report.RecommendationRationale = rationaleSelected
	} else {
		report.Recommendation = domain.RecommendationRejected
		report.RecommendationRationale = rationaleRejected
	}
	return report, nil
}

// scorePercentage maps the mean of 1..5 scores linearly onto 0..1.
func scorePercentage(scores []int) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return float64(total-n) / float64(4*n)
}

// finalPercentage is scorePercentage rounded to three decimals for display.
// The recommendation is decided on the unrounded value.
func finalPercentage(scores []int) float64 {
	return math.Round(scorePercentage(scores)*1000) / 1000
}

// rankSkills returns the top and bottom three assessed skills by weighted
// score. Weaknesses are listed weakest first. The lists overlap when fewer
// than six skills were assessed.
func rankSkills(skills []domain.Skill) (strengths, weaknesses []domain.SkillAssessment) {
	assessed := make([]domain.Skill, 0, len(skills))
	for _, s := range skills {
		if s.ConfidenceScore != nil {
			assessed = append(assessed, s)
		}
	}
	sort.SliceStable(assessed, func(i, j int) bool {
		wi, wj := assessed[i].Weighted(), assessed[j].Weighted()
		if wi != wj {
			return wi > wj
		}
		return assessed[i].Name < assessed[j].Name
	})

	strengths = make([]domain.SkillAssessment, 0, rankedSkills)
	for i := 0; i < len(assessed) && i < rankedSkills; i++ {
		strengths = append(strengths, assessmentOf(assessed[i]))
	}
	weaknesses = make([]domain.SkillAssessment, 0, rankedSkills)
	for i := len(assessed) - 1; i >= 0 && len(weaknesses) < rankedSkills; i-- {
		weaknesses = append(weaknesses, assessmentOf(assessed[i]))
	}
	return strengths, weaknesses
}

func assessmentOf(s domain.Skill) domain.SkillAssessment {
	return domain.SkillAssessment{
		Skill:           s.Name,
		ConfidenceScore: *s.ConfidenceScore,
		ImportanceScore: s.ImportanceScore,
		WeightedScore:   s.Weighted(),
	}
}

// annotate fills in commentary for every assessment and returns the extra
// remark. Model problems fall back to fixed text and never fail the report.
func (r *ReportCompiler) annotate(ctx context.Context, interviewID uint, strengths, weaknesses []domain.SkillAssessment) string {
	var c commentary
	raw, err := r.model.Complete(ctx, commentaryPrompt(strengths, weaknesses))
	if err == nil {
		err = decodeModelJSON(r.validator, raw, domain.TaskCommentary, &c)
	}
	if err != nil {
		r.log.Warn("report commentary unavailable, using fallback", zap.Uint("interview_id", interviewID), zap.Error(err))
		c = commentary{}
	}

	for i := range strengths {
		strengths[i].Commentary = pickComment(c.StrengthComments, strengths[i].Skill, fallbackStrength)
	}
	for i := range weaknesses {
		weaknesses[i].Commentary = pickComment(c.WeaknessComments, weaknesses[i].Skill, fallbackWeakness)
	}
	return strings.TrimSpace(c.AnythingExtra)
}

func pickComment(comments map[string]string, skill string, fallback func(string) string) string {
	if text := strings.TrimSpace(comments[skill]); text != "" {
		return text
	}
	return fallback(skill)
}

func fallbackStrength(skill string) string {
	return fmt.Sprintf("Answers showed consistent, practical command of %s.", skill)
}

func fallbackWeakness(skill string) string {
	return fmt.Sprintf("Answers showed limited depth in %s; probe further before relying on it.", skill)
}
