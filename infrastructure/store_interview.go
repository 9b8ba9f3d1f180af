package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ai-interviewer/domain"
)

func (s *Store) CreateInterview(ctx context.Context, interview *domain.Interview) error {
	if err := s.db.WithContext(ctx).Create(interview).Error; err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, id uint) (*domain.Interview, error) {
	var interview domain.Interview
	err := s.db.WithContext(ctx).First(&interview, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound("interview", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load interview %d: %w", id, err)
	}
	return &interview, nil
}

func (s *Store) SetInterviewStatus(ctx context.Context, id uint, status domain.InterviewStatus) error {
	err := s.db.WithContext(ctx).Model(&domain.Interview{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("set interview %d status %s: %w", id, status, err)
	}
	return nil
}

// TransitionStatus moves the interview to `to` only if its current status is
// one of `from`. It reports whether a row changed.
func (s *Store) TransitionStatus(ctx context.Context, id uint, to domain.InterviewStatus, from ...domain.InterviewStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.Interview{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("transition interview %d to %s: %w", id, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SaveProfile stores the analyzed profile and moves the interview to
// GENERATING_QUESTIONS.
func (s *Store) SaveProfile(ctx context.Context, id uint, profile []byte) error {
	err := s.db.WithContext(ctx).Model(&domain.Interview{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"candidate_profile": datatypes.JSON(profile),
			"status":            domain.StatusGeneratingQuestions,
		}).Error
	if err != nil {
		return fmt.Errorf("save profile of interview %d: %w", id, err)
	}
	return nil
}

// SaveReport persists the report and marks the interview REPORTED.
func (s *Store) SaveReport(ctx context.Context, id uint, report []byte) error {
	err := s.db.WithContext(ctx).Model(&domain.Interview{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"report": datatypes.JSON(report),
			"status": domain.StatusReported,
		}).Error
	if err != nil {
		return fmt.Errorf("save report of interview %d: %w", id, err)
	}
	return nil
}

// CandidateRow is one line of the admin candidate listing.
type CandidateRow struct {
	ID               uint
	Username         string
	Status           domain.InterviewStatus
	CandidateProfile datatypes.JSON
	Report           datatypes.JSON
	Answered         int64
	CreatedAt        time.Time
}

func (s *Store) ListCandidates(ctx context.Context) ([]CandidateRow, error) {
	var rows []CandidateRow
	err := s.db.WithContext(ctx).Table("interviews").
		Select(`interviews.id, users.username, interviews.status, interviews.candidate_profile,
			interviews.report, interviews.created_at,
			(SELECT COUNT(*) FROM answers JOIN questions ON questions.id = answers.question_id
				WHERE questions.interview_id = interviews.id AND answers.score IS NOT NULL) AS answered`).
		Joins("JOIN users ON users.id = interviews.user_id").
		Order("interviews.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return rows, nil
}

// InsertProfileSkills records the skills extracted from a resume. Duplicate
// names keep the first importance seen.
func (s *Store) InsertProfileSkills(ctx context.Context, interviewID uint, skills []domain.SkillWeight) error {
	seen := make(map[string]bool, len(skills))
	rows := make([]domain.Skill, 0, len(skills))
	for _, sk := range skills {
		name := strings.TrimSpace(sk.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rows = append(rows, domain.Skill{
			InterviewID:     interviewID,
			Name:            name,
			ImportanceScore: sk.ImportanceScore,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("insert skills of interview %d: %w", interviewID, err)
	}
	return nil
}

// UpsertSkillConfidence overwrites the confidence of an existing skill or
// inserts it with the fallback importance. It reports whether a row was
// inserted.
func (s *Store) UpsertSkillConfidence(ctx context.Context, interviewID uint, name string, confidence int) (bool, error) {
	name = strings.TrimSpace(name)
	var skill domain.Skill
	err := s.db.WithContext(ctx).
		Where("interview_id = ? AND name = ?", interviewID, name).
		First(&skill).Error
	switch {
	case err == nil:
		err = s.db.WithContext(ctx).Model(&skill).Update("confidence_score", confidence).Error
		if err != nil {
			return false, fmt.Errorf("update skill %q: %w", name, err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		skill = domain.Skill{
			InterviewID:     interviewID,
			Name:            name,
			ImportanceScore: domain.FallbackImportance,
			ConfidenceScore: &confidence,
		}
		if err := s.db.WithContext(ctx).Create(&skill).Error; err != nil {
			return false, fmt.Errorf("insert skill %q: %w", name, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("load skill %q: %w", name, err)
	}
}

func (s *Store) ListSkills(ctx context.Context, interviewID uint) ([]domain.Skill, error) {
	var skills []domain.Skill
	err := s.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("id ASC").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("list skills of interview %d: %w", interviewID, err)
	}
	return skills, nil
}
