package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type InterviewStatus string

const (
	StatusUploadedResume      InterviewStatus = "UPLOADED_RESUME"
	StatusGeneratingQuestions InterviewStatus = "GENERATING_QUESTIONS"
	StatusInProgress          InterviewStatus = "IN_PROGRESS"
	StatusCompleted           InterviewStatus = "COMPLETED"
	StatusReported            InterviewStatus = "REPORTED"
	StatusFailed              InterviewStatus = "FAILED"
	StatusAborted             InterviewStatus = "ABORTED"
)

// AcceptsAnswers reports whether answers may still be submitted.
func (s InterviewStatus) AcceptsAnswers() bool {
	return s == StatusGeneratingQuestions || s == StatusInProgress
}

// Terminal reports whether no further transition is allowed except
// COMPLETED -> REPORTED.
func (s InterviewStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusReported, StatusFailed, StatusAborted:
		return true
	}
	return false
}

type Interview struct {
	ID               uint            `gorm:"primaryKey"`
	UserID           uint            `gorm:"not null;index"`
	ResumeFilename   string          `gorm:"size:255"`
	ResumeBlob       []byte          `gorm:"not null"`
	ResumeText       string          `gorm:"type:text"`
	CandidateProfile datatypes.JSON  // nil until the resume is analyzed
	Status           InterviewStatus `gorm:"size:32;not null;index"`
	Report           datatypes.JSON
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Profile decodes the stored candidate profile. An interview whose resume was
// never analyzed yields an empty profile.
func (i *Interview) Profile() (CandidateProfile, error) {
	var p CandidateProfile
	if len(i.CandidateProfile) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(i.CandidateProfile, &p); err != nil {
		return p, fmt.Errorf("decode candidate profile of interview %d: %w", i.ID, err)
	}
	return p, nil
}

// CandidateProfile is the structured extraction made once from resume text.
type CandidateProfile struct {
	CandidateName     string        `json:"candidate_name" validate:"required"`
	Domain            string        `json:"domain" validate:"required"`
	ExperienceLevel   string        `json:"experience_level" validate:"required"`
	YearsOfExperience int           `json:"years_of_experience" validate:"gte=0,lte=80"`
	KeySkills         []SkillWeight `json:"key_skills" validate:"required,min=1,dive"`
	ExpertiseAreas    []string      `json:"expertise_areas" validate:"dive,required"`
}

type SkillWeight struct {
	Name            string `json:"name" validate:"required"`
	ImportanceScore int    `json:"importance_score" validate:"min=1,max=100"`
}
