package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

type UploadResult struct {
	InterviewID uint                    `json:"interview_id"`
	Profile     domain.CandidateProfile `json:"profile"`
}

// ResumeIntake turns an uploaded resume into a new interview with an analyzed
// candidate profile.
type ResumeIntake struct {
	store     *infrastructure.Store
	extractor domain.TextExtractor
	model     domain.LanguageModel
	validator *Validator
	events    domain.EventPublisher
	maxBytes  int64
	log       *zap.Logger
}

func NewResumeIntake(store *infrastructure.Store, extractor domain.TextExtractor, model domain.LanguageModel, v *Validator, events domain.EventPublisher, maxBytes int64, log *zap.Logger) *ResumeIntake {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &ResumeIntake{
		store:     store,
		extractor: extractor,
		model:     model,
		validator: v,
		events:    events,
		maxBytes:  maxBytes,
		log:       log,
	}
}

func checkUpload(data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return domain.ErrValidation("uploaded file is empty")
	}
	if int64(len(data)) > maxBytes {
		return domain.ErrValidation(fmt.Sprintf("uploaded file exceeds %d bytes", maxBytes))
	}
	return nil
}

// Upload stores the resume, analyzes it and leaves the interview ready for
// its first question. A failed analysis marks the interview FAILED.
func (u *ResumeIntake) Upload(ctx context.Context, p domain.Principal, filename string, data []byte) (*UploadResult, error) {
	if err := checkUpload(data, u.maxBytes); err != nil {
		return nil, err
	}

	text, err := u.extractor.Extract(filename, data)
	if err != nil {
		return nil, domain.WrapError(err, domain.CodeValidationFailed, "resume could not be read, upload a text-based PDF, DOCX or TXT file")
	}

	interview := &domain.Interview{
		UserID:         p.UserID,
		ResumeFilename: filepath.Base(filename),
		ResumeBlob:     data,
		ResumeText:     text,
		Status:         domain.StatusUploadedResume,
	}
	if err := u.store.CreateInterview(ctx, interview); err != nil {
		return nil, err
	}
	log := u.log.With(zap.Uint("interview_id", interview.ID), zap.Uint("user_id", p.UserID))
	log.Info("resume uploaded", zap.Int("bytes", len(data)), zap.Int("text_length", len(text)))
	publishEvent(ctx, u.events, u.log, interview.ID, domain.StatusUploadedResume, interview.ResumeFilename)

	profile, err := u.analyze(ctx, text)
	if err != nil {
		log.Warn("resume analysis failed", zap.Error(err))
		if serr := u.store.SetInterviewStatus(ctx, interview.ID, domain.StatusFailed); serr != nil {
			log.Error("mark interview failed", zap.Error(serr))
		}
		publishEvent(ctx, u.events, u.log, interview.ID, domain.StatusFailed, "resume analysis failed")
		return nil, err
	}

	body, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	err = u.store.Transaction(ctx, func(tx *infrastructure.Store) error {
		if err := tx.SaveProfile(ctx, interview.ID, body); err != nil {
			return err
		}
		return tx.InsertProfileSkills(ctx, interview.ID, profile.KeySkills)
	})
	if err != nil {
		return nil, err
	}

	log.Info("candidate profile stored",
		zap.String("candidate", profile.CandidateName),
		zap.Int("skills", len(profile.KeySkills)),
	)
	publishEvent(ctx, u.events, u.log, interview.ID, domain.StatusGeneratingQuestions, profile.CandidateName)
	return &UploadResult{InterviewID: interview.ID, Profile: profile}, nil
}

func (u *ResumeIntake) analyze(ctx context.Context, text string) (domain.CandidateProfile, error) {
	var profile domain.CandidateProfile
	raw, err := u.model.Complete(ctx, profilePrompt(text))
	if err != nil {
		return profile, domain.ErrUpstreamFailure(err, domain.TaskProfile)
	}
	if err := decodeModelJSON(u.validator, raw, domain.TaskProfile, &profile); err != nil {
		return profile, err
	}
	return profile, nil
}
