package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"ai-interviewer/domain"
)

// Store is the persistence boundary. A Store obtained inside Transaction is
// bound to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn in a database transaction. Returning an error rolls
// everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict("username already exists")
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindUserByUsername returns nil when no such user exists.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

// FindUserByAPIKey returns nil when the key is unknown.
func (s *Store) FindUserByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	return s.findUser(ctx, "api_key = ?", apiKey)
}

func (s *Store) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, userID uint, role domain.Role) error {
	err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("role", role).Error
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

// Settings returns the settings row, recreating the defaults if the row has
// gone missing.
func (s *Store) Settings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := s.db.WithContext(ctx).First(&settings, domain.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = domain.DefaultSettings()
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return settings, fmt.Errorf("seed settings: %w", err)
		}
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (s *Store) ReplaceJobDescription(ctx context.Context, text string) error {
	now := time.Now().UTC()
	return s.updateSettings(ctx, map[string]any{
		"job_description":            strings.TrimSpace(text),
		"job_description_updated_at": &now,
	})
}

func (s *Store) SetPassThreshold(ctx context.Context, threshold float64) error {
	return s.updateSettings(ctx, map[string]any{"pass_threshold": threshold})
}

func (s *Store) SetQuestionConfig(ctx context.Context, cfg domain.QuestionConfig) error {
	return s.updateSettings(ctx, map[string]any{
		"total_questions":   cfg.TotalQuestions,
		"consequential_max": cfg.ConsequentialMax,
		"followup_max":      cfg.FollowupMax,
	})
}

// updateSettings replaces the given columns of the single settings row in one
// statement.
func (s *Store) updateSettings(ctx context.Context, columns map[string]any) error {
	if _, err := s.Settings(ctx); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(&domain.Settings{}).
		Where("id = ?", domain.SettingsID).
		Updates(columns).Error
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
