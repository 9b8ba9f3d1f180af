package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

type Credentials struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	APIKey   string      `json:"api_key"`
}

type signupInput struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Accounts struct {
	store     *infrastructure.Store
	validator *Validator
	log       *zap.Logger
}

func NewAccounts(store *infrastructure.Store, v *Validator, log *zap.Logger) *Accounts {
	return &Accounts{store: store, validator: v, log: log}
}

func credentialsOf(u *domain.User) *Credentials {
	return &Credentials{UserID: u.ID, Username: u.Username, Role: u.Role, APIKey: u.APIKey}
}

func (a *Accounts) Signup(ctx context.Context, username, password string) (*Credentials, error) {
	in := signupInput{Username: strings.TrimSpace(username), Password: password}
	fields, err := a.validator.Struct(in)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, domain.ErrValidation("invalid signup request").WithDetails(fields)
	}

	user, err := a.newUser(in.Username, in.Password, domain.RoleCandidate)
	if err != nil {
		return nil, err
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	a.log.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return credentialsOf(user), nil
}

func (a *Accounts) newUser(username, password string, role domain.Role) (*domain.User, error) {
	hash, err := infrastructure.HashPassword(password)
	if err != nil {
		return nil, err
	}
	key, err := infrastructure.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	return &domain.User{Username: username, PasswordHash: hash, APIKey: key, Role: role}, nil
}

func (a *Accounts) Login(ctx context.Context, username, password string) (*Credentials, error) {
	user, err := a.store.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !infrastructure.CheckPasswordHash(password, user.PasswordHash) {
		return nil, domain.ErrUnauthorized("invalid username or password")
	}
	return credentialsOf(user), nil
}

// Authenticate resolves an API key to its principal.
func (a *Accounts) Authenticate(ctx context.Context, apiKey string) (domain.Principal, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return domain.Principal{}, domain.ErrUnauthorized("missing api key")
	}
	user, err := a.store.FindUserByAPIKey(ctx, apiKey)
	if err != nil {
		return domain.Principal{}, err
	}
	if user == nil {
		return domain.Principal{}, domain.ErrUnauthorized("invalid api key")
	}
	return domain.Principal{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// EnsureAdmin creates the admin account or promotes an existing user of that
// name. The password of an existing account is left untouched.
func (a *Accounts) EnsureAdmin(ctx context.Context, username, password string) (*Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrValidation("admin username is required")
	}

	existing, err := a.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role != domain.RoleAdmin {
			if err := a.store.UpdateUserRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				return nil, err
			}
			existing.Role = domain.RoleAdmin
			a.log.Info("user promoted to admin", zap.String("username", username))
		}
		return credentialsOf(existing), nil
	}

	if len(password) < 8 {
		return nil, domain.ErrValidation("admin password must be at least 8 characters")
	}
	user, err := a.newUser(username, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	a.log.Info("admin account created", zap.String("username", username))
	return credentialsOf(user), nil
}
