package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ai-interviewer/config"
	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

const (
	fxProfile = `{
  "candidate_name": "Ada Lovelace",
  "domain": "Backend",
  "experience_level": "Senior",
  "years_of_experience": 9,
  "key_skills": [
    {"name": "Go", "importance_score": 90},
    {"name": "PostgreSQL", "importance_score": 70},
    {"name": "Kafka", "importance_score": 40}
  ],
  "expertise_areas": ["distributed systems"]
}`
	fxConsequential = "```json\n{\"questions\": [\"Design a payment ledger.\", \"Shard a hot table.\", \"Migrate a monolith.\"]}\n```"
	fxFollowup      = `{"question": "How would the ledger survive a region outage?"}`
	fxVague         = `{"score": 1, "is_vague": true, "skill_confidence": {}, "feedback": "", "reject_reason": "No concrete design."}`
	fxStrong        = `{"score": 4, "is_vague": false, "skill_confidence": {"Go": 80, "Kafka": 60}, "feedback": "Solid tradeoffs.", "reject_reason": ""}`
	fxCommentary    = `{"strength_comments": {"Go": "Deep runtime knowledge."}, "weakness_comments": {}, "anything_extra": "Strong communicator."}`
)

// fakeModel replays scripted responses per task. The last response of a task
// repeats once the queue is drained.
type fakeModel struct {
	mu        sync.Mutex
	responses map[domain.Task][]string
	errs      map[domain.Task]error
	calls     []domain.Prompt
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		responses: map[domain.Task][]string{},
		errs:      map[domain.Task]error{},
	}
}

func (f *fakeModel) on(task domain.Task, responses ...string) *fakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[task] = responses
	delete(f.errs, task)
	return f
}

func (f *fakeModel) fail(task domain.Task, err error) *fakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[task] = err
	return f
}

func (f *fakeModel) Complete(_ context.Context, p domain.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)

	if err := f.errs[p.Task]; err != nil {
		return "", err
	}
	queue := f.responses[p.Task]
	if len(queue) == 0 {
		return "", fmt.Errorf("no scripted response for %s", p.Task)
	}
	out := queue[0]
	if len(queue) > 1 {
		f.responses[p.Task] = queue[1:]
	}
	return out, nil
}

func (f *fakeModel) callsFor(task domain.Task) []domain.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Prompt
	for _, c := range f.calls {
		if c.Task == task {
			out = append(out, c)
		}
	}
	return out
}

var errModelDown = errors.New("model unavailable")

func newTestStore(t *testing.T) *infrastructure.Store {
	t.Helper()
	db, err := infrastructure.OpenDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return infrastructure.NewStore(db)
}

type harness struct {
	ctx       context.Context
	store     *infrastructure.Store
	model     *fakeModel
	validator *Validator
	evaluator *Evaluator
	supplier  *Supplier
	engine    *Engine
	reports   *ReportCompiler
	resumes   *ResumeIntake
	admin     *Admin
	accounts  *Accounts
	candidate domain.Principal
	other     domain.Principal
	root      domain.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newTestStore(t)
	model := newFakeModel().
		on(domain.TaskProfile, fxProfile).
		on(domain.TaskConsequential, fxConsequential).
		on(domain.TaskFollowup, fxFollowup).
		on(domain.TaskEvaluate, fxStrong).
		on(domain.TaskCommentary, fxCommentary)

	log := zap.NewNop()
	v := NewValidator()
	extractor := infrastructure.NewDocumentExtractor(log)
	evaluator := NewEvaluator(store, model, v, log)
	supplier := NewSupplier(store, model, v, log)

	h := &harness{
		ctx:       context.Background(),
		store:     store,
		model:     model,
		validator: v,
		evaluator: evaluator,
		supplier:  supplier,
		engine:    NewEngine(store, evaluator, supplier, nil, log),
		reports:   NewReportCompiler(store, model, v, nil, log),
		resumes:   NewResumeIntake(store, extractor, model, v, nil, config.DefaultMaxUploadBytes, log),
		admin:     NewAdmin(store, extractor, config.DefaultMaxUploadBytes, log),
		accounts:  NewAccounts(store, v, log),
	}
	h.candidate = h.newUser(t, "candidate", domain.RoleCandidate)
	h.other = h.newUser(t, "other", domain.RoleCandidate)
	h.root = h.newUser(t, "admin", domain.RoleAdmin)
	return h
}

func (h *harness) newUser(t *testing.T, name string, role domain.Role) domain.Principal {
	t.Helper()
	u := &domain.User{Username: name, PasswordHash: "x", APIKey: "key-" + name, Role: role}
	require.NoError(t, h.store.CreateUser(h.ctx, u))
	return domain.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// newInterview creates an analyzed interview owned by p, ready for questions.
func (h *harness) newInterview(t *testing.T, p domain.Principal) uint {
	t.Helper()
	var profile domain.CandidateProfile
	require.NoError(t, json.Unmarshal([]byte(fxProfile), &profile))

	iv := &domain.Interview{
		UserID:     p.UserID,
		ResumeBlob: []byte("resume"),
		ResumeText: "resume",
		Status:     domain.StatusUploadedResume,
	}
	require.NoError(t, h.store.CreateInterview(h.ctx, iv))
	require.NoError(t, h.store.SaveProfile(h.ctx, iv.ID, []byte(fxProfile)))
	require.NoError(t, h.store.InsertProfileSkills(h.ctx, iv.ID, profile.KeySkills))
	return iv.ID
}

// servedQuestion inserts one question and marks it asked.
func (h *harness) servedQuestion(t *testing.T, interviewID uint, text string) uint {
	t.Helper()
	qs, err := h.store.InsertQuestions(h.ctx, interviewID, []string{text}, domain.SourceConsequential)
	require.NoError(t, err)
	require.NoError(t, h.store.MarkAsked(h.ctx, qs[0].ID))
	return qs[0].ID
}

// scored stores a finalized answer for a fresh served question.
func (h *harness) scored(t *testing.T, interviewID uint, score int) {
	t.Helper()
	qid := h.servedQuestion(t, interviewID, fmt.Sprintf("question scored %d", score))
	require.NoError(t, h.store.SaveAnswer(h.ctx, qid, "answer", &score, false))
}

func (h *harness) status(t *testing.T, interviewID uint) domain.InterviewStatus {
	t.Helper()
	iv, err := h.store.GetInterview(h.ctx, interviewID)
	require.NoError(t, err)
	return iv.Status
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Error())
}
