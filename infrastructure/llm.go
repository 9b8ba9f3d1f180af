package infrastructure

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"ai-interviewer/config"
	"ai-interviewer/domain"
)

// NewLanguageModel builds the configured provider wrapped with request
// logging and a per-call timeout. The returned close function releases
// provider resources.
func NewLanguageModel(ctx context.Context, cfg config.LLMConfig, log *zap.Logger) (domain.LanguageModel, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		provider domain.LanguageModel
		closeFn  = func() error { return nil }
		model    string
		err      error
	)

	switch cfg.Provider {
	case "openai":
		m := NewOpenAIModel(cfg)
		provider, model = m, m.model
	case "gemini":
		var m *GeminiModel
		m, err = NewGeminiModel(ctx, cfg)
		if err == nil {
			provider, model = m, m.model
		}
	case "vertex":
		var m *VertexModel
		m, err = NewVertexModel(ctx, cfg)
		if err == nil {
			provider, model, closeFn = m, m.model, m.Close
		}
	default:
		err = fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	logged := &loggingModel{
		next:      provider,
		log:       log.With(zap.String("ai_provider", cfg.Provider), zap.String("ai_model", model)),
		maxLogLen: cfg.MaxLogLength,
		timeout:   timeout,
	}
	return logged, closeFn, nil
}

type loggingModel struct {
	next      domain.LanguageModel
	log       *zap.Logger
	maxLogLen int
	timeout   time.Duration
}

func (m *loggingModel) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.log.Debug("language model request",
		zap.String("task", string(prompt.Task)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt.User)),
		zap.String("prompt_preview", TruncateForLog(prompt.User, m.maxLogLen)),
	)

	start := time.Now()
	raw, err := m.next.Complete(ctx, prompt)
	if err != nil {
		m.log.Warn("language model call failed",
			zap.String("task", string(prompt.Task)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}

	m.log.Debug("language model response",
		zap.String("task", string(prompt.Task)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", TruncateForLog(raw, m.maxLogLen)),
	)
	return raw, nil
}
