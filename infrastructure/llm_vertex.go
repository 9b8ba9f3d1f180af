package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vertex "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"ai-interviewer/config"
	"ai-interviewer/domain"
)

const defaultVertexModel = "gemini-2.0-flash-001"

// VertexModel talks to Gemini models hosted on Vertex AI.
type VertexModel struct {
	client *vertex.Client
	model  string
}

func NewVertexModel(ctx context.Context, cfg config.LLMConfig) (*VertexModel, error) {
	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}

	client, err := vertex.NewClient(ctx, cfg.Project, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultVertexModel
	}
	return &VertexModel{client: client, model: model}, nil
}

func (v *VertexModel) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	// GenerativeModel carries per-request settings, so build one per call.
	gm := v.client.GenerativeModel(v.model)
	gm.SetTemperature(prompt.Temperature)
	gm.ResponseMIMEType = "application/json"
	gm.SystemInstruction = &vertex.Content{Parts: []vertex.Part{vertex.Text(prompt.System)}}

	resp, err := gm.GenerateContent(ctx, vertex.Text(prompt.User))
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(vertex.Text); ok {
				builder.WriteString(string(text))
			}
		}
		if builder.Len() > 0 {
			break
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("vertex returned empty response")
	}
	return output, nil
}

func (v *VertexModel) Close() error {
	return v.client.Close()
}
