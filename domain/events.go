package domain

import (
	"context"
	"time"
)

// InterviewEvent is emitted on lifecycle transitions.
type InterviewEvent struct {
	ID          string          `json:"id"`
	InterviewID uint            `json:"interview_id"`
	Status      InterviewStatus `json:"status"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Detail      string          `json:"detail,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event InterviewEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, InterviewEvent) error { return nil }
