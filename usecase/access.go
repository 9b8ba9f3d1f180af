package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ai-interviewer/domain"
)

// authorizeInterview allows the owner of an interview and admins.
func authorizeInterview(p domain.Principal, interview *domain.Interview) error {
	if p.IsAdmin() || interview.UserID == p.UserID {
		return nil
	}
	return domain.ErrForbidden("interview belongs to another user")
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden("admin access required")
	}
	return nil
}

// publishEvent emits a lifecycle event. Delivery problems are logged only.
func publishEvent(ctx context.Context, pub domain.EventPublisher, log *zap.Logger, interviewID uint, status domain.InterviewStatus, detail string) {
	event := domain.InterviewEvent{
		ID:          uuid.NewString(),
		InterviewID: interviewID,
		Status:      status,
		OccurredAt:  time.Now().UTC(),
		Detail:      detail,
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("publish interview event", zap.Uint("interview_id", interviewID), zap.Error(err))
	}
}
