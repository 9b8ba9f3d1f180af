package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ai-interviewer/domain"
	"ai-interviewer/infrastructure"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail interview lifecycle events from RabbitMQ",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.RabbitMQ.URL == "" {
			return errors.New("rabbitmq.url is not configured")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQ, logger)
		if err != nil {
			return err
		}
		defer rmq.Close()

		return rmq.ConsumeEvents(ctx, func(event domain.InterviewEvent) {
			logger.Info("interview event",
				zap.String("event_id", event.ID),
				zap.Uint("interview_id", event.InterviewID),
				zap.String("status", string(event.Status)),
				zap.Time("occurred_at", event.OccurredAt),
				zap.String("detail", event.Detail),
			)
		})
	},
}
