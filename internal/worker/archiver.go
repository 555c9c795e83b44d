// Package worker hosts background subscribers driven by domain events.
package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/repository"
)

// StartTranscriptArchiver stores a transcript row for every closed ticket.
// With no repository (archive disabled) it registers nothing.
func StartTranscriptArchiver(dispatcher events.Dispatcher, transcripts repository.TranscriptRepository, logger *zap.Logger) {
	if dispatcher == nil || transcripts == nil {
		return
	}

	dispatcher.Subscribe(events.EventTicketClosed, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.TicketClosedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
		}
		if payload.Transcript == nil {
			logger.Warn("closed ticket carried no transcript",
				zap.String("workspace", event.WorkspaceID),
				zap.String("ticket", payload.TicketName))
			return nil
		}

		record := &domain.TranscriptRecord{
			ID:          uuid.NewString(),
			WorkspaceID: event.WorkspaceID,
			TicketName:  payload.TicketName,
			OwnerID:     payload.OwnerID,
			ClosedByID:  event.ActorID,
			Reason:      payload.Reason,
			Content:     payload.Transcript,
		}
		if err := transcripts.Create(ctx, record); err != nil {
			return fmt.Errorf("archive transcript for %s: %w", payload.TicketName, err)
		}

		logger.Info("transcript archived",
			zap.String("workspace", event.WorkspaceID),
			zap.String("ticket", payload.TicketName),
			zap.String("transcript", record.ID))
		return nil
	})
}
