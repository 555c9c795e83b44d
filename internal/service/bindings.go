package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// RegisterControls binds every stable control id to its handler. The table
// is rebuilt on startup, so controls on old messages keep working across
// restarts.
func RegisterControls(router *controls.Router, tickets *TicketService, access *AccessService, appeals *AppealService, reviews *ReviewService) {
	router.Register(controls.PanelStandard, createFromPanel(tickets, access, domain.TicketTypeStandard))
	router.Register(controls.PanelTryout, createFromPanel(tickets, access, domain.TicketTypeTryout))
	router.Register(controls.PanelReport, createFromPanel(tickets, access, domain.TicketTypeReport))

	router.Register(controls.TicketClose, closeFromControl(tickets))
	router.Register(controls.TicketDelete, func(ctx context.Context, action controls.ActionContext) error {
		return tickets.Delete(ctx, action.WorkspaceID(), action.Resource().ID, action.Actor())
	})

	router.Register(controls.AppealStart, appeals.StartFromOffer)
	router.Register(controls.AppealSubmit, appeals.SubmitConfirm)
	router.Register(controls.AppealCancel, appeals.CancelConfirm)

	router.Register(controls.ReviewApprove, reviews.Approve)
	router.Register(controls.ReviewReject, reviews.Reject)
}

// createFromPanel runs the access gate and then the ticket creation for one
// panel button. Tryout tickets continue into the intake conversation.
func createFromPanel(tickets *TicketService, access *AccessService, ticketType domain.TicketType) controls.Handler {
	return func(ctx context.Context, action controls.ActionContext) error {
		workspaceID := action.WorkspaceID()
		actor := action.Actor()

		if err := access.CheckCreate(ctx, workspaceID, actor); err != nil {
			return err
		}

		resource, staffRoleID, err := tickets.CreateTicket(ctx, workspaceID, actor, ticketType)
		if err != nil {
			return err
		}

		if ticketType == domain.TicketTypeTryout {
			go tickets.RunTryoutIntake(context.WithoutCancel(ctx), workspaceID, *resource, actor, staffRoleID)
		}

		if err := action.Respond(fmt.Sprintf("Your ticket has been created: <#%s>", resource.ID)); err != nil {
			tickets.logger.Warn("creation acknowledgement failed",
				zap.String("resource", resource.ID), zap.Error(err))
		}
		return nil
	}
}

// closeFromControl collects an optional close reason in the ticket before
// running the close sequence. An expired prompt closes with no reason.
func closeFromControl(tickets *TicketService) controls.Handler {
	return func(ctx context.Context, action controls.ActionContext) error {
		workspaceID := action.WorkspaceID()
		resourceID := action.Resource().ID
		actor := action.Actor()

		replies, cancel := tickets.inbox.Subscribe(resourceID, actor.ID)
		defer cancel()

		reason := ""
		prompt, err := tickets.client.Send(ctx, resourceID, platform.Post{
			Content: fmt.Sprintf("%s Reply with a close reason within %d seconds, or the ticket closes without one.",
				mention(actor.ID), int(tickets.closeReason.Seconds())),
		})
		if err != nil {
			tickets.logger.Warn("close reason prompt failed", zap.String("resource", resourceID), zap.Error(err))
		} else {
			timer := time.NewTimer(tickets.closeReason)
			select {
			case msg := <-replies:
				reason = strings.TrimSpace(msg.Content)
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			timer.Stop()
			if err := tickets.client.DeleteMessage(ctx, resourceID, prompt.ID); err != nil {
				tickets.logger.Warn("could not remove close reason prompt",
					zap.String("message", prompt.ID), zap.Error(err))
			}
		}

		return tickets.Close(ctx, workspaceID, resourceID, actor, reason)
	}
}
