package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// RunTryoutIntake walks a freshly created tryout ticket through its
// two-step application: game handle, then a stats screenshot. Inactivity at
// either step auto-deletes the ticket after a short notice.
func (s *TicketService) RunTryoutIntake(ctx context.Context, workspaceID string, resource platform.Resource, owner domain.Member, staffRoleID string) {
	messages, cancel := s.inbox.Subscribe(resource.ID, owner.ID)
	defer cancel()

	prompt := func(text string) bool {
		if _, err := s.client.Send(ctx, resource.ID, platform.Post{Content: text}); err != nil {
			s.logger.Warn("tryout prompt failed", zap.String("resource", resource.ID), zap.Error(err))
			return false
		}
		return true
	}

	stepSeconds := int(s.tryoutStep.Seconds())
	if !prompt(fmt.Sprintf("Tryout step 1/2: reply with your game handle. You have %d seconds.", stepSeconds)) {
		return
	}
	handleMsg, ok := s.awaitTryoutReply(ctx, messages, func(platform.Message) bool { return true })
	if !ok {
		s.abortTryout(ctx, resource.ID)
		return
	}
	handle := strings.TrimSpace(handleMsg.Content)

	if !prompt(fmt.Sprintf("Got it: %s. Step 2/2: send a stats screenshot (image attachment). You have %d seconds.", handle, stepSeconds)) {
		return
	}
	statsMsg, ok := s.awaitTryoutReply(ctx, messages, func(msg platform.Message) bool {
		for _, att := range msg.Attachments {
			if strings.HasPrefix(att.ContentType, "image") {
				return true
			}
		}
		return false
	})
	if !ok {
		s.abortTryout(ctx, resource.ID)
		return
	}

	summary := fmt.Sprintf("Tryout complete. %s will review.\nGame handle: %s", roleMention(staffRoleID), handle)
	for _, att := range statsMsg.Attachments {
		if strings.HasPrefix(att.ContentType, "image") {
			summary += "\nStats screenshot: " + att.URL
			break
		}
	}
	if _, err := s.client.Send(ctx, resource.ID, platform.Post{
		Content:    summary,
		ControlIDs: []string{controls.TicketClose, controls.TicketDelete},
	}); err != nil {
		s.logger.Warn("tryout summary failed", zap.String("resource", resource.ID), zap.Error(err))
	}
}

// awaitTryoutReply waits for the next matching owner message; non-matching
// messages are ignored rather than rejected.
func (s *TicketService) awaitTryoutReply(ctx context.Context, messages <-chan platform.Message, match func(platform.Message) bool) (platform.Message, bool) {
	timer := time.NewTimer(s.tryoutStep)
	defer timer.Stop()
	for {
		select {
		case msg := <-messages:
			if match(msg) {
				return msg, true
			}
		case <-timer.C:
			return platform.Message{}, false
		case <-ctx.Done():
			return platform.Message{}, false
		}
	}
}

// abortTryout closes out an inactive tryout ticket.
func (s *TicketService) abortTryout(ctx context.Context, resourceID string) {
	s.reportInline(ctx, resourceID, "Ticket auto-closed: inactivity.")
	select {
	case <-time.After(s.tryoutAbort):
	case <-ctx.Done():
		return
	}
	if err := s.client.DeleteResource(ctx, resourceID); err != nil &&
		!errors.Is(err, platform.ErrNotFound) && !errors.Is(err, platform.ErrForbidden) {
		s.logger.Warn("tryout cleanup failed", zap.String("resource", resourceID), zap.Error(err))
	}
}
