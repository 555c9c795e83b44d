package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/settings"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// defaultReasonTimeout bounds the follow-up prompt for a decision reason.
const defaultReasonTimeout = 2 * time.Minute

// ReviewService resolves submitted appeals. A review record is a message in
// the staff appeal channel whose footer carries the subject id; approve and
// reject rewrite that footer so a record can only ever be actioned once.
type ReviewService struct {
	client     platform.Client
	inbox      *platform.Inbox
	settings   *settings.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger

	reasonTimeout time.Duration
}

// ReviewDependencies bundles collaborators for the review service.
type ReviewDependencies struct {
	Client        platform.Client
	Inbox         *platform.Inbox
	Settings      *settings.Store
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	ReasonTimeout time.Duration
}

// NewReviewService constructs the service.
func NewReviewService(deps ReviewDependencies) *ReviewService {
	if deps.ReasonTimeout <= 0 {
		deps.ReasonTimeout = defaultReasonTimeout
	}
	return &ReviewService{
		client:        deps.Client,
		inbox:         deps.Inbox,
		settings:      deps.Settings,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
		reasonTimeout: deps.ReasonTimeout,
	}
}

// Approve handles the review-approve control: the subject is removed from
// the blacklist and notified.
func (s *ReviewService) Approve(ctx context.Context, action controls.ActionContext) error {
	return s.decide(ctx, action, domain.ReviewApproved)
}

// Reject handles the review-reject control: the blacklist entry stays and
// the subject is notified.
func (s *ReviewService) Reject(ctx context.Context, action controls.ActionContext) error {
	return s.decide(ctx, action, domain.ReviewRejected)
}

func (s *ReviewService) decide(ctx context.Context, action controls.ActionContext, outcome domain.ReviewOutcome) error {
	workspaceID := action.WorkspaceID()
	actor := action.Actor()
	cfg := s.settings.GetGuildConfig(workspaceID)
	if !staffOrAdmin(actor, cfg) {
		return util.NewPermissionDenied("only staff can resolve appeals")
	}

	record := action.Message()
	subjectID, err := domain.ParseReviewFooter(record.Footer)
	if err != nil {
		return err
	}

	reason := s.collectReason(ctx, record.ResourceID, actor, outcome)

	content := record.Content + fmt.Sprintf("\n\nDecision: %s by %s. Reason: %s", outcome, actor.Name(), reason)
	footer := domain.ResolvedReviewFooter(outcome, subjectID)
	none := []string{}
	if err := s.client.EditMessage(ctx, record.ResourceID, record.ID, platform.MessageEdit{
		Content:    &content,
		Footer:     &footer,
		ControlIDs: &none,
	}); err != nil {
		return util.MapError(err)
	}

	if outcome == domain.ReviewApproved {
		if !s.settings.RemoveBlacklist(workspaceID, subjectID) {
			s.logger.Warn("approved subject was not on the blacklist",
				zap.String("workspace", workspaceID), zap.String("member", subjectID))
		}
	}

	s.notifySubject(ctx, subjectID, outcome, reason)

	s.publish(ctx, events.Event{
		Type:        events.EventAppealDecided,
		WorkspaceID: workspaceID,
		ResourceID:  record.ResourceID,
		ActorID:     actor.ID,
		Payload: events.AppealDecidedPayload{
			SubjectID: subjectID,
			Outcome:   outcome,
			Reason:    reason,
		},
	})
	return nil
}

// collectReason prompts the deciding staff member for a short reason in the
// appeal channel. The prompt and the reply are removed afterwards; an empty
// or expired wait records the default.
func (s *ReviewService) collectReason(ctx context.Context, resourceID string, actor domain.Member, outcome domain.ReviewOutcome) string {
	replies, cancel := s.inbox.Subscribe(resourceID, actor.ID)
	defer cancel()

	prompt, err := s.client.Send(ctx, resourceID, platform.Post{
		Content: fmt.Sprintf("%s Reply with a reason for this %s decision within %d seconds, or it will be recorded without one.",
			mention(actor.ID), outcome, int(s.reasonTimeout.Seconds())),
	})
	if err != nil {
		s.logger.Warn("reason prompt failed", zap.String("resource", resourceID), zap.Error(err))
		return "No reason provided"
	}
	defer s.deleteQuietly(ctx, resourceID, prompt.ID)

	timer := time.NewTimer(s.reasonTimeout)
	defer timer.Stop()
	select {
	case msg := <-replies:
		s.deleteQuietly(ctx, resourceID, msg.ID)
		if reason := strings.TrimSpace(msg.Content); reason != "" {
			return reason
		}
		return "No reason provided"
	case <-timer.C:
		return "No reason provided"
	case <-ctx.Done():
		return "No reason provided"
	}
}

// notifySubject tells the appealing member the outcome. Delivery is best
// effort: a closed direct channel never blocks the decision.
func (s *ReviewService) notifySubject(ctx context.Context, subjectID string, outcome domain.ReviewOutcome, reason string) {
	direct, err := s.client.OpenDirectResource(ctx, subjectID)
	if err != nil {
		s.logger.Warn("could not open direct channel for decision notice",
			zap.String("member", subjectID), zap.Error(err))
		return
	}

	var text string
	if outcome == domain.ReviewApproved {
		text = fmt.Sprintf("Your blacklist appeal was approved. You can create tickets again.\nReason: %s", reason)
	} else {
		text = fmt.Sprintf("Your blacklist appeal was rejected.\nReason: %s", reason)
	}
	if _, err := s.client.Send(ctx, direct.ID, platform.Post{Content: text}); err != nil {
		s.logger.Warn("decision notice failed", zap.String("member", subjectID), zap.Error(err))
	}
}

func (s *ReviewService) deleteQuietly(ctx context.Context, resourceID, messageID string) {
	if err := s.client.DeleteMessage(ctx, resourceID, messageID); err != nil {
		s.logger.Warn("could not remove review housekeeping message",
			zap.String("message", messageID), zap.Error(err))
	}
}

func (s *ReviewService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
