package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/session"
	"github.com/spec-kit/ticket-bot/internal/settings"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// offerFooterPrefix ties an appeal offer in a direct channel back to the
// workspace the blacklist lives in. The direct channel itself carries no
// workspace, so the footer is the only durable link.
const offerFooterPrefix = "Workspace: "

// confirmWaiter is one live conversation blocked on the confirm controls.
type confirmWaiter struct {
	subjectID string
	decisions chan bool
}

// AppealService runs the blacklist-appeal conversation in a member's direct
// channel: three questions, a confirm step, then a review record posted for
// staff. One live appeal per (workspace, member) is enforced by the guard.
type AppealService struct {
	client          platform.Client
	inbox           *platform.Inbox
	settings        *settings.Store
	guard           session.Guard
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	questionTimeout time.Duration
	confirmTimeout  time.Duration
	minAnswer       int

	mu       sync.Mutex
	confirms map[string]confirmWaiter
}

// AppealDependencies bundles collaborators for the appeal service.
type AppealDependencies struct {
	Client          platform.Client
	Inbox           *platform.Inbox
	Settings        *settings.Store
	Guard           session.Guard
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	QuestionTimeout time.Duration
	ConfirmTimeout  time.Duration
	MinAnswerLength int
}

// NewAppealService constructs the service.
func NewAppealService(deps AppealDependencies) *AppealService {
	if deps.QuestionTimeout <= 0 {
		deps.QuestionTimeout = 10 * time.Minute
	}
	if deps.ConfirmTimeout <= 0 {
		deps.ConfirmTimeout = 10 * time.Minute
	}
	if deps.MinAnswerLength <= 0 {
		deps.MinAnswerLength = 5
	}
	return &AppealService{
		client:          deps.Client,
		inbox:           deps.Inbox,
		settings:        deps.Settings,
		guard:           deps.Guard,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		questionTimeout: deps.QuestionTimeout,
		confirmTimeout:  deps.ConfirmTimeout,
		minAnswer:       deps.MinAnswerLength,
		confirms:        make(map[string]confirmWaiter),
	}
}

// Offer opens the member's direct channel and posts the appeal invitation.
// Failures are logged and swallowed: the offer is a courtesy side effect of a
// rejected ticket creation, never a blocking step.
func (s *AppealService) Offer(ctx context.Context, workspaceID string, subject domain.Member, reason string) {
	direct, err := s.client.OpenDirectResource(ctx, subject.ID)
	if err != nil {
		s.logger.Warn("could not open direct channel for appeal offer",
			zap.String("member", subject.ID), zap.Error(err))
		return
	}
	offer := platform.Post{
		Content: fmt.Sprintf(
			"You are blacklisted from creating tickets.\nReason: %s\n\nIf you believe this is a mistake you may appeal the decision.",
			reason),
		Footer:     offerFooterPrefix + workspaceID,
		ControlIDs: []string{controls.AppealStart},
	}
	if _, err := s.client.Send(ctx, direct.ID, offer); err != nil {
		s.logger.Warn("could not post appeal offer",
			zap.String("member", subject.ID), zap.Error(err))
	}
}

// StartFromOffer handles the appeal-start control. It recovers the workspace
// from the offer footer, re-checks the blacklist, takes the per-member
// conversation slot and runs the full flow synchronously.
func (s *AppealService) StartFromOffer(ctx context.Context, action controls.ActionContext) error {
	workspaceID := strings.TrimPrefix(action.Message().Footer, offerFooterPrefix)
	if workspaceID == "" || workspaceID == action.Message().Footer {
		return util.NewRecordMalformed("appeal offer carries no workspace id")
	}

	subject := action.Actor()
	cfg := s.settings.GetGuildConfig(workspaceID)
	reason, listed := cfg.BlacklistReason(subject.ID)
	if !listed {
		return action.Respond("You are no longer blacklisted; no appeal is needed.")
	}

	ttl := 3*s.questionTimeout + s.confirmTimeout + time.Minute
	ok, err := s.guard.Acquire(ctx, workspaceID, subject.ID, ttl)
	if err != nil {
		return util.MapError(err)
	}
	if !ok {
		return action.Respond("You already have an appeal in progress.")
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), workspaceID, subject.ID); err != nil {
			s.logger.Warn("could not release appeal slot",
				zap.String("member", subject.ID), zap.Error(err))
		}
	}()

	return s.run(ctx, workspaceID, action.Resource(), subject, reason)
}

// run drives the three questions and the confirm step. Every message the
// conversation produces or consumes is tracked and deleted on exit, leaving
// only a single closing notice in the direct channel.
func (s *AppealService) run(ctx context.Context, workspaceID string, direct platform.Resource, subject domain.Member, reason string) error {
	replies, cancel := s.inbox.Subscribe(direct.ID, subject.ID)
	defer cancel()

	var cleanup []string
	defer s.cleanupMessages(ctx, direct.ID, &cleanup)

	s.publish(ctx, events.Event{
		Type:        events.EventAppealStarted,
		WorkspaceID: workspaceID,
		ResourceID:  direct.ID,
		ActorID:     subject.ID,
		Payload:     events.AppealPayload{SubjectID: subject.ID},
	})

	minLen := func(msg platform.Message) (string, string) {
		answer := strings.TrimSpace(msg.Content)
		if len(answer) < s.minAnswer {
			return "", fmt.Sprintf("Please give a fuller answer (at least %d characters).", s.minAnswer)
		}
		return answer, ""
	}

	claim, err := s.ask(ctx, direct.ID, replies, &cleanup, "appeal question 1",
		fmt.Sprintf("Question 1/3: Your blacklist reason is: %s\nWhy do you believe this decision should be reversed?", reason),
		minLen)
	if err != nil {
		return s.finish(ctx, direct.ID, err)
	}

	justification, err := s.ask(ctx, direct.ID, replies, &cleanup, "appeal question 2",
		"Question 2/3: What has changed since then, or what context was missing when the decision was made?",
		minLen)
	if err != nil {
		return s.finish(ctx, direct.ID, err)
	}

	proof, err := s.ask(ctx, direct.ID, replies, &cleanup, "appeal question 3",
		"Question 3/3: Provide any proof supporting your appeal (links, screenshots as attachments), or reply N/A.",
		func(msg platform.Message) (string, string) {
			parts := make([]string, 0, 1+len(msg.Attachments))
			if text := strings.TrimSpace(msg.Content); text != "" {
				parts = append(parts, text)
			}
			for _, att := range msg.Attachments {
				parts = append(parts, att.URL)
			}
			if len(parts) == 0 {
				return "", "Please provide proof, attach a file, or reply N/A."
			}
			return strings.Join(parts, "\n"), ""
		})
	if err != nil {
		return s.finish(ctx, direct.ID, err)
	}

	appeal := domain.Appeal{
		WorkspaceID:   workspaceID,
		SubjectID:     subject.ID,
		ReasonClaim:   claim,
		Justification: justification,
		Proof:         proof,
	}

	submitted, err := s.confirm(ctx, direct.ID, subject, appeal, &cleanup)
	if err != nil {
		return s.finish(ctx, direct.ID, err)
	}
	if !submitted {
		s.reportDirect(ctx, direct.ID, "Appeal cancelled. Nothing was submitted.")
		return nil
	}

	if err := s.submit(ctx, subject, appeal); err != nil {
		s.reportDirect(ctx, direct.ID, "Your appeal could not be submitted. Please try again later.")
		return err
	}
	s.reportDirect(ctx, direct.ID, "Your appeal has been submitted. Staff will review it and you will be notified of the outcome.")
	return nil
}

// ask posts a prompt and waits for an acceptable answer. The timer covers
// the whole question, including retries after validation failures; every
// prompt, answer and correction joins the cleanup list.
func (s *AppealService) ask(ctx context.Context, resourceID string, replies <-chan platform.Message, cleanup *[]string, stage, prompt string, validate func(platform.Message) (string, string)) (string, error) {
	s.trackSend(ctx, resourceID, platform.Post{Content: prompt}, cleanup)

	timer := time.NewTimer(s.questionTimeout)
	defer timer.Stop()
	for {
		select {
		case msg := <-replies:
			*cleanup = append(*cleanup, msg.ID)
			answer, correction := validate(msg)
			if correction != "" {
				s.trackSend(ctx, resourceID, platform.Post{Content: correction}, cleanup)
				continue
			}
			return answer, nil
		case <-timer.C:
			return "", util.NewTimeout(stage)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// confirm shows the summary with submit/cancel controls and waits for the
// subject's decision.
func (s *AppealService) confirm(ctx context.Context, resourceID string, subject domain.Member, appeal domain.Appeal, cleanup *[]string) (bool, error) {
	summary := platform.Post{
		Content: fmt.Sprintf(
			"Please review your appeal before submitting.\n\nWhy the decision should be reversed:\n%s\n\nWhat has changed:\n%s\n\nProof:\n%s",
			appeal.ReasonClaim, appeal.Justification, appeal.Proof),
		ControlIDs: []string{controls.AppealSubmit, controls.AppealCancel},
	}
	// Register the waiter before the summary is visible so a decision can
	// never arrive unrouted.
	decisions := make(chan bool, 1)
	s.mu.Lock()
	s.confirms[resourceID] = confirmWaiter{subjectID: subject.ID, decisions: decisions}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.confirms, resourceID)
		s.mu.Unlock()
	}()

	msg, err := s.client.Send(ctx, resourceID, summary)
	if err != nil {
		return false, util.MapError(err)
	}
	*cleanup = append(*cleanup, msg.ID)

	timer := time.NewTimer(s.confirmTimeout)
	defer timer.Stop()
	select {
	case submit := <-decisions:
		return submit, nil
	case <-timer.C:
		// Record the timeout on the summary itself before cleanup removes it.
		expired := summary.Content + "\n\nTimed out waiting for a decision."
		if err := s.client.EditMessage(context.WithoutCancel(ctx), resourceID, msg.ID, platform.MessageEdit{Content: &expired}); err != nil {
			s.logger.Warn("could not mark summary as expired", zap.String("message", msg.ID), zap.Error(err))
		}
		return false, util.NewTimeout("appeal confirmation")
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// SubmitConfirm handles the appeal-submit control on a live summary message.
func (s *AppealService) SubmitConfirm(ctx context.Context, action controls.ActionContext) error {
	return s.decideConfirm(action, true)
}

// CancelConfirm handles the appeal-cancel control on a live summary message.
func (s *AppealService) CancelConfirm(ctx context.Context, action controls.ActionContext) error {
	return s.decideConfirm(action, false)
}

func (s *AppealService) decideConfirm(action controls.ActionContext, submit bool) error {
	s.mu.Lock()
	waiter, ok := s.confirms[action.Resource().ID]
	s.mu.Unlock()
	if !ok {
		return action.Respond("This appeal is no longer active.")
	}
	if waiter.subjectID != action.Actor().ID {
		return util.NewPermissionDenied("only the appealing member can decide")
	}
	select {
	case waiter.decisions <- submit:
	default:
	}
	return nil
}

// submit posts the review record into the staff appeal channel.
func (s *AppealService) submit(ctx context.Context, subject domain.Member, appeal domain.Appeal) error {
	cfg := s.settings.GetGuildConfig(appeal.WorkspaceID)
	if cfg.AppealChannelID == "" {
		return util.NewConfigInvalid("appeal channel is not set", nil)
	}

	record := platform.Post{
		Content: fmt.Sprintf(
			"Blacklist appeal from %s (%s)\n\nWhy the decision should be reversed:\n%s\n\nWhat has changed:\n%s\n\nProof:\n%s",
			subject.Name(), subject.ID, appeal.ReasonClaim, appeal.Justification, appeal.Proof),
		Footer:     domain.ReviewFooter(subject.ID),
		ControlIDs: []string{controls.ReviewApprove, controls.ReviewReject},
	}
	msg, err := s.client.Send(ctx, cfg.AppealChannelID, record)
	if err != nil {
		s.logger.Error("could not post review record",
			zap.String("workspace", appeal.WorkspaceID),
			zap.String("member", subject.ID), zap.Error(err))
		return util.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventAppealSubmitted,
		WorkspaceID: appeal.WorkspaceID,
		ResourceID:  cfg.AppealChannelID,
		ActorID:     subject.ID,
		Payload:     events.AppealPayload{SubjectID: subject.ID, RecordID: msg.ID},
	})
	return nil
}

// finish translates a conversation error into the subject-facing closing
// notice and passes the error up unchanged.
func (s *AppealService) finish(ctx context.Context, resourceID string, err error) error {
	if util.HasCode(err, "TIMEOUT") {
		s.reportDirect(ctx, resourceID, "Appeal timed out. You can start over from the original offer.")
	}
	return err
}

// trackSend posts a conversation message and records it for cleanup.
func (s *AppealService) trackSend(ctx context.Context, resourceID string, post platform.Post, cleanup *[]string) {
	msg, err := s.client.Send(ctx, resourceID, post)
	if err != nil {
		s.logger.Warn("appeal prompt failed", zap.String("resource", resourceID), zap.Error(err))
		return
	}
	*cleanup = append(*cleanup, msg.ID)
}

// cleanupMessages deletes the conversation's messages newest-first. Delete
// failures are logged and skipped so one stuck message never strands the
// rest.
func (s *AppealService) cleanupMessages(ctx context.Context, resourceID string, cleanup *[]string) {
	ctx = context.WithoutCancel(ctx)
	for i := len(*cleanup) - 1; i >= 0; i-- {
		if err := s.client.DeleteMessage(ctx, resourceID, (*cleanup)[i]); err != nil {
			s.logger.Warn("appeal cleanup skipped a message",
				zap.String("message", (*cleanup)[i]), zap.Error(err))
		}
	}
}

func (s *AppealService) reportDirect(ctx context.Context, resourceID, text string) {
	if _, err := s.client.Send(context.WithoutCancel(ctx), resourceID, platform.Post{Content: text}); err != nil {
		s.logger.Warn("appeal notice failed", zap.String("resource", resourceID), zap.Error(err))
	}
}

func (s *AppealService) publish(ctx context.Context, event events.Event) {
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
