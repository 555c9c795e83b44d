package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/settings"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// AppealOfferer starts the appeal conversation for a blacklisted member.
type AppealOfferer interface {
	Offer(ctx context.Context, workspaceID string, subject domain.Member, reason string)
}

// AccessService gates ticket creation behind the blacklist and the setup
// check, and manages the blacklist itself.
type AccessService struct {
	settings   *settings.Store
	appeals    AppealOfferer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AccessDependencies bundles collaborators for the access service.
type AccessDependencies struct {
	Settings   *settings.Store
	Appeals    AppealOfferer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAccessService constructs the service.
func NewAccessService(deps AccessDependencies) *AccessService {
	return &AccessService{
		settings:   deps.Settings,
		appeals:    deps.Appeals,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CheckCreate decides whether a member may open a ticket. A blacklisted
// member is rejected and, as a side effect, offered the appeal flow in a
// direct channel; the offer runs detached so the rejection is immediate.
func (s *AccessService) CheckCreate(ctx context.Context, workspaceID string, actor domain.Member) error {
	cfg := s.settings.GetGuildConfig(workspaceID)

	if reason, listed := cfg.BlacklistReason(actor.ID); listed {
		if s.appeals != nil {
			go s.appeals.Offer(context.WithoutCancel(ctx), workspaceID, actor, reason)
		}
		return util.NewPermissionDenied("you are blacklisted from creating tickets")
	}

	if missing := cfg.MissingSetup(); len(missing) > 0 {
		return util.NewNotConfigured(missing)
	}
	return nil
}

// BlacklistMember records a blacklist entry. Administrators only; bots and
// the actor themselves are never valid targets, and an existing entry is a
// conflict rather than a silent overwrite.
func (s *AccessService) BlacklistMember(ctx context.Context, workspaceID string, actor domain.Member, target domain.Member, reason string) error {
	if !actor.Admin {
		return util.NewPermissionDenied("only administrators can manage the blacklist")
	}
	if target.ID == actor.ID {
		return util.NewValidationError("you cannot blacklist yourself", nil)
	}
	if target.Bot {
		return util.NewValidationError("bots cannot be blacklisted", nil)
	}
	if reason == "" {
		reason = "No reason provided"
	}

	cfg := s.settings.GetGuildConfig(workspaceID)
	if existing, listed := cfg.BlacklistReason(target.ID); listed {
		return util.NewConflict("member is already blacklisted", map[string]any{"reason": existing})
	}

	s.settings.SetBlacklist(workspaceID, target.ID, reason)
	s.publish(ctx, events.Event{
		Type:        events.EventMemberBlacklisted,
		WorkspaceID: workspaceID,
		ActorID:     actor.ID,
		Payload:     events.BlacklistPayload{MemberID: target.ID, Reason: reason},
	})
	return nil
}

// UnblacklistMember clears a blacklist entry.
func (s *AccessService) UnblacklistMember(ctx context.Context, workspaceID string, actor domain.Member, targetID string) error {
	if !actor.Admin {
		return util.NewPermissionDenied("only administrators can manage the blacklist")
	}
	if !s.settings.RemoveBlacklist(workspaceID, targetID) {
		return util.NewConflict("member is not blacklisted", nil)
	}
	s.publish(ctx, events.Event{
		Type:        events.EventMemberUnblacklisted,
		WorkspaceID: workspaceID,
		ActorID:     actor.ID,
		Payload:     events.BlacklistPayload{MemberID: targetID},
	})
	return nil
}

func (s *AccessService) publish(ctx context.Context, event events.Event) {
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
