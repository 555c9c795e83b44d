package service

import (
	"context"
	"errors"
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
	"github.com/spec-kit/ticket-bot/internal/transcript"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation with per-type
// limits, claim/unclaim ownership transitions, close-to-archive with
// transcript capture, and permanent deletion.
type TicketService struct {
	client      platform.Client
	settings    *settings.Store
	transcripts *transcript.Generator
	inbox       *platform.Inbox
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	closeGrace  time.Duration
	deleteDelay time.Duration
	closeReason time.Duration
	tryoutStep  time.Duration
	tryoutAbort time.Duration
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Client      platform.Client
	Settings    *settings.Store
	Transcripts *transcript.Generator
	Inbox       *platform.Inbox
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	CloseGrace  time.Duration
	DeleteDelay time.Duration
	// CloseReasonTimeout bounds the optional reason prompt before a close.
	CloseReasonTimeout time.Duration
	// TryoutStepTimeout bounds each step of the tryout intake;
	// TryoutAbortDelay is the notice-to-deletion pause on inactivity.
	TryoutStepTimeout time.Duration
	TryoutAbortDelay  time.Duration
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	if deps.CloseGrace <= 0 {
		deps.CloseGrace = 5 * time.Second
	}
	if deps.DeleteDelay <= 0 {
		deps.DeleteDelay = 10 * time.Second
	}
	if deps.CloseReasonTimeout <= 0 {
		deps.CloseReasonTimeout = time.Minute
	}
	if deps.TryoutStepTimeout <= 0 {
		deps.TryoutStepTimeout = 5 * time.Minute
	}
	if deps.TryoutAbortDelay <= 0 {
		deps.TryoutAbortDelay = 10 * time.Second
	}
	return &TicketService{
		client:      deps.Client,
		settings:    deps.Settings,
		transcripts: deps.Transcripts,
		inbox:       deps.Inbox,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		closeGrace:  deps.CloseGrace,
		deleteDelay: deps.DeleteDelay,
		closeReason: deps.CloseReasonTimeout,
		tryoutStep:  deps.TryoutStepTimeout,
		tryoutAbort: deps.TryoutAbortDelay,
	}
}

// CreateTicket creates a ticket resource for a member. It returns the new
// resource and the staff role id so callers can compose the welcome ping.
func (s *TicketService) CreateTicket(ctx context.Context, workspaceID string, actor domain.Member, ticketType domain.TicketType) (*platform.Resource, string, error) {
	cfg := s.settings.GetGuildConfig(workspaceID)

	if cfg.StaffRoleID == "" {
		return nil, "", util.NewConfigInvalid("staff role is not set", nil)
	}
	exists, err := s.client.RoleExists(ctx, workspaceID, cfg.StaffRoleID)
	if err != nil {
		return nil, "", util.MapError(err)
	}
	if !exists {
		return nil, "", util.NewConfigInvalid("staff role no longer exists", map[string]any{"role_id": cfg.StaffRoleID})
	}

	if cfg.TicketCategoryID == "" {
		return nil, "", util.NewConfigInvalid("ticket category is not set", nil)
	}
	if _, err := s.client.Resource(ctx, cfg.TicketCategoryID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, "", util.NewConfigInvalid("ticket category no longer exists", map[string]any{"category_id": cfg.TicketCategoryID})
		}
		return nil, "", util.MapError(err)
	}

	typed, total, err := s.countOwnedTickets(ctx, workspaceID, cfg.TicketCategoryID, actor.ID, ticketType)
	if err != nil {
		return nil, "", util.MapError(err)
	}
	if typed >= ticketType.OpenLimit() {
		return nil, "", util.NewLimitReached(string(ticketType), ticketType.OpenLimit())
	}
	if total >= domain.MaxOpenPerMember {
		return nil, "", util.NewLimitReached("total", domain.MaxOpenPerMember)
	}

	number := s.settings.NextTicketNumber(workspaceID)
	name := domain.TicketResourceName(ticketType, number, actor.Handle)
	topic := domain.TicketMeta{OwnerID: actor.ID, Type: ticketType}.Encode()

	access := []platform.Access{
		{Kind: platform.AccessEveryone, Read: false, Write: false},
		{Kind: platform.AccessMember, TargetID: actor.ID, Read: true, Write: true},
		{Kind: platform.AccessMember, TargetID: s.client.BotID(), Read: true, Write: true},
		{Kind: platform.AccessRole, TargetID: cfg.StaffRoleID, Read: true, Write: true},
	}

	resource, err := s.client.CreateResource(ctx, workspaceID, cfg.TicketCategoryID, name, topic, access)
	if err != nil {
		if errors.Is(err, platform.ErrForbidden) {
			return nil, "", util.NewPlatformForbidden("resource creation", err)
		}
		return nil, "", util.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketCreated,
		WorkspaceID: workspaceID,
		ResourceID:  resource.ID,
		ActorID:     actor.ID,
		Payload: events.TicketCreatedPayload{
			Number:  number,
			Type:    ticketType,
			OwnerID: actor.ID,
		},
	})

	welcome := platform.Post{
		Content:    fmt.Sprintf("%s Welcome! Please describe your issue; %s will assist.", mention(actor.ID), roleMention(cfg.StaffRoleID)),
		ControlIDs: []string{controls.TicketClose, controls.TicketDelete},
	}
	if _, err := s.client.Send(ctx, resource.ID, welcome); err != nil {
		s.logger.Warn("failed to post ticket welcome",
			zap.String("resource", resource.ID), zap.Error(err))
	}

	return resource, cfg.StaffRoleID, nil
}

// countOwnedTickets scans the live ticket category and counts resources
// whose metadata carries the member's owner marker, per requested type and
// in total. Deliberately a linear scan with no cache.
func (s *TicketService) countOwnedTickets(ctx context.Context, workspaceID, categoryID, memberID string, ticketType domain.TicketType) (int, int, error) {
	resources, err := s.client.ListResources(ctx, workspaceID, categoryID)
	if err != nil {
		return 0, 0, err
	}
	typed, total := 0, 0
	for _, res := range resources {
		meta := domain.ParseTicketMeta(res.Topic)
		if meta.OwnerID != memberID {
			continue
		}
		total++
		if meta.Type == ticketType {
			typed++
		}
	}
	return typed, total, nil
}

// Claim marks the ticket as claimed by the acting staff member. The claim
// is exclusive: a present marker always rejects.
func (s *TicketService) Claim(ctx context.Context, workspaceID string, resourceID string, actor domain.Member) error {
	cfg := s.settings.GetGuildConfig(workspaceID)
	if !staffOrAdmin(actor, cfg) {
		return util.NewPermissionDenied("only staff can claim tickets")
	}

	resource, err := s.client.Resource(ctx, resourceID)
	if err != nil {
		return util.MapError(err)
	}
	meta := domain.ParseTicketMeta(resource.Topic)
	if meta.Claimed() {
		return util.NewConflict("ticket is already claimed", map[string]any{"claim_holder": meta.ClaimHolder})
	}

	next := meta.Base(resource.ID)
	next.ClaimHolder = actor.ID
	topic := next.Encode()
	if err := s.client.UpdateResource(ctx, resourceID, platform.ResourcePatch{Topic: &topic}); err != nil {
		if errors.Is(err, platform.ErrForbidden) {
			return util.NewPlatformForbidden("topic update", err)
		}
		return util.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketClaimed,
		WorkspaceID: workspaceID,
		ResourceID:  resourceID,
		ActorID:     actor.ID,
		Payload:     events.TicketClaimPayload{ClaimHolder: actor.ID},
	})
	return nil
}

// Unclaim clears the claim marker. Only the current holder or an
// administrator may do so.
func (s *TicketService) Unclaim(ctx context.Context, workspaceID string, resourceID string, actor domain.Member) error {
	resource, err := s.client.Resource(ctx, resourceID)
	if err != nil {
		return util.MapError(err)
	}
	meta := domain.ParseTicketMeta(resource.Topic)
	if !meta.Claimed() {
		return util.NewConflict("ticket is not claimed", nil)
	}
	if meta.ClaimHolder != actor.ID && !actor.Admin {
		return util.NewPermissionDenied("only the claim holder or an administrator can unclaim")
	}

	topic := meta.Base(resource.ID).Encode()
	if err := s.client.UpdateResource(ctx, resourceID, platform.ResourcePatch{Topic: &topic}); err != nil {
		if errors.Is(err, platform.ErrForbidden) {
			return util.NewPlatformForbidden("topic update", err)
		}
		return util.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketUnclaimed,
		WorkspaceID: workspaceID,
		ResourceID:  resourceID,
		ActorID:     actor.ID,
		Payload:     events.TicketClaimPayload{},
	})
	return nil
}

// Close runs the close-to-archive sequence: transcript, closure record,
// grace pause, relabel, move to the archive category, narrowed access.
// Failures after the permission check degrade gracefully: each failing step
// is reported into the ticket itself and the sequence continues.
func (s *TicketService) Close(ctx context.Context, workspaceID string, resourceID string, closer domain.Member, reason string) error {
	if reason == "" {
		reason = "No reason provided"
	}
	cfg := s.settings.GetGuildConfig(workspaceID)

	resource, err := s.client.Resource(ctx, resourceID)
	if err != nil {
		return util.MapError(err)
	}

	meta := domain.ParseTicketMeta(resource.Topic)
	if meta.OwnerID != closer.ID && !staffOrAdmin(closer, cfg) {
		return util.NewPermissionDenied("only the ticket owner or staff can close this ticket")
	}

	if cfg.ArchiveCategoryID == "" {
		s.reportInline(ctx, resourceID, "Archive category is not set; cannot close.")
		return util.NewConfigInvalid("archive category is not set", nil)
	}
	if _, err := s.client.Resource(ctx, cfg.ArchiveCategoryID); err != nil {
		s.reportInline(ctx, resourceID, "Archive category no longer exists; cannot close.")
		return util.NewConfigInvalid("archive category no longer exists", map[string]any{"category_id": cfg.ArchiveCategoryID})
	}

	var transcriptBytes []byte
	transcriptBytes, err = s.transcripts.Generate(ctx, resourceID)
	if err != nil {
		s.logger.Warn("transcript generation failed", zap.String("resource", resourceID), zap.Error(err))
		s.reportInline(ctx, resourceID, "Transcript could not be generated.")
	}

	closure := platform.Post{
		Content: fmt.Sprintf("Ticket closed by %s. Reason: %s", mention(closer.ID), reason),
	}
	if transcriptBytes != nil {
		closure.File = &platform.FileUpload{
			Name:    resource.Name + "-transcript.txt",
			Content: transcriptBytes,
		}
	}
	if _, err := s.client.Send(ctx, resourceID, closure); err != nil {
		s.logger.Warn("closure record failed", zap.String("resource", resourceID), zap.Error(err))
		s.reportInline(ctx, resourceID, "Transcript upload failed; continuing with archival.")
	}

	select {
	case <-time.After(s.closeGrace):
	case <-ctx.Done():
		return ctx.Err()
	}

	name := domain.ArchivedResourceName(resource.Name, resource.ID)
	access := []platform.Access{
		{Kind: platform.AccessEveryone, Read: false, Write: false},
		{Kind: platform.AccessMember, TargetID: s.client.BotID(), Read: true, Write: true},
	}
	if cfg.StaffRoleID != "" {
		access = append(access, platform.Access{Kind: platform.AccessRole, TargetID: cfg.StaffRoleID, Read: true, Write: false})
	}
	patch := platform.ResourcePatch{
		Name:     &name,
		ParentID: &cfg.ArchiveCategoryID,
		Access:   access,
	}
	if err := s.client.UpdateResource(ctx, resourceID, patch); err != nil {
		s.logger.Error("archival move failed", zap.String("resource", resourceID), zap.Error(err))
		if errors.Is(err, platform.ErrForbidden) {
			s.reportInline(ctx, resourceID, "Lacking permissions to archive this ticket.")
			return util.NewPlatformForbidden("archival", err)
		}
		s.reportInline(ctx, resourceID, "Archival failed; ticket remains open.")
		return util.MapError(err)
	}

	s.stripRecentControls(ctx, resourceID)
	s.reportInline(ctx, resourceID, "Archived.")

	s.publish(ctx, events.Event{
		Type:        events.EventTicketClosed,
		WorkspaceID: workspaceID,
		ResourceID:  resourceID,
		ActorID:     closer.ID,
		Payload: events.TicketClosedPayload{
			TicketName: resource.Name,
			OwnerID:    meta.OwnerID,
			Reason:     reason,
			Transcript: transcriptBytes,
		},
	})
	return nil
}

// Delete permanently removes a ticket after a countdown. A resource that is
// already gone counts as success.
func (s *TicketService) Delete(ctx context.Context, workspaceID string, resourceID string, actor domain.Member) error {
	cfg := s.settings.GetGuildConfig(workspaceID)
	if !staffOrAdmin(actor, cfg) {
		return util.NewPermissionDenied("only staff can delete tickets")
	}

	resource, err := s.client.Resource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil
		}
		return util.MapError(err)
	}

	s.reportInline(ctx, resourceID, fmt.Sprintf("Marked for deletion by %s. Deleting in %d seconds.", mention(actor.ID), int(s.deleteDelay.Seconds())))

	select {
	case <-time.After(s.deleteDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.client.DeleteResource(ctx, resourceID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil
		}
		if errors.Is(err, platform.ErrForbidden) {
			s.reportInline(ctx, resourceID, "Lacking permissions to delete this ticket.")
			return util.NewPlatformForbidden("resource deletion", err)
		}
		return util.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:        events.EventTicketDeleted,
		WorkspaceID: workspaceID,
		ResourceID:  resourceID,
		ActorID:     actor.ID,
		Payload:     events.TicketDeletedPayload{TicketName: resource.Name},
	})
	return nil
}

// AddMember grants a member access to the ticket.
func (s *TicketService) AddMember(ctx context.Context, workspaceID string, resource platform.Resource, actor domain.Member, targetID string) error {
	if err := s.requireStaffInTicket(workspaceID, resource, actor); err != nil {
		return err
	}
	err := s.client.SetAccess(ctx, resource.ID, platform.Access{
		Kind: platform.AccessMember, TargetID: targetID, Read: true, Write: true,
	})
	if errors.Is(err, platform.ErrForbidden) {
		return util.NewPlatformForbidden("access update", err)
	}
	return util.MapError(err)
}

// RemoveMember revokes a member's access to the ticket.
func (s *TicketService) RemoveMember(ctx context.Context, workspaceID string, resource platform.Resource, actor domain.Member, targetID string) error {
	if err := s.requireStaffInTicket(workspaceID, resource, actor); err != nil {
		return err
	}
	err := s.client.ClearAccess(ctx, resource.ID, platform.AccessMember, targetID)
	if errors.Is(err, platform.ErrForbidden) {
		return util.NewPlatformForbidden("access update", err)
	}
	return util.MapError(err)
}

// Rename relabels the ticket resource.
func (s *TicketService) Rename(ctx context.Context, workspaceID string, resource platform.Resource, actor domain.Member, newName string) (string, error) {
	if err := s.requireStaffInTicket(workspaceID, resource, actor); err != nil {
		return "", err
	}
	clean := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(newName), " ", "-"))
	if len(clean) > 100 {
		clean = clean[:100]
	}
	if clean == "" {
		return "", util.NewValidationError("new name must not be empty", nil)
	}
	if err := s.client.UpdateResource(ctx, resource.ID, platform.ResourcePatch{Name: &clean}); err != nil {
		if errors.Is(err, platform.ErrForbidden) {
			return "", util.NewPlatformForbidden("rename", err)
		}
		return "", util.MapError(err)
	}
	return clean, nil
}

// Escalate pings the escalation role inside the ticket.
func (s *TicketService) Escalate(ctx context.Context, workspaceID string, resource platform.Resource, actor domain.Member) error {
	if err := s.requireStaffInTicket(workspaceID, resource, actor); err != nil {
		return err
	}
	cfg := s.settings.GetGuildConfig(workspaceID)
	if cfg.EscalationRoleID == "" {
		return util.NewConfigInvalid("escalation role is not set", nil)
	}
	exists, err := s.client.RoleExists(ctx, workspaceID, cfg.EscalationRoleID)
	if err != nil {
		return util.MapError(err)
	}
	if !exists {
		return util.NewConfigInvalid("escalation role no longer exists", map[string]any{"role_id": cfg.EscalationRoleID})
	}
	_, err = s.client.Send(ctx, resource.ID, platform.Post{
		Content: fmt.Sprintf("%s Ticket escalated by %s.", roleMention(cfg.EscalationRoleID), mention(actor.ID)),
	})
	return util.MapError(err)
}

// Purge deletes up to 100 recent messages from the ticket, returning how
// many were removed.
func (s *TicketService) Purge(ctx context.Context, workspaceID string, resource platform.Resource, actor domain.Member, amount int) (int, error) {
	if err := s.requireStaffInTicket(workspaceID, resource, actor); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, util.NewValidationError("amount must be positive", nil)
	}
	if amount > 100 {
		return 0, util.NewValidationError("amount must be at most 100", nil)
	}
	recent, err := s.client.RecentMessages(ctx, resource.ID, amount)
	if err != nil {
		return 0, util.MapError(err)
	}
	deleted := 0
	for _, msg := range recent {
		if err := s.client.DeleteMessage(ctx, resource.ID, msg.ID); err != nil {
			if errors.Is(err, platform.ErrForbidden) {
				return deleted, util.NewPlatformForbidden("message deletion", err)
			}
			s.logger.Warn("purge skipped a message", zap.String("message", msg.ID), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Stats reports the total tickets ever created and the currently open count.
func (s *TicketService) Stats(ctx context.Context, workspaceID string) (total int, open int, err error) {
	cfg := s.settings.GetGuildConfig(workspaceID)
	total = cfg.TicketCounter - 1
	if total < 0 {
		total = 0
	}
	if cfg.TicketCategoryID == "" {
		return total, 0, nil
	}
	resources, err := s.client.ListResources(ctx, workspaceID, cfg.TicketCategoryID)
	if err != nil {
		return total, 0, util.MapError(err)
	}
	return total, len(resources), nil
}

func (s *TicketService) requireStaffInTicket(workspaceID string, resource platform.Resource, actor domain.Member) error {
	cfg := s.settings.GetGuildConfig(workspaceID)
	if !staffOrAdmin(actor, cfg) {
		return util.NewPermissionDenied("staff only")
	}
	if resource.ParentID != cfg.TicketCategoryID {
		return util.NewValidationError("only available inside an open ticket", nil)
	}
	return nil
}

// stripRecentControls removes interactive controls from the most recent bot
// message that still carries them, so archived tickets cannot be re-closed.
func (s *TicketService) stripRecentControls(ctx context.Context, resourceID string) {
	recent, err := s.client.RecentMessages(ctx, resourceID, 5)
	if err != nil {
		s.logger.Warn("could not inspect recent messages", zap.String("resource", resourceID), zap.Error(err))
		return
	}
	for _, msg := range recent {
		if !msg.AuthorBot || len(msg.ControlIDs) == 0 {
			continue
		}
		none := []string{}
		if err := s.client.EditMessage(ctx, resourceID, msg.ID, platform.MessageEdit{ControlIDs: &none}); err != nil {
			s.logger.Warn("could not strip controls", zap.String("message", msg.ID), zap.Error(err))
		}
		return
	}
}

// reportInline posts a failure or status notice into the ticket itself.
func (s *TicketService) reportInline(ctx context.Context, resourceID, text string) {
	if _, err := s.client.Send(ctx, resourceID, platform.Post{Content: text}); err != nil {
		s.logger.Warn("inline report failed", zap.String("resource", resourceID), zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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
