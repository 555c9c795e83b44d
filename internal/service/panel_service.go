package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/settings"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// PanelService publishes the ticket panel members create tickets from.
type PanelService struct {
	client   platform.Client
	settings *settings.Store
	logger   *zap.Logger
}

// NewPanelService constructs the service.
func NewPanelService(client platform.Client, store *settings.Store, logger *zap.Logger) *PanelService {
	return &PanelService{client: client, settings: store, logger: logger}
}

// PublishPanel posts the panel message into the configured panel channel.
// Administrators only; the workspace must be fully set up first.
func (s *PanelService) PublishPanel(ctx context.Context, workspaceID string, actor domain.Member) (*platform.Message, error) {
	if !actor.Admin {
		return nil, util.NewPermissionDenied("only administrators can publish the panel")
	}

	cfg := s.settings.GetGuildConfig(workspaceID)
	if missing := cfg.MissingSetup(); len(missing) > 0 {
		return nil, util.NewNotConfigured(missing)
	}

	panel := platform.Post{
		Content: "Need help? Open a ticket.\n" +
			"Support: general questions and issues.\n" +
			"Tryout: apply to join; you will be asked for your game handle and a stats screenshot.\n" +
			"Report: report a member or incident.",
		ControlIDs: []string{controls.PanelStandard, controls.PanelTryout, controls.PanelReport},
	}
	msg, err := s.client.Send(ctx, cfg.PanelChannelID, panel)
	if err != nil {
		if errors.Is(err, platform.ErrForbidden) {
			return nil, util.NewPlatformForbidden("panel publication", err)
		}
		return nil, util.MapError(err)
	}
	s.logger.Info("panel published",
		zap.String("workspace", workspaceID),
		zap.String("channel", cfg.PanelChannelID),
		zap.String("message", msg.ID))
	return msg, nil
}
