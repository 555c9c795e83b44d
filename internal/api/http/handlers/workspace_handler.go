package handlers

import (
	"net/http"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/settings"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// WorkspaceHandler exposes per-workspace settings and the blacklist.
type WorkspaceHandler struct {
	settings *settings.Store
}

// NewWorkspaceHandler constructs the handler.
func NewWorkspaceHandler(store *settings.Store) *WorkspaceHandler {
	return &WorkspaceHandler{settings: store}
}

// GetConfig handles GET /workspaces/:id/config.
func (h *WorkspaceHandler) GetConfig(c *fiber.Ctx) error {
	cfg := h.settings.GetGuildConfig(c.Params("id"))
	return c.JSON(fiber.Map{"data": configResponse(cfg)})
}

// PatchConfig handles PATCH /workspaces/:id/config.
func (h *WorkspaceHandler) PatchConfig(c *fiber.Ctx) error {
	workspaceID := c.Params("id")

	var req dto.WorkspaceConfigPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	updates := map[string]*string{
		domain.SettingPanelChannel:    req.PanelChannelID,
		domain.SettingTicketCategory:  req.TicketCategoryID,
		domain.SettingArchiveCategory: req.ArchiveCategoryID,
		domain.SettingStaffRole:       req.StaffRoleID,
		domain.SettingEscalationRole:  req.EscalationRoleID,
		domain.SettingAppealChannel:   req.AppealChannelID,
		domain.SettingPrefix:          req.Prefix,
	}
	for key, value := range updates {
		if value == nil {
			continue
		}
		if err := h.settings.UpdateGuildConfig(workspaceID, key, *value); err != nil {
			return util.NewValidationError(err.Error(), map[string]any{"key": key})
		}
	}

	cfg := h.settings.GetGuildConfig(workspaceID)
	return c.JSON(fiber.Map{"data": configResponse(cfg)})
}

// ListBlacklist handles GET /workspaces/:id/blacklist.
func (h *WorkspaceHandler) ListBlacklist(c *fiber.Ctx) error {
	cfg := h.settings.GetGuildConfig(c.Params("id"))

	entries := make([]dto.BlacklistEntry, 0, len(cfg.Blacklist))
	for memberID, reason := range cfg.Blacklist {
		entries = append(entries, dto.BlacklistEntry{MemberID: memberID, Reason: reason})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].MemberID < entries[j].MemberID })
	return c.JSON(fiber.Map{"data": entries})
}

// AddBlacklist handles POST /workspaces/:id/blacklist.
func (h *WorkspaceHandler) AddBlacklist(c *fiber.Ctx) error {
	workspaceID := c.Params("id")

	var req dto.BlacklistAddRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.MemberID == "" {
		return fiber.NewError(http.StatusBadRequest, "member_id required")
	}
	if req.Reason == "" {
		req.Reason = "No reason provided"
	}

	cfg := h.settings.GetGuildConfig(workspaceID)
	if _, listed := cfg.BlacklistReason(req.MemberID); listed {
		return util.NewConflict("member is already blacklisted", nil)
	}

	h.settings.SetBlacklist(workspaceID, req.MemberID, req.Reason)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.BlacklistEntry{MemberID: req.MemberID, Reason: req.Reason},
	})
}

// RemoveBlacklist handles DELETE /workspaces/:id/blacklist/:member.
func (h *WorkspaceHandler) RemoveBlacklist(c *fiber.Ctx) error {
	if !h.settings.RemoveBlacklist(c.Params("id"), c.Params("member")) {
		return util.NewNotFound("blacklist entry", nil)
	}
	return c.SendStatus(http.StatusNoContent)
}

func configResponse(cfg domain.GuildConfig) dto.WorkspaceConfigResponse {
	return dto.WorkspaceConfigResponse{
		PanelChannelID:    cfg.PanelChannelID,
		TicketCategoryID:  cfg.TicketCategoryID,
		ArchiveCategoryID: cfg.ArchiveCategoryID,
		StaffRoleID:       cfg.StaffRoleID,
		EscalationRoleID:  cfg.EscalationRoleID,
		AppealChannelID:   cfg.AppealChannelID,
		Prefix:            cfg.Prefix,
		TicketCounter:     cfg.TicketCounter,
		SetupComplete:     cfg.SetupComplete(),
	}
}
