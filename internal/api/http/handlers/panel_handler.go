package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/service"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// PanelHandler publishes the ticket panel from the ops API.
type PanelHandler struct {
	panels *service.PanelService
}

// NewPanelHandler constructs the handler.
func NewPanelHandler(panels *service.PanelService) *PanelHandler {
	return &PanelHandler{panels: panels}
}

// Publish handles POST /workspaces/:id/panel. The operator acts with
// administrator rights.
func (h *PanelHandler) Publish(c *fiber.Ctx) error {
	operator := domain.Member{ID: auth.OperatorSubject, Handle: auth.OperatorSubject, Admin: true}
	msg, err := h.panels.PublishPanel(c.UserContext(), c.Params("id"), operator)
	if err != nil {
		return util.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"message_id": msg.ID,
			"channel_id": msg.ResourceID,
		},
	})
}
