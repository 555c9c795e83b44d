package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/service"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// StatsHandler reports workspace ticket counts and event totals.
type StatsHandler struct {
	tickets *service.TicketService
	metrics *observability.Metrics
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(tickets *service.TicketService, metrics *observability.Metrics) *StatsHandler {
	return &StatsHandler{tickets: tickets, metrics: metrics}
}

// Get handles GET /workspaces/:id/stats.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	total, open, err := h.tickets.Stats(c.UserContext(), c.Params("id"))
	if err != nil {
		return util.MapError(err)
	}

	eventTotals := make(map[string]int64)
	if h.metrics != nil {
		for _, eventType := range []events.EventType{
			events.EventTicketCreated,
			events.EventTicketClosed,
			events.EventTicketDeleted,
			events.EventAppealSubmitted,
			events.EventAppealDecided,
		} {
			eventTotals[string(eventType)] = h.metrics.EventCount(eventType)
		}
	}

	return c.JSON(fiber.Map{"data": dto.WorkspaceStatsResponse{
		TotalTickets: total,
		OpenTickets:  open,
		Events:       eventTotals,
	}})
}
