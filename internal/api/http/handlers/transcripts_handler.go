package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/repository"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// TranscriptsHandler exposes the transcript archive.
type TranscriptsHandler struct {
	transcripts repository.TranscriptRepository
}

// NewTranscriptsHandler constructs the handler. A nil repository means the
// archive is disabled.
func NewTranscriptsHandler(transcripts repository.TranscriptRepository) *TranscriptsHandler {
	return &TranscriptsHandler{transcripts: transcripts}
}

// List handles GET /workspaces/:id/transcripts.
func (h *TranscriptsHandler) List(c *fiber.Ctx) error {
	if h.transcripts == nil {
		return util.NewConfigInvalid("transcript archive is disabled", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	records, err := h.transcripts.ListByWorkspace(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return util.MapError(err)
	}

	summaries := make([]dto.TranscriptSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, summarize(record))
	}
	return c.JSON(fiber.Map{"data": summaries})
}

// Get handles GET /transcripts/:id, returning the raw transcript text.
func (h *TranscriptsHandler) Get(c *fiber.Ctx) error {
	if h.transcripts == nil {
		return util.NewConfigInvalid("transcript archive is disabled", nil)
	}

	record, err := h.transcripts.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if repository.IsNotFound(err) {
			return util.NewNotFound("transcript", nil)
		}
		return util.MapError(err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(http.StatusOK).Send(record.Content)
}

func summarize(record domain.TranscriptRecord) dto.TranscriptSummary {
	return dto.TranscriptSummary{
		ID:          record.ID,
		WorkspaceID: record.WorkspaceID,
		TicketName:  record.TicketName,
		OwnerID:     record.OwnerID,
		ClosedByID:  record.ClosedByID,
		Reason:      record.Reason,
		CreatedAt:   record.CreatedAt,
	}
}
