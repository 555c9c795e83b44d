package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/auth"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// AuthHandler exposes operator login.
type AuthHandler struct {
	tokens       *auth.TokenManager
	passwordHash string
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(tokens *auth.TokenManager, passwordHash string) *AuthHandler {
	return &AuthHandler{tokens: tokens, passwordHash: passwordHash}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.OperatorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "password required")
	}
	if h.passwordHash == "" {
		return util.NewConfigInvalid("operator password is not configured", nil)
	}
	if err := auth.ComparePassword(h.passwordHash, req.Password); err != nil {
		return util.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return util.NewInternalError(err)
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
	})
}
