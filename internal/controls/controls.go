// Package controls routes interactive-control activations to handler
// functions. Control ids are stable opaque strings persisted with their
// messages; the routing table is rebuilt at startup, so controls keep
// working across process restarts without any live object state.
package controls

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

// Stable control ids.
const (
	PanelStandard = "panel:standard"
	PanelTryout   = "panel:tryout"
	PanelReport   = "panel:report"
	TicketClose   = "ticket:close"
	TicketDelete  = "ticket:delete"
	AppealStart   = "appeal:start"
	AppealSubmit  = "appeal:submit"
	AppealCancel  = "appeal:cancel"
	ReviewApprove = "review:approve"
	ReviewReject  = "review:reject"
)

// ActionContext exposes what every trigger source has in common: the acting
// member, the resource and message the control lives on, and a private
// respond capability.
type ActionContext interface {
	Actor() domain.Member
	WorkspaceID() string
	Resource() platform.Resource
	Message() platform.Message
	Respond(text string) error
}

// Handler services one control activation.
type Handler func(ctx context.Context, action ActionContext) error

// Router maps control ids to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *zap.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{handlers: make(map[string]Handler), logger: logger}
}

// Register binds a handler to a control id.
func (r *Router) Register(controlID string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[controlID] = handler
}

// Dispatch runs the handler for a control activation. Taxonomy errors are
// surfaced to the actor as-is; unexpected errors are logged with full
// context and reported as a generic failure. Dispatch never panics the
// process over a handler error.
func (r *Router) Dispatch(ctx context.Context, controlID string, action ActionContext) error {
	r.mu.RLock()
	handler, ok := r.handlers[controlID]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("unknown control id", zap.String("control", controlID))
		return util.NewNotFound("control", map[string]any{"control": controlID})
	}

	err := handler(ctx, action)
	if err == nil {
		return nil
	}

	domainErr := util.ToDomainError(err)
	if domainErr.Code == "INTERNAL_ERROR" {
		r.logger.Error("control handler failed",
			zap.String("control", controlID),
			zap.String("actor", action.Actor().ID),
			zap.String("resource", action.Resource().ID),
			zap.Error(err))
		if respondErr := action.Respond("An unexpected error occurred."); respondErr != nil {
			r.logger.Warn("failed to report error to actor", zap.Error(respondErr))
		}
		return err
	}

	if respondErr := action.Respond(domainErr.Message); respondErr != nil {
		r.logger.Warn("failed to report rejection to actor", zap.Error(respondErr))
	}
	return err
}

// Action is the plain adapter used by gateway drivers and tests.
type Action struct {
	Member    domain.Member
	Workspace string
	Res       platform.Resource
	Msg       platform.Message
	Responder func(text string) error
}

func (a *Action) Actor() domain.Member        { return a.Member }
func (a *Action) WorkspaceID() string         { return a.Workspace }
func (a *Action) Resource() platform.Resource { return a.Res }
func (a *Action) Message() platform.Message   { return a.Msg }

func (a *Action) Respond(text string) error {
	if a.Responder == nil {
		return nil
	}
	return a.Responder(text)
}
