package controls

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

func testAction(responses *[]string) *Action {
	return &Action{
		Member:    domain.Member{ID: "42", Handle: "alice"},
		Workspace: "ws1",
		Responder: func(text string) error {
			*responses = append(*responses, text)
			return nil
		},
	}
}

func TestDispatchUnknownControl(t *testing.T) {
	router := NewRouter(zap.NewNop())
	var responses []string

	err := router.Dispatch(context.Background(), "nope:nope", testAction(&responses))
	if !util.HasCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestDispatchRunsHandler(t *testing.T) {
	router := NewRouter(zap.NewNop())
	called := false
	router.Register(TicketClose, func(ctx context.Context, action ActionContext) error {
		called = true
		if action.Actor().ID != "42" {
			t.Fatalf("wrong actor %q", action.Actor().ID)
		}
		return nil
	})

	var responses []string
	if err := router.Dispatch(context.Background(), TicketClose, testAction(&responses)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !called {
		t.Fatal("handler not invoked")
	}
	if len(responses) != 0 {
		t.Fatalf("unexpected responses %v", responses)
	}
}

func TestDispatchSurfacesTaxonomyErrors(t *testing.T) {
	router := NewRouter(zap.NewNop())
	router.Register(TicketDelete, func(ctx context.Context, action ActionContext) error {
		return util.NewPermissionDenied("staff only")
	})

	var responses []string
	err := router.Dispatch(context.Background(), TicketDelete, testAction(&responses))
	if !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}
	if len(responses) != 1 || responses[0] != "staff only" {
		t.Fatalf("actor not told the rejection reason: %v", responses)
	}
}

func TestDispatchMasksInternalErrors(t *testing.T) {
	router := NewRouter(zap.NewNop())
	router.Register(TicketClose, func(ctx context.Context, action ActionContext) error {
		return errors.New("pool exhausted at 10.0.0.3")
	})

	var responses []string
	err := router.Dispatch(context.Background(), TicketClose, testAction(&responses))
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %v", responses)
	}
	if responses[0] != "An unexpected error occurred." {
		t.Fatalf("internal details leaked to actor: %q", responses[0])
	}
}
