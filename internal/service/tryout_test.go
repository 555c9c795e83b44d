package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

func TestTryoutIntakeHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resource, roleID, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeTryout)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		f.tickets.RunTryoutIntake(ctx, testWorkspace, *resource, owner, roleID)
		close(done)
	}()

	f.waitForPrompt(t, resource.ID, "game handle")
	f.reply(resource.ID, owner, "AliceTheAce")
	f.waitForPrompt(t, resource.ID, "stats screenshot")

	// A plain text reply is ignored; only an image satisfies step two.
	f.reply(resource.ID, owner, "here you go")
	f.reply(resource.ID, owner, "", platform.Attachment{
		FileName:    "stats.png",
		URL:         "https://cdn.example/stats.png",
		ContentType: "image/png",
	})

	<-done
	summary := f.lastMessage(t, resource.ID)
	if !strings.Contains(summary.Content, "Tryout complete") {
		t.Fatalf("missing summary: %q", summary.Content)
	}
	if !strings.Contains(summary.Content, "AliceTheAce") {
		t.Fatalf("summary lacks handle: %q", summary.Content)
	}
	if !strings.Contains(summary.Content, "https://cdn.example/stats.png") {
		t.Fatalf("summary lacks screenshot: %q", summary.Content)
	}
	if len(summary.ControlIDs) != 2 {
		t.Fatalf("summary controls = %v", summary.ControlIDs)
	}
}

func TestTryoutIntakeInactivityAutoDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resource, roleID, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeTryout)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		f.tickets.RunTryoutIntake(ctx, testWorkspace, *resource, owner, roleID)
		close(done)
	}()

	f.waitForPrompt(t, resource.ID, "game handle")

	// No reply ever arrives; the step timer expires and the ticket goes away.
	<-done
	if _, err := f.client.Resource(ctx, resource.ID); err == nil {
		t.Fatal("inactive tryout ticket survived")
	}
}
