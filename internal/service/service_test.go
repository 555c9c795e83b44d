package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/platform/memory"
	"github.com/spec-kit/ticket-bot/internal/session"
	"github.com/spec-kit/ticket-bot/internal/settings"
	"github.com/spec-kit/ticket-bot/internal/transcript"
)

const (
	testWorkspace = "ws1"
	staffRole     = "900"
)

var (
	owner    = domain.Member{ID: "42", Handle: "alice", DisplayName: "Alice"}
	staff    = domain.Member{ID: "7", Handle: "bob", RoleIDs: []string{staffRole}}
	coworker = domain.Member{ID: "8", Handle: "carol", RoleIDs: []string{staffRole}}
	admin    = domain.Member{ID: "2", Handle: "dave", Admin: true}
	stranger = domain.Member{ID: "9", Handle: "eve"}
)

// fixture wires the full service stack against the in-memory platform with
// millisecond timers.
type fixture struct {
	client     *memory.Client
	store      *settings.Store
	inbox      *platform.Inbox
	dispatcher events.Dispatcher
	tickets    *TicketService
	appeals    *AppealService
	access     *AccessService
	reviews    *ReviewService

	ticketCat  string
	archiveCat string
	panelChan  string
	appealChan string

	published []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}

	client := memory.New()
	client.AddRole(testWorkspace, staffRole)
	for _, m := range []domain.Member{owner, staff, coworker, admin, stranger} {
		client.AddMember(testWorkspace, m)
	}

	f := &fixture{
		client:     client,
		store:      store,
		inbox:      platform.NewInbox(),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		ticketCat:  client.AddCategory(testWorkspace, "tickets"),
		archiveCat: client.AddCategory(testWorkspace, "archive"),
		panelChan:  client.AddCategory(testWorkspace, "panel"),
		appealChan: client.AddCategory(testWorkspace, "appeals"),
	}

	for key, value := range map[string]string{
		domain.SettingPanelChannel:    f.panelChan,
		domain.SettingTicketCategory:  f.ticketCat,
		domain.SettingArchiveCategory: f.archiveCat,
		domain.SettingStaffRole:       staffRole,
		domain.SettingAppealChannel:   f.appealChan,
	} {
		if err := store.UpdateGuildConfig(testWorkspace, key, value); err != nil {
			t.Fatalf("seed setting %s: %v", key, err)
		}
	}

	f.tickets = NewTicketService(TicketDependencies{
		Client:      client,
		Settings:    store,
		Transcripts: transcript.NewGenerator(client, 0),
		Inbox:       f.inbox,
		Dispatcher:  f.dispatcher,
		Logger:      zap.NewNop(),
		CloseGrace:  time.Millisecond,
		DeleteDelay: time.Millisecond,

		CloseReasonTimeout: 50 * time.Millisecond,
		TryoutStepTimeout:  100 * time.Millisecond,
		TryoutAbortDelay:   time.Millisecond,
	})
	f.appeals = NewAppealService(AppealDependencies{
		Client:          client,
		Inbox:           f.inbox,
		Settings:        store,
		Guard:           session.NewMemoryGuard(),
		Dispatcher:      f.dispatcher,
		Logger:          zap.NewNop(),
		QuestionTimeout: 200 * time.Millisecond,
		ConfirmTimeout:  200 * time.Millisecond,
		MinAnswerLength: 5,
	})
	f.access = NewAccessService(AccessDependencies{
		Settings:   store,
		Appeals:    f.appeals,
		Dispatcher: f.dispatcher,
		Logger:     zap.NewNop(),
	})
	f.reviews = NewReviewService(ReviewDependencies{
		Client:        client,
		Inbox:         f.inbox,
		Settings:      store,
		Dispatcher:    f.dispatcher,
		Logger:        zap.NewNop(),
		ReasonTimeout: 50 * time.Millisecond,
	})

	return f
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// lastMessage returns the newest message in a resource.
func (f *fixture) lastMessage(t *testing.T, resourceID string) platform.Message {
	t.Helper()
	recent, err := f.client.RecentMessages(context.Background(), resourceID, 1)
	if err != nil || len(recent) == 0 {
		t.Fatalf("no messages in %s: %v", resourceID, err)
	}
	return recent[0]
}
