package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

func TestPublishPanel(t *testing.T) {
	f := newFixture(t)
	panels := NewPanelService(f.client, f.store, zap.NewNop())
	ctx := context.Background()

	if _, err := panels.PublishPanel(ctx, testWorkspace, staff); !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("non-admin publish: %v", err)
	}

	msg, err := panels.PublishPanel(ctx, testWorkspace, admin)
	if err != nil {
		t.Fatalf("PublishPanel: %v", err)
	}
	if msg.ResourceID != f.panelChan {
		t.Fatalf("panel posted to %q, want %q", msg.ResourceID, f.panelChan)
	}
	if len(msg.ControlIDs) != 3 {
		t.Fatalf("panel controls = %v", msg.ControlIDs)
	}
}

func TestPublishPanelRequiresSetup(t *testing.T) {
	f := newFixture(t)
	panels := NewPanelService(f.client, f.store, zap.NewNop())
	if err := f.store.UpdateGuildConfig(testWorkspace, domain.SettingTicketCategory, ""); err != nil {
		t.Fatal(err)
	}

	_, err := panels.PublishPanel(context.Background(), testWorkspace, admin)
	if !util.HasCode(err, "NOT_CONFIGURED") {
		t.Fatalf("expected NOT_CONFIGURED, got %v", err)
	}
}
