package service

import (
	"context"
	"testing"

	"github.com/spec-kit/ticket-bot/internal/controls"
	"github.com/spec-kit/ticket-bot/internal/domain"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

func TestCheckCreateAllowed(t *testing.T) {
	f := newFixture(t)
	if err := f.access.CheckCreate(context.Background(), testWorkspace, owner); err != nil {
		t.Fatalf("CheckCreate: %v", err)
	}
}

func TestCheckCreateNotConfigured(t *testing.T) {
	f := newFixture(t)
	if err := f.store.UpdateGuildConfig(testWorkspace, domain.SettingStaffRole, ""); err != nil {
		t.Fatal(err)
	}
	err := f.access.CheckCreate(context.Background(), testWorkspace, owner)
	if !util.HasCode(err, "NOT_CONFIGURED") {
		t.Fatalf("expected NOT_CONFIGURED, got %v", err)
	}
}

func TestCheckCreateBlacklistedOffersAppeal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetBlacklist(testWorkspace, owner.ID, "spam")

	err := f.access.CheckCreate(ctx, testWorkspace, owner)
	if !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}

	// The offer is posted asynchronously into the member's direct channel.
	direct, err := f.client.OpenDirectResource(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "appeal offer", func() bool {
		recent, err := f.client.RecentMessages(ctx, direct.ID, 1)
		return err == nil && len(recent) == 1
	})
	offer := f.lastMessage(t, direct.ID)
	if len(offer.ControlIDs) != 1 || offer.ControlIDs[0] != controls.AppealStart {
		t.Fatalf("offer controls = %v", offer.ControlIDs)
	}
}

func TestBlacklistMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    domain.Member
		target   domain.Member
		wantCode string
	}{
		{"non-admin rejected", staff, owner, "PERMISSION_DENIED"},
		{"self rejected", admin, admin, "VALIDATION_FAILED"},
		{"bot rejected", admin, domain.Member{ID: "55", Bot: true}, "VALIDATION_FAILED"},
		{"first entry ok", admin, owner, ""},
		{"duplicate rejected", admin, owner, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.access.BlacklistMember(ctx, testWorkspace, tt.actor, tt.target, "spam")
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !util.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	if _, listed := f.store.GetGuildConfig(testWorkspace).BlacklistReason(owner.ID); !listed {
		t.Fatal("entry not stored")
	}
}

func TestUnblacklistMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetBlacklist(testWorkspace, owner.ID, "spam")

	if err := f.access.UnblacklistMember(ctx, testWorkspace, staff, owner.ID); !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("non-admin unblacklist: %v", err)
	}
	if err := f.access.UnblacklistMember(ctx, testWorkspace, admin, owner.ID); err != nil {
		t.Fatalf("unblacklist: %v", err)
	}
	if err := f.access.UnblacklistMember(ctx, testWorkspace, admin, owner.ID); !util.HasCode(err, "CONFLICT") {
		t.Fatalf("second unblacklist: %v", err)
	}
}
