package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
	util "github.com/spec-kit/ticket-bot/pkg/util"
)

func TestCreateTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resource, roleID, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if roleID != staffRole {
		t.Fatalf("staff role = %q, want %q", roleID, staffRole)
	}
	if resource.Name != "standard-1-alice" {
		t.Fatalf("resource name = %q", resource.Name)
	}
	if resource.ParentID != f.ticketCat {
		t.Fatalf("resource parent = %q, want ticket category", resource.ParentID)
	}

	meta := domain.ParseTicketMeta(resource.Topic)
	if meta.OwnerID != owner.ID || meta.Type != domain.TicketTypeStandard || meta.Claimed() {
		t.Fatalf("bad metadata %+v", meta)
	}

	var everyoneDenied bool
	for _, rule := range f.client.AccessRules(resource.ID) {
		if rule.Kind == platform.AccessEveryone && !rule.Read && !rule.Write {
			everyoneDenied = true
		}
	}
	if !everyoneDenied {
		t.Fatal("ticket is not private to the workspace")
	}

	welcome := f.lastMessage(t, resource.ID)
	if len(welcome.ControlIDs) != 2 {
		t.Fatalf("welcome message carries %d controls, want 2", len(welcome.ControlIDs))
	}
}

func TestCreateTicketTypedLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard); err != nil {
			t.Fatalf("create %d: %v", i+1, err)
		}
	}
	_, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if !util.HasCode(err, "LIMIT_REACHED") {
		t.Fatalf("expected LIMIT_REACHED, got %v", err)
	}

	// A different type still has room, and another member is unaffected.
	if _, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeTryout); err != nil {
		t.Fatalf("tryout after standard limit: %v", err)
	}
	if _, _, err := f.tickets.CreateTicket(ctx, testWorkspace, stranger, domain.TicketTypeStandard); err != nil {
		t.Fatalf("other member blocked: %v", err)
	}
}

func TestCreateTicketTryoutLimitIsOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeTryout); err != nil {
		t.Fatalf("first tryout: %v", err)
	}
	_, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeTryout)
	if !util.HasCode(err, "LIMIT_REACHED") {
		t.Fatalf("expected LIMIT_REACHED, got %v", err)
	}
}

func TestCreateTicketMissingStaffRole(t *testing.T) {
	f := newFixture(t)
	if err := f.store.UpdateGuildConfig(testWorkspace, domain.SettingStaffRole, "404"); err != nil {
		t.Fatal(err)
	}
	_, _, err := f.tickets.CreateTicket(context.Background(), testWorkspace, owner, domain.TicketTypeStandard)
	if !util.HasCode(err, "CONFIG_INVALID") {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestClaimIsExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.tickets.Claim(ctx, testWorkspace, resource.ID, staff); err != nil {
		t.Fatalf("claim: %v", err)
	}
	err = f.tickets.Claim(ctx, testWorkspace, resource.ID, coworker)
	if !util.HasCode(err, "CONFLICT") {
		t.Fatalf("expected CONFLICT for second claim, got %v", err)
	}

	updated, err := f.client.Resource(ctx, resource.ID)
	if err != nil {
		t.Fatal(err)
	}
	if meta := domain.ParseTicketMeta(updated.Topic); meta.ClaimHolder != staff.ID {
		t.Fatalf("claim holder = %q, want %q", meta.ClaimHolder, staff.ID)
	}
}

func TestClaimRequiresStaff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.tickets.Claim(ctx, testWorkspace, resource.ID, stranger); !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}
}

func TestUnclaimPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.tickets.Unclaim(ctx, testWorkspace, resource.ID, staff); !util.HasCode(err, "CONFLICT") {
		t.Fatalf("unclaim of unclaimed ticket: %v", err)
	}

	if err := f.tickets.Claim(ctx, testWorkspace, resource.ID, staff); err != nil {
		t.Fatal(err)
	}
	if err := f.tickets.Unclaim(ctx, testWorkspace, resource.ID, coworker); !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("other staff could unclaim: %v", err)
	}
	if err := f.tickets.Unclaim(ctx, testWorkspace, resource.ID, admin); err != nil {
		t.Fatalf("admin unclaim: %v", err)
	}

	// The holder can release their own claim.
	if err := f.tickets.Claim(ctx, testWorkspace, resource.ID, staff); err != nil {
		t.Fatal(err)
	}
	if err := f.tickets.Unclaim(ctx, testWorkspace, resource.ID, staff); err != nil {
		t.Fatalf("holder unclaim: %v", err)
	}
}

func TestCloseArchivesTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}
	f.client.Receive(resource.ID, owner, "my issue")

	if err := f.tickets.Close(ctx, testWorkspace, resource.ID, owner, "solved"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	archived, err := f.client.Resource(ctx, resource.ID)
	if err != nil {
		t.Fatal(err)
	}
	if archived.ParentID != f.archiveCat {
		t.Fatalf("ticket not moved to archive: parent %q", archived.ParentID)
	}
	if !strings.HasPrefix(archived.Name, "closed-standard-1-alice") {
		t.Fatalf("archived name %q", archived.Name)
	}

	var staffWritable, everyoneReadable bool
	for _, rule := range f.client.AccessRules(resource.ID) {
		if rule.Kind == platform.AccessRole && rule.TargetID == staffRole {
			staffWritable = rule.Write
		}
		if rule.Kind == platform.AccessEveryone {
			everyoneReadable = rule.Read
		}
	}
	if staffWritable || everyoneReadable {
		t.Fatal("archived ticket access not narrowed")
	}

	if f.lastMessage(t, resource.ID).Content != "Archived." {
		t.Fatalf("missing archival notice")
	}

	var sawTranscript bool
	history, _ := f.client.Messages(ctx, resource.ID)
	for _, msg := range history {
		for _, att := range msg.Attachments {
			if strings.HasSuffix(att.FileName, "-transcript.txt") {
				sawTranscript = true
			}
		}
	}
	if !sawTranscript {
		t.Fatal("closure record has no transcript attachment")
	}
}

func TestClosePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.tickets.Close(ctx, testWorkspace, resource.ID, stranger, ""); !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("stranger close: %v", err)
	}
	if err := f.tickets.Close(ctx, testWorkspace, resource.ID, staff, ""); err != nil {
		t.Fatalf("staff close: %v", err)
	}
}

func TestCloseWithoutArchiveCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.store.UpdateGuildConfig(testWorkspace, domain.SettingArchiveCategory, ""); err != nil {
		t.Fatal(err)
	}
	if err := f.tickets.Close(ctx, testWorkspace, resource.ID, owner, ""); !util.HasCode(err, "CONFIG_INVALID") {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestDeleteRemovesTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resource, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.tickets.Delete(ctx, testWorkspace, resource.ID, stranger); !util.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("stranger delete: %v", err)
	}
	if err := f.tickets.Delete(ctx, testWorkspace, resource.ID, staff); err != nil {
		t.Fatalf("staff delete: %v", err)
	}
	if _, err := f.client.Resource(ctx, resource.ID); err == nil {
		t.Fatal("resource survived deletion")
	}

	// Deleting an already-gone ticket is success.
	if err := f.tickets.Delete(ctx, testWorkspace, resource.ID, staff); err != nil {
		t.Fatalf("delete of missing ticket: %v", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, err := f.tickets.CreateTicket(ctx, testWorkspace, owner, domain.TicketTypeStandard); err != nil {
			t.Fatal(err)
		}
	}
	total, open, err := f.tickets.Stats(ctx, testWorkspace)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 2 || open != 2 {
		t.Fatalf("stats = %d/%d, want 2/2", total, open)
	}
}
