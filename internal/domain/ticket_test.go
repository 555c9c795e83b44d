package domain

import (
	"strings"
	"testing"
)

func TestTicketMetaRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		meta TicketMeta
	}{
		{"open", TicketMeta{OwnerID: "42", Type: TicketTypeStandard}},
		{"claimed", TicketMeta{OwnerID: "42", Type: TicketTypeTryout, ClaimHolder: "7"}},
		{"report", TicketMeta{OwnerID: "999", Type: TicketTypeReport}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTicketMeta(tt.meta.Encode())
			if got != tt.meta {
				t.Fatalf("round trip mismatch: got %+v want %+v", got, tt.meta)
			}
		})
	}
}

func TestParseTicketMeta(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		want  TicketMeta
	}{
		{"empty", "", TicketMeta{}},
		{"owner only", "ticket-user-42", TicketMeta{OwnerID: "42"}},
		{"reordered markers", "claimed-by-7 type-standard ticket-user-42", TicketMeta{OwnerID: "42", Type: TicketTypeStandard, ClaimHolder: "7"}},
		{"unknown tokens ignored", "hello ticket-user-42 world type-report", TicketMeta{OwnerID: "42", Type: TicketTypeReport}},
		{"free text", "just a human topic", TicketMeta{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTicketMeta(tt.topic); got != tt.want {
				t.Fatalf("ParseTicketMeta(%q) = %+v, want %+v", tt.topic, got, tt.want)
			}
		})
	}
}

func TestTicketMetaBase(t *testing.T) {
	claimed := TicketMeta{OwnerID: "42", Type: TicketTypeStandard, ClaimHolder: "7"}
	base := claimed.Base("500")
	if base.ClaimHolder != "" {
		t.Fatalf("claim marker survived Base: %+v", base)
	}
	if base.OwnerID != "42" {
		t.Fatalf("owner changed: %+v", base)
	}

	missing := TicketMeta{Type: TicketTypeStandard}
	if got := missing.Base("500").OwnerID; got != "500" {
		t.Fatalf("expected resource id fallback, got %q", got)
	}
}

func TestParseTicketType(t *testing.T) {
	tests := []struct {
		tag     string
		want    TicketType
		wantErr bool
	}{
		{"standard", TicketTypeStandard, false},
		{"Tryout", TicketTypeTryout, false},
		{"  report ", TicketTypeReport, false},
		{"vip", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTicketType(tt.tag)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseTicketType(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseTicketType(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestOpenLimits(t *testing.T) {
	tests := []struct {
		ticketType TicketType
		want       int
	}{
		{TicketTypeStandard, 3},
		{TicketTypeTryout, 1},
		{TicketTypeReport, 10},
		{TicketType("vip"), 0},
	}
	for _, tt := range tests {
		if got := tt.ticketType.OpenLimit(); got != tt.want {
			t.Fatalf("OpenLimit(%q) = %d, want %d", tt.ticketType, got, tt.want)
		}
	}
}

func TestSanitizeHandle(t *testing.T) {
	tests := []struct {
		handle string
		want   string
	}{
		{"Alice", "alice"},
		{"sn_ake-99", "sn_ake-99"},
		{"sp ace!?", "space"},
		{"日本語", "user"},
		{"", "user"},
	}
	for _, tt := range tests {
		if got := SanitizeHandle(tt.handle); got != tt.want {
			t.Fatalf("SanitizeHandle(%q) = %q, want %q", tt.handle, got, tt.want)
		}
	}
}

func TestTicketResourceName(t *testing.T) {
	got := TicketResourceName(TicketTypeStandard, 12, "Alice")
	if got != "standard-12-alice" {
		t.Fatalf("unexpected name %q", got)
	}

	long := TicketResourceName(TicketTypeReport, 1, strings.Repeat("a", 200))
	if len(long) != 100 {
		t.Fatalf("name not capped at 100: %d", len(long))
	}
}

func TestArchivedResourceName(t *testing.T) {
	got := ArchivedResourceName("standard-12-alice", "555")
	if got != "closed-standard-12-alice-555" {
		t.Fatalf("unexpected archived name %q", got)
	}

	long := ArchivedResourceName(strings.Repeat("x", 150), "555")
	if len(long) > 100 {
		t.Fatalf("archived name not capped at 100: %d", len(long))
	}
	if !strings.HasPrefix(long, "closed-") {
		t.Fatalf("archived name missing prefix: %q", long)
	}
}
