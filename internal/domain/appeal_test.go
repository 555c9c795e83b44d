package domain

import (
	"testing"

	util "github.com/spec-kit/ticket-bot/pkg/util"
)

func TestParseReviewFooter(t *testing.T) {
	tests := []struct {
		name    string
		footer  string
		want    string
		wantErr bool
	}{
		{"fresh record", ReviewFooter("123456"), "123456", false},
		{"surrounding text", "Appeal record User ID: 42 (pending)", "42", false},
		{"no marker", "just some footer", "", true},
		{"marker without digits", "User ID: abc", "", true},
		{"empty", "", "", true},
		{"resolved approved", ResolvedReviewFooter(ReviewApproved, "42"), "", true},
		{"resolved rejected", ResolvedReviewFooter(ReviewRejected, "42"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReviewFooter(tt.footer)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReviewFooter(%q) error = %v, wantErr %v", tt.footer, err, tt.wantErr)
			}
			if err != nil && !util.HasCode(err, "RECORD_MALFORMED") {
				t.Fatalf("expected RECORD_MALFORMED, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseReviewFooter(%q) = %q, want %q", tt.footer, got, tt.want)
			}
		})
	}
}

func TestResolvedFooterBlocksSecondAction(t *testing.T) {
	footer := ReviewFooter("99")
	id, err := ParseReviewFooter(footer)
	if err != nil || id != "99" {
		t.Fatalf("first parse failed: %q %v", id, err)
	}

	resolved := ResolvedReviewFooter(ReviewApproved, id)
	if _, err := ParseReviewFooter(resolved); !util.HasCode(err, "RECORD_MALFORMED") {
		t.Fatalf("resolved footer parsed again: %v", err)
	}
}
