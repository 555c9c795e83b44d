package transcript

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/platform/memory"
)

func TestGenerateEmptyHistory(t *testing.T) {
	client := memory.New()
	resourceID := client.AddCategory("ws1", "ticket")

	got, err := NewGenerator(client, 0).Generate(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(got) != "No messages were sent in this ticket." {
		t.Fatalf("unexpected placeholder: %q", got)
	}
}

func TestGenerateLineFormat(t *testing.T) {
	client := memory.New()
	resourceID := client.AddCategory("ws1", "ticket")
	alice := domain.Member{ID: "42", Handle: "alice", DisplayName: "Alice"}

	client.Receive(resourceID, alice, "hello\nworld `code` <@99> <#55> @everyone")

	got, err := NewGenerator(client, 0).Generate(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	line := string(got)

	if !strings.Contains(line, "Alice (42): ") {
		t.Fatalf("author segment missing: %q", line)
	}
	if !strings.Contains(line, "hello world 'code' @99 #55 @ everyone") {
		t.Fatalf("content not sanitized: %q", line)
	}
	if !strings.HasPrefix(line, "[") || !strings.Contains(line, " UTC] ") {
		t.Fatalf("timestamp segment malformed: %q", line)
	}
}

func TestGenerateSkipsBotContentKeepsAttachments(t *testing.T) {
	client := memory.New()
	resourceID := client.AddCategory("ws1", "ticket")
	alice := domain.Member{ID: "42", Handle: "alice"}

	if _, err := client.Send(context.Background(), resourceID, platform.Post{Content: "automated notice"}); err != nil {
		t.Fatal(err)
	}
	client.Receive(resourceID, alice, "", platform.Attachment{FileName: "shot.png", URL: "https://cdn.example/shot.png"})

	got, err := NewGenerator(client, 0).Generate(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	text := string(got)

	if strings.Contains(text, "automated notice") {
		t.Fatalf("bot content leaked into transcript: %q", text)
	}
	if !strings.Contains(text, "[Attachment from alice: https://cdn.example/shot.png]") {
		t.Fatalf("attachment line missing: %q", text)
	}
}

func TestGenerateTruncates(t *testing.T) {
	client := memory.New()
	resourceID := client.AddCategory("ws1", "ticket")
	alice := domain.Member{ID: "42", Handle: "alice"}

	for i := 0; i < 20; i++ {
		client.Receive(resourceID, alice, strings.Repeat("x", 100))
	}

	const maxBytes = 500
	got, err := NewGenerator(client, maxBytes).Generate(context.Background(), resourceID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) > maxBytes {
		t.Fatalf("transcript exceeds budget: %d > %d", len(got), maxBytes)
	}
	if !strings.HasSuffix(string(got), TruncationMarker) {
		t.Fatalf("truncation marker missing: %q", got[len(got)-50:])
	}
}

func TestGenerateTruncationKeepsValidUTF8(t *testing.T) {
	client := memory.New()
	resourceID := client.AddCategory("ws1", "ticket")
	alice := domain.Member{ID: "42", Handle: "alice"}

	for i := 0; i < 50; i++ {
		client.Receive(resourceID, alice, strings.Repeat("héllö wörld ", 10))
	}

	for _, maxBytes := range []int{200, 201, 202, 203} {
		got, err := NewGenerator(client, maxBytes).Generate(context.Background(), resourceID)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !utf8.Valid(got) {
			t.Fatalf("maxBytes=%d produced invalid UTF-8", maxBytes)
		}
		if len(got) > maxBytes {
			t.Fatalf("maxBytes=%d exceeded: %d", maxBytes, len(got))
		}
	}
}

func TestGenerateUnknownResource(t *testing.T) {
	client := memory.New()
	if _, err := NewGenerator(client, 0).Generate(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown resource")
	}
}
