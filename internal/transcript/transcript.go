// Package transcript serializes a ticket resource's message history into a
// size-bounded plain-text artifact.
package transcript

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/ticket-bot/internal/platform"
)

// DefaultMaxBytes keeps the artifact just under the platform upload ceiling.
const DefaultMaxBytes = 7_500_000

// TruncationMarker terminates a transcript that exceeded the byte budget.
const TruncationMarker = "--- TRANSCRIPT TRUNCATED ---"

const emptyPlaceholder = "No messages were sent in this ticket."

const timestampLayout = "2006-01-02 15:04:05 UTC"

var (
	memberMentionPattern  = regexp.MustCompile(`<@[!&]?(\d+)>`)
	channelMentionPattern = regexp.MustCompile(`<#(\d+)>`)
)

// Generator walks resource histories through the platform client.
type Generator struct {
	client   platform.Client
	maxBytes int
}

// NewGenerator builds a generator. A non-positive maxBytes selects the
// default budget.
func NewGenerator(client platform.Client, maxBytes int) *Generator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Generator{client: client, maxBytes: maxBytes}
}

// Generate renders the resource's full history oldest-first, one event per
// line. Automated messages are skipped; attachment references get their own
// line. The result never exceeds the byte budget and is always valid UTF-8.
func (g *Generator) Generate(ctx context.Context, resourceID string) ([]byte, error) {
	history, err := g.client.Messages(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, msg := range history {
		timestamp := msg.Timestamp.UTC().Format(timestampLayout)
		if !msg.AuthorBot {
			lines = append(lines, "["+timestamp+"] "+msg.AuthorName+" ("+msg.AuthorID+"): "+sanitize(msg.Content))
		}
		for _, att := range msg.Attachments {
			lines = append(lines, "["+timestamp+"] [Attachment from "+msg.AuthorName+": "+att.URL+"]")
		}
	}

	content := strings.Join(lines, "\n")
	if content == "" {
		content = emptyPlaceholder
	}
	return g.bound([]byte(content)), nil
}

// bound hard-truncates at a byte boundary, drops any incomplete trailing
// rune, and appends the truncation marker.
func (g *Generator) bound(content []byte) []byte {
	if len(content) <= g.maxBytes {
		return content
	}
	cut := g.maxBytes - len(TruncationMarker) - 1
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	truncated := append([]byte(nil), content[:cut]...)
	truncated = append(truncated, '\n')
	truncated = append(truncated, TruncationMarker...)
	return truncated
}

// sanitize strips mention syntax and structural markup so the transcript
// cannot re-trigger notifications or corrupt its own line format.
func sanitize(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "`", "'")
	content = memberMentionPattern.ReplaceAllString(content, "@$1")
	content = channelMentionPattern.ReplaceAllString(content, "#$1")
	content = strings.ReplaceAll(content, "@everyone", "@ everyone")
	content = strings.ReplaceAll(content, "@here", "@ here")
	return content
}
