package domain

import (
	"fmt"
	"strings"
)

// TicketState enumerates lifecycle states for tickets. The state is never
// stored directly: it is inferred from the claim marker and from which
// category the backing resource currently lives in.
type TicketState string

const (
	TicketStateOpen     TicketState = "OPEN"
	TicketStateClaimed  TicketState = "CLAIMED"
	TicketStateClosed   TicketState = "CLOSED"
	TicketStateArchived TicketState = "ARCHIVED"
)

// TicketType enumerates the fixed set of ticket kinds a member can open.
type TicketType string

const (
	TicketTypeStandard TicketType = "standard"
	TicketTypeTryout   TicketType = "tryout"
	TicketTypeReport   TicketType = "report"
)

// MaxOpenPerMember is the overall cap on open tickets per member, applied
// regardless of type as a fallback against abuse.
const MaxOpenPerMember = 10

var openLimits = map[TicketType]int{
	TicketTypeStandard: 3,
	TicketTypeTryout:   1,
	TicketTypeReport:   10,
}

// ParseTicketType validates a type tag.
func ParseTicketType(tag string) (TicketType, error) {
	t := TicketType(strings.ToLower(strings.TrimSpace(tag)))
	if _, ok := openLimits[t]; !ok {
		return "", fmt.Errorf("unknown ticket type %q", tag)
	}
	return t, nil
}

// OpenLimit returns the per-member open-ticket limit for the type.
func (t TicketType) OpenLimit() int {
	if limit, ok := openLimits[t]; ok {
		return limit
	}
	return 0
}

// Ticket is the aggregate for one active support request.
type Ticket struct {
	Number      int
	OwnerID     string
	Type        TicketType
	ClaimHolder string
	State       TicketState
}

// Topic marker prefixes. The resource topic is the only place ticket
// metadata is persisted; markers are whitespace-delimited and order on read
// is not guaranteed.
const (
	ownerMarkerPrefix = "ticket-user-"
	typeMarkerPrefix  = "type-"
	claimMarkerPrefix = "claimed-by-"
)

// TicketMeta is the metadata encoded into a resource topic.
type TicketMeta struct {
	OwnerID     string
	Type        TicketType
	ClaimHolder string
}

// Encode serializes the metadata into a topic string. The owner and type
// markers always come first so a prefix split recovers them.
func (m TicketMeta) Encode() string {
	var b strings.Builder
	b.WriteString(ownerMarkerPrefix)
	b.WriteString(m.OwnerID)
	if m.Type != "" {
		b.WriteString(" ")
		b.WriteString(typeMarkerPrefix)
		b.WriteString(string(m.Type))
	}
	if m.ClaimHolder != "" {
		b.WriteString(" ")
		b.WriteString(claimMarkerPrefix)
		b.WriteString(m.ClaimHolder)
	}
	return b.String()
}

// ParseTicketMeta reads markers out of a topic string. Unknown tokens are
// ignored; marker order is not assumed.
func ParseTicketMeta(topic string) TicketMeta {
	var meta TicketMeta
	for _, token := range strings.Fields(topic) {
		switch {
		case strings.HasPrefix(token, ownerMarkerPrefix):
			meta.OwnerID = strings.TrimPrefix(token, ownerMarkerPrefix)
		case strings.HasPrefix(token, typeMarkerPrefix):
			meta.Type = TicketType(strings.TrimPrefix(token, typeMarkerPrefix))
		case strings.HasPrefix(token, claimMarkerPrefix):
			meta.ClaimHolder = strings.TrimPrefix(token, claimMarkerPrefix)
		}
	}
	return meta
}

// Valid reports whether the owner and type markers are both present.
func (m TicketMeta) Valid() bool {
	return m.OwnerID != "" && m.Type != ""
}

// Claimed reports whether a claim marker is present.
func (m TicketMeta) Claimed() bool {
	return m.ClaimHolder != ""
}

// Base returns the metadata without its claim marker, reconstructing the
// owner marker from the resource id when the topic was ever malformed.
func (m TicketMeta) Base(resourceID string) TicketMeta {
	base := TicketMeta{OwnerID: m.OwnerID, Type: m.Type}
	if base.OwnerID == "" {
		base.OwnerID = resourceID
	}
	return base
}

// maxResourceNameLen is the platform limit on resource names.
const maxResourceNameLen = 100

// TicketResourceName builds the sanitized channel name for a new ticket.
func TicketResourceName(t TicketType, number int, handle string) string {
	name := fmt.Sprintf("%s-%d-%s", t, number, SanitizeHandle(handle))
	return truncate(name, maxResourceNameLen)
}

// ArchivedResourceName relabels a closed ticket, keeping the resource id in
// the name so archived tickets stay unique.
func ArchivedResourceName(name, resourceID string) string {
	return truncate(fmt.Sprintf("closed-%s-%s", truncate(name, 80), resourceID), maxResourceNameLen)
}

// SanitizeHandle lowercases a member handle and drops everything except
// letters, digits, '-' and '_'. An empty result falls back to "user".
func SanitizeHandle(handle string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(handle) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
