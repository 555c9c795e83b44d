package events

import (
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketClaimed       EventType = "ticket_claimed"
	EventTicketUnclaimed     EventType = "ticket_unclaimed"
	EventTicketClosed        EventType = "ticket_closed"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventAppealStarted       EventType = "appeal_started"
	EventAppealSubmitted     EventType = "appeal_submitted"
	EventAppealDecided       EventType = "appeal_decided"
	EventMemberBlacklisted   EventType = "member_blacklisted"
	EventMemberUnblacklisted EventType = "member_unblacklisted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	WorkspaceID string      `json:"workspace_id"`
	ResourceID  string      `json:"resource_id,omitempty"`
	ActorID     string      `json:"actor_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number  int               `json:"number"`
	Type    domain.TicketType `json:"type"`
	OwnerID string            `json:"owner_id"`
}

// TicketClaimPayload covers claim and unclaim.
type TicketClaimPayload struct {
	ClaimHolder string `json:"claim_holder,omitempty"`
}

// TicketClosedPayload carries everything the archiver needs.
type TicketClosedPayload struct {
	TicketName string `json:"ticket_name"`
	OwnerID    string `json:"owner_id"`
	Reason     string `json:"reason"`
	Transcript []byte `json:"-"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketName string `json:"ticket_name"`
}

// AppealPayload covers appeal start and submission.
type AppealPayload struct {
	SubjectID string `json:"subject_id"`
	RecordID  string `json:"record_id,omitempty"`
}

// AppealDecidedPayload payload.
type AppealDecidedPayload struct {
	SubjectID string               `json:"subject_id"`
	Outcome   domain.ReviewOutcome `json:"outcome"`
	Reason    string               `json:"reason"`
}

// BlacklistPayload covers blacklist add/remove.
type BlacklistPayload struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason,omitempty"`
}
