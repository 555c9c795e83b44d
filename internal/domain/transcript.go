package domain

import "time"

// TranscriptRecord is one archived ticket transcript.
type TranscriptRecord struct {
	ID          string
	WorkspaceID string
	TicketName  string
	OwnerID     string
	ClosedByID  string
	Reason      string
	Content     []byte
	CreatedAt   time.Time
}
