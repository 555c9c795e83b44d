// Package dto defines the ops API wire payloads.
package dto

import "time"

// OperatorLoginRequest payload for operator login.
type OperatorLoginRequest struct {
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WorkspaceConfigResponse mirrors the per-workspace settings blob.
type WorkspaceConfigResponse struct {
	PanelChannelID    string `json:"panel_channel"`
	TicketCategoryID  string `json:"ticket_category"`
	ArchiveCategoryID string `json:"archive_category"`
	StaffRoleID       string `json:"staff_role"`
	EscalationRoleID  string `json:"escalation_role"`
	AppealChannelID   string `json:"appeal_channel"`
	Prefix            string `json:"prefix"`
	TicketCounter     int    `json:"ticket_counter"`
	SetupComplete     bool   `json:"setup_complete"`
}

// WorkspaceConfigPatchRequest carries the settings keys to update. Nil
// fields are left untouched.
type WorkspaceConfigPatchRequest struct {
	PanelChannelID    *string `json:"panel_channel"`
	TicketCategoryID  *string `json:"ticket_category"`
	ArchiveCategoryID *string `json:"archive_category"`
	StaffRoleID       *string `json:"staff_role"`
	EscalationRoleID  *string `json:"escalation_role"`
	AppealChannelID   *string `json:"appeal_channel"`
	Prefix            *string `json:"prefix"`
}

// BlacklistEntry is one blacklisted member.
type BlacklistEntry struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

// BlacklistAddRequest payload for adding an entry.
type BlacklistAddRequest struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

// TranscriptSummary is one archived transcript without its content.
type TranscriptSummary struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	TicketName  string    `json:"ticket_name"`
	OwnerID     string    `json:"owner_id"`
	ClosedByID  string    `json:"closed_by_id"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkspaceStatsResponse reports ticket counters and event totals.
type WorkspaceStatsResponse struct {
	TotalTickets int              `json:"total_tickets"`
	OpenTickets  int              `json:"open_tickets"`
	Events       map[string]int64 `json:"events"`
}
