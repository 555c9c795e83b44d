package domain

// Setting keys understood by the Config Accessor. They mirror the on-disk
// JSON blob field names.
const (
	SettingPanelChannel    = "panel_channel"
	SettingTicketCategory  = "ticket_category"
	SettingArchiveCategory = "archive_category"
	SettingStaffRole       = "staff_role"
	SettingEscalationRole  = "escalation_role"
	SettingAppealChannel   = "appeal_channel"
	SettingPrefix          = "prefix"
	SettingTicketCounter   = "ticket_counter"
	SettingBlacklist       = "blacklist"
)

// GuildConfig is the per-workspace settings blob.
type GuildConfig struct {
	PanelChannelID    string            `json:"panel_channel"`
	TicketCategoryID  string            `json:"ticket_category"`
	ArchiveCategoryID string            `json:"archive_category"`
	StaffRoleID       string            `json:"staff_role"`
	EscalationRoleID  string            `json:"escalation_role"`
	AppealChannelID   string            `json:"appeal_channel"`
	Prefix            string            `json:"prefix"`
	TicketCounter     int               `json:"ticket_counter"`
	Blacklist         map[string]string `json:"blacklist"`
}

// MissingSetup lists the setup keys that must be configured before any
// ticket can be created.
func (c GuildConfig) MissingSetup() []string {
	var missing []string
	if c.PanelChannelID == "" {
		missing = append(missing, SettingPanelChannel)
	}
	if c.TicketCategoryID == "" {
		missing = append(missing, SettingTicketCategory)
	}
	if c.ArchiveCategoryID == "" {
		missing = append(missing, SettingArchiveCategory)
	}
	if c.StaffRoleID == "" {
		missing = append(missing, SettingStaffRole)
	}
	return missing
}

// SetupComplete reports whether the workspace is fully configured.
func (c GuildConfig) SetupComplete() bool {
	return len(c.MissingSetup()) == 0
}

// BlacklistReason returns the stored reason for a blacklisted member.
func (c GuildConfig) BlacklistReason(memberID string) (string, bool) {
	if c.Blacklist == nil {
		return "", false
	}
	reason, ok := c.Blacklist[memberID]
	return reason, ok
}

// Member is an acting workspace member as reported by the chat platform.
type Member struct {
	ID          string
	Handle      string
	DisplayName string
	RoleIDs     []string
	Admin       bool
	Bot         bool
}

// HasRole reports whether the member carries the given role.
func (m Member) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Name returns the display name, falling back to the handle.
func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Handle
}
