// Package service implements the ticket lifecycle controller, the blacklist
// and review gates, the appeal conversation engine, and the panel.
package service

import (
	"github.com/spec-kit/ticket-bot/internal/domain"
)

// staffOrAdmin reports whether the member may act as staff in a workspace.
func staffOrAdmin(member domain.Member, cfg domain.GuildConfig) bool {
	return member.Admin || member.HasRole(cfg.StaffRoleID)
}

func mention(memberID string) string {
	return "<@" + memberID + ">"
}

func roleMention(roleID string) string {
	return "<@&" + roleID + ">"
}
