// Package settings implements the per-workspace Config Accessor backed by a
// single JSON file.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// Store holds every workspace's settings blob. All read-modify-write cycles
// are serialized through the store mutex so ticket numbers stay unique and
// blacklist updates cannot lose writes.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	data   map[string]*domain.GuildConfig
}

// Open loads the settings file. A missing or empty file is a valid empty
// store; corrupt JSON is an error rather than a silent reset.
func Open(path string, logger *zap.Logger) (*Store, error) {
	store := &Store{
		path:   path,
		logger: logger,
		data:   make(map[string]*domain.GuildConfig),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if len(raw) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(raw, &store.data); err != nil {
		return nil, fmt.Errorf("settings file %s is corrupt: %w", path, err)
	}
	return store, nil
}

func defaultConfig() *domain.GuildConfig {
	return &domain.GuildConfig{
		Prefix:        "!",
		TicketCounter: 1,
		Blacklist:     make(map[string]string),
	}
}

// GetGuildConfig returns the settings for a workspace, creating the entry
// with defaults when absent. The returned value is a copy.
func (s *Store) GetGuildConfig(workspaceID string) domain.GuildConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configLocked(workspaceID)
}

func (s *Store) configLocked(workspaceID string) domain.GuildConfig {
	cfg, ok := s.data[workspaceID]
	if !ok {
		cfg = defaultConfig()
		s.data[workspaceID] = cfg
		s.saveLocked()
	}
	if cfg.Blacklist == nil {
		cfg.Blacklist = make(map[string]string)
	}
	copied := *cfg
	copied.Blacklist = make(map[string]string, len(cfg.Blacklist))
	for k, v := range cfg.Blacklist {
		copied.Blacklist[k] = v
	}
	return copied
}

// UpdateGuildConfig sets one settings key for a workspace.
func (s *Store) UpdateGuildConfig(workspaceID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.data[workspaceID]
	if !ok {
		cfg = defaultConfig()
		s.data[workspaceID] = cfg
	}

	switch key {
	case domain.SettingPanelChannel, domain.SettingTicketCategory,
		domain.SettingArchiveCategory, domain.SettingStaffRole,
		domain.SettingEscalationRole, domain.SettingAppealChannel,
		domain.SettingPrefix:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("setting %s requires a string value", key)
		}
		switch key {
		case domain.SettingPanelChannel:
			cfg.PanelChannelID = str
		case domain.SettingTicketCategory:
			cfg.TicketCategoryID = str
		case domain.SettingArchiveCategory:
			cfg.ArchiveCategoryID = str
		case domain.SettingStaffRole:
			cfg.StaffRoleID = str
		case domain.SettingEscalationRole:
			cfg.EscalationRoleID = str
		case domain.SettingAppealChannel:
			cfg.AppealChannelID = str
		case domain.SettingPrefix:
			cfg.Prefix = str
		}
	case domain.SettingTicketCounter:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("setting %s requires an int value", key)
		}
		cfg.TicketCounter = n
	case domain.SettingBlacklist:
		m, ok := value.(map[string]string)
		if !ok {
			return fmt.Errorf("setting %s requires a map value", key)
		}
		cfg.Blacklist = m
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	s.saveLocked()
	return nil
}

// NextTicketNumber allocates the next counter value for a workspace.
func (s *Store) NextTicketNumber(workspaceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.data[workspaceID]
	if !ok {
		cfg = defaultConfig()
		s.data[workspaceID] = cfg
	}
	if cfg.TicketCounter < 1 {
		cfg.TicketCounter = 1
	}
	number := cfg.TicketCounter
	cfg.TicketCounter++
	s.saveLocked()
	return number
}

// SetBlacklist records a blacklist entry for a member.
func (s *Store) SetBlacklist(workspaceID, memberID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.data[workspaceID]
	if !ok {
		cfg = defaultConfig()
		s.data[workspaceID] = cfg
	}
	if cfg.Blacklist == nil {
		cfg.Blacklist = make(map[string]string)
	}
	cfg.Blacklist[memberID] = reason
	s.saveLocked()
}

// RemoveBlacklist clears a member's blacklist entry, reporting whether one
// existed.
func (s *Store) RemoveBlacklist(workspaceID, memberID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.data[workspaceID]
	if !ok || cfg.Blacklist == nil {
		return false
	}
	if _, present := cfg.Blacklist[memberID]; !present {
		return false
	}
	delete(cfg.Blacklist, memberID)
	s.saveLocked()
	return true
}

func (s *Store) saveLocked() {
	raw, err := json.MarshalIndent(s.data, "", "    ")
	if err != nil {
		s.logger.Error("marshal settings", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.logger.Error("write settings", zap.String("path", s.path), zap.Error(err))
	}
}
