// Package platform defines the chat-platform surface the bot runs against.
// The connection/session layer itself lives outside this repository; the bot
// core only consumes these interfaces.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// Sentinel errors drivers translate platform failures into.
var (
	ErrNotFound  = errors.New("platform: not found")
	ErrForbidden = errors.New("platform: forbidden")
)

// Resource is a conversation channel hosting one ticket or one appeal
// interaction. ParentID is the grouping category the resource lives in.
type Resource struct {
	ID          string
	WorkspaceID string
	ParentID    string
	Name        string
	Topic       string
}

// Attachment is a file reference carried on a message.
type Attachment struct {
	FileName    string
	URL         string
	ContentType string
}

// Message is one event in a resource's history.
type Message struct {
	ID          string
	ResourceID  string
	AuthorID    string
	AuthorName  string
	AuthorBot   bool
	Content     string
	Footer      string
	Timestamp   time.Time
	Attachments []Attachment
	ControlIDs  []string
}

// FileUpload attaches a generated file to an outgoing post.
type FileUpload struct {
	Name    string
	Content []byte
}

// Post is an outgoing message. ControlIDs attach interactive controls that
// route back through the control router.
type Post struct {
	Content    string
	Footer     string
	File       *FileUpload
	ControlIDs []string
}

// MessageEdit mutates an existing message. Nil fields are left unchanged; a
// non-nil empty ControlIDs removes all controls.
type MessageEdit struct {
	Content    *string
	Footer     *string
	ControlIDs *[]string
}

// AccessKind distinguishes access-rule targets.
type AccessKind string

const (
	AccessMember   AccessKind = "member"
	AccessRole     AccessKind = "role"
	AccessEveryone AccessKind = "everyone"
)

// Access grants or revokes visibility and write access on a resource for
// one target.
type Access struct {
	Kind     AccessKind
	TargetID string
	Read     bool
	Write    bool
}

// ResourcePatch mutates a resource. Nil fields are left unchanged; a non-nil
// Access replaces the full rule set.
type ResourcePatch struct {
	Name     *string
	Topic    *string
	ParentID *string
	Access   []Access
}

// Client is the platform driver surface consumed by the bot core.
type Client interface {
	CreateResource(ctx context.Context, workspaceID, parentID, name, topic string, access []Access) (*Resource, error)
	Resource(ctx context.Context, resourceID string) (*Resource, error)
	UpdateResource(ctx context.Context, resourceID string, patch ResourcePatch) error
	DeleteResource(ctx context.Context, resourceID string) error
	ListResources(ctx context.Context, workspaceID, parentID string) ([]Resource, error)

	// Messages returns the full history oldest-first.
	Messages(ctx context.Context, resourceID string) ([]Message, error)
	// RecentMessages returns up to limit messages newest-first.
	RecentMessages(ctx context.Context, resourceID string, limit int) ([]Message, error)
	Send(ctx context.Context, resourceID string, post Post) (*Message, error)
	EditMessage(ctx context.Context, resourceID, messageID string, edit MessageEdit) error
	DeleteMessage(ctx context.Context, resourceID, messageID string) error

	// SetAccess upserts one access rule; ClearAccess removes it entirely.
	SetAccess(ctx context.Context, resourceID string, access Access) error
	ClearAccess(ctx context.Context, resourceID string, kind AccessKind, targetID string) error

	// OpenDirectResource opens (or reuses) the private channel to a member.
	OpenDirectResource(ctx context.Context, memberID string) (*Resource, error)
	Member(ctx context.Context, workspaceID, memberID string) (*domain.Member, error)
	RoleExists(ctx context.Context, workspaceID, roleID string) (bool, error)
	BotID() string
}
