// Package memory implements platform.Client against in-process state. It
// backs local development mode and the test suites; it is not a production
// driver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// Client is an in-memory platform driver.
type Client struct {
	mu        sync.Mutex
	botID     string
	seq       int
	resources map[string]*platform.Resource
	messages  map[string][]platform.Message
	access    map[string][]platform.Access
	members   map[string]map[string]domain.Member
	roles     map[string]map[string]bool
	dms       map[string]string

	// Fail injects an error for the named operation ("Send",
	// "DeleteResource", ...). Used by tests to exercise degraded paths.
	Fail map[string]error
}

// New creates an empty in-memory platform.
func New() *Client {
	return &Client{
		botID:     "1",
		resources: make(map[string]*platform.Resource),
		messages:  make(map[string][]platform.Message),
		access:    make(map[string][]platform.Access),
		members:   make(map[string]map[string]domain.Member),
		roles:     make(map[string]map[string]bool),
		dms:       make(map[string]string),
		Fail:      make(map[string]error),
	}
}

func (c *Client) nextID() string {
	c.seq++
	return fmt.Sprintf("%d", 1000+c.seq)
}

func (c *Client) failure(op string) error {
	return c.Fail[op]
}

// AddMember seeds a workspace member.
func (c *Client) AddMember(workspaceID string, m domain.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.members[workspaceID] == nil {
		c.members[workspaceID] = make(map[string]domain.Member)
	}
	c.members[workspaceID][m.ID] = m
}

// AddRole seeds a workspace role.
func (c *Client) AddRole(workspaceID, roleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.roles[workspaceID] == nil {
		c.roles[workspaceID] = make(map[string]bool)
	}
	c.roles[workspaceID][roleID] = true
}

// AddCategory seeds a grouping category and returns its id.
func (c *Client) AddCategory(workspaceID, name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID()
	c.resources[id] = &platform.Resource{ID: id, WorkspaceID: workspaceID, Name: name}
	return id
}

func (c *Client) CreateResource(ctx context.Context, workspaceID, parentID, name, topic string, access []platform.Access) (*platform.Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("CreateResource"); err != nil {
		return nil, err
	}
	id := c.nextID()
	res := &platform.Resource{ID: id, WorkspaceID: workspaceID, ParentID: parentID, Name: name, Topic: topic}
	c.resources[id] = res
	c.access[id] = append([]platform.Access(nil), access...)
	copied := *res
	return &copied, nil
}

func (c *Client) Resource(ctx context.Context, resourceID string) (*platform.Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.resources[resourceID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (c *Client) UpdateResource(ctx context.Context, resourceID string, patch platform.ResourcePatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("UpdateResource"); err != nil {
		return err
	}
	res, ok := c.resources[resourceID]
	if !ok {
		return platform.ErrNotFound
	}
	if patch.Name != nil {
		res.Name = *patch.Name
	}
	if patch.Topic != nil {
		res.Topic = *patch.Topic
	}
	if patch.ParentID != nil {
		res.ParentID = *patch.ParentID
	}
	if patch.Access != nil {
		c.access[resourceID] = append([]platform.Access(nil), patch.Access...)
	}
	return nil
}

func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("DeleteResource"); err != nil {
		return err
	}
	if _, ok := c.resources[resourceID]; !ok {
		return platform.ErrNotFound
	}
	delete(c.resources, resourceID)
	delete(c.messages, resourceID)
	delete(c.access, resourceID)
	return nil
}

func (c *Client) ListResources(ctx context.Context, workspaceID, parentID string) ([]platform.Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []platform.Resource
	for _, res := range c.resources {
		if res.WorkspaceID == workspaceID && res.ParentID == parentID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (c *Client) Messages(ctx context.Context, resourceID string) ([]platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.resources[resourceID]; !ok {
		return nil, platform.ErrNotFound
	}
	return append([]platform.Message(nil), c.messages[resourceID]...), nil
}

func (c *Client) RecentMessages(ctx context.Context, resourceID string, limit int) ([]platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := c.messages[resourceID]
	var out []platform.Message
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (c *Client) Send(ctx context.Context, resourceID string, post platform.Post) (*platform.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("Send"); err != nil {
		return nil, err
	}
	if _, ok := c.resources[resourceID]; !ok {
		return nil, platform.ErrNotFound
	}
	msg := platform.Message{
		ID:         c.nextID(),
		ResourceID: resourceID,
		AuthorID:   c.botID,
		AuthorName: "ticket-bot",
		AuthorBot:  true,
		Content:    post.Content,
		Footer:     post.Footer,
		Timestamp:  time.Now().UTC(),
		ControlIDs: append([]string(nil), post.ControlIDs...),
	}
	if post.File != nil {
		msg.Attachments = []platform.Attachment{{FileName: post.File.Name, URL: "mem://" + resourceID + "/" + post.File.Name}}
	}
	c.messages[resourceID] = append(c.messages[resourceID], msg)
	return &msg, nil
}

// Receive records an incoming member message, for tests and dev mode.
func (c *Client) Receive(resourceID string, author domain.Member, content string, attachments ...platform.Attachment) platform.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := platform.Message{
		ID:          c.nextID(),
		ResourceID:  resourceID,
		AuthorID:    author.ID,
		AuthorName:  author.Name(),
		AuthorBot:   author.Bot,
		Content:     content,
		Timestamp:   time.Now().UTC(),
		Attachments: attachments,
	}
	c.messages[resourceID] = append(c.messages[resourceID], msg)
	return msg
}

func (c *Client) EditMessage(ctx context.Context, resourceID, messageID string, edit platform.MessageEdit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("EditMessage"); err != nil {
		return err
	}
	history := c.messages[resourceID]
	for i := range history {
		if history[i].ID != messageID {
			continue
		}
		if edit.Content != nil {
			history[i].Content = *edit.Content
		}
		if edit.Footer != nil {
			history[i].Footer = *edit.Footer
		}
		if edit.ControlIDs != nil {
			history[i].ControlIDs = append([]string(nil), (*edit.ControlIDs)...)
		}
		return nil
	}
	return platform.ErrNotFound
}

func (c *Client) DeleteMessage(ctx context.Context, resourceID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("DeleteMessage"); err != nil {
		return err
	}
	history := c.messages[resourceID]
	for i := range history {
		if history[i].ID == messageID {
			c.messages[resourceID] = append(history[:i:i], history[i+1:]...)
			return nil
		}
	}
	return platform.ErrNotFound
}

func (c *Client) SetAccess(ctx context.Context, resourceID string, access platform.Access) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("SetAccess"); err != nil {
		return err
	}
	if _, ok := c.resources[resourceID]; !ok {
		return platform.ErrNotFound
	}
	rules := c.access[resourceID]
	for i := range rules {
		if rules[i].Kind == access.Kind && rules[i].TargetID == access.TargetID {
			rules[i] = access
			return nil
		}
	}
	c.access[resourceID] = append(rules, access)
	return nil
}

func (c *Client) ClearAccess(ctx context.Context, resourceID string, kind platform.AccessKind, targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rules := c.access[resourceID]
	for i := range rules {
		if rules[i].Kind == kind && rules[i].TargetID == targetID {
			c.access[resourceID] = append(rules[:i:i], rules[i+1:]...)
			return nil
		}
	}
	return nil
}

// AccessRules exposes the current rule set for assertions.
func (c *Client) AccessRules(resourceID string) []platform.Access {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]platform.Access(nil), c.access[resourceID]...)
}

func (c *Client) OpenDirectResource(ctx context.Context, memberID string) (*platform.Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failure("OpenDirectResource"); err != nil {
		return nil, err
	}
	if id, ok := c.dms[memberID]; ok {
		copied := *c.resources[id]
		return &copied, nil
	}
	id := c.nextID()
	res := &platform.Resource{ID: id, Name: "dm-" + memberID}
	c.resources[id] = res
	c.dms[memberID] = id
	copied := *res
	return &copied, nil
}

func (c *Client) Member(ctx context.Context, workspaceID, memberID string) (*domain.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws, ok := c.members[workspaceID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	m, ok := ws[memberID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	copied := m
	return &copied, nil
}

func (c *Client) RoleExists(ctx context.Context, workspaceID, roleID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roles[workspaceID][roleID], nil
}

func (c *Client) BotID() string {
	return c.botID
}
