package platform

import "sync"

type subKey struct {
	resourceID string
	authorID   string
}

// Inbox routes incoming platform messages to waiting conversations. The
// gateway delivers every non-bot message; a conversation subscribes for one
// (resource, author) pair and reads with its own timer.
type Inbox struct {
	mu   sync.Mutex
	subs map[subKey]chan Message
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{subs: make(map[subKey]chan Message)}
}

// Subscribe registers interest in messages from one author in one resource.
// The returned cancel func must be called when the conversation ends. A
// second subscription for the same pair replaces the first: two
// conversations sharing a resource and author (a member in direct-channel
// flows for two workspaces at once) cannot both receive, and the displaced
// one runs silent until its own timer ends it.
func (in *Inbox) Subscribe(resourceID, authorID string) (<-chan Message, func()) {
	key := subKey{resourceID: resourceID, authorID: authorID}
	ch := make(chan Message, 16)

	in.mu.Lock()
	in.subs[key] = ch
	in.mu.Unlock()

	cancel := func() {
		in.mu.Lock()
		if in.subs[key] == ch {
			delete(in.subs, key)
		}
		in.mu.Unlock()
	}
	return ch, cancel
}

// Deliver hands a message to the matching subscriber, if any. Messages with
// no waiting conversation are dropped; a full buffer also drops rather than
// blocking the gateway.
func (in *Inbox) Deliver(msg Message) {
	key := subKey{resourceID: msg.ResourceID, authorID: msg.AuthorID}

	in.mu.Lock()
	ch := in.subs[key]
	in.mu.Unlock()

	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}
