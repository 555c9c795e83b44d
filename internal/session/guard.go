// Package session enforces the one-live-appeal-per-member rule.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard grants exclusive ownership of an appeal conversation slot for one
// (workspace, member) pair.
type Guard interface {
	// Acquire reports whether the slot was free; the hold expires after ttl
	// even if never released.
	Acquire(ctx context.Context, workspaceID, memberID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, workspaceID, memberID string) error
}

func slotKey(workspaceID, memberID string) string {
	return "appeal:" + workspaceID + ":" + memberID
}

// MemoryGuard keeps holds in process memory; suitable for a single
// instance.
type MemoryGuard struct {
	mu    sync.Mutex
	holds map[string]time.Time
}

// NewMemoryGuard creates an empty guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{holds: make(map[string]time.Time)}
}

func (g *MemoryGuard) Acquire(ctx context.Context, workspaceID, memberID string, ttl time.Duration) (bool, error) {
	key := slotKey(workspaceID, memberID)
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()
	if deadline, held := g.holds[key]; held && now.Before(deadline) {
		return false, nil
	}
	g.holds[key] = now.Add(ttl)
	return true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, workspaceID, memberID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.holds, slotKey(workspaceID, memberID))
	return nil
}

// RedisGuard coordinates the slot across bot instances with SETNX.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard wraps a connected client.
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) Acquire(ctx context.Context, workspaceID, memberID string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, slotKey(workspaceID, memberID), "held", ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context, workspaceID, memberID string) error {
	return g.client.Del(ctx, slotKey(workspaceID, memberID)).Err()
}
