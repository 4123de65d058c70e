package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"promptcoach/models"

	"github.com/redis/go-redis/v9"
)

const usernameKey = "pm_username"

// PreferenceStore persists the one value that survives a reload: the
// trainee's username.
type PreferenceStore interface {
	LoadUsername(ctx context.Context, owner models.Owner) (string, error)
	SaveUsername(ctx context.Context, owner models.Owner, name string) error
}

type MemoryPreferences struct {
	mu    sync.RWMutex
	names map[models.Owner]string
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{names: make(map[models.Owner]string)}
}

func (p *MemoryPreferences) LoadUsername(_ context.Context, owner models.Owner) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.names[owner], nil
}

func (p *MemoryPreferences) SaveUsername(_ context.Context, owner models.Owner, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[owner] = name
	return nil
}

type RedisPreferences struct {
	rdb *redis.Client
}

func NewRedisPreferences(rdb *redis.Client) *RedisPreferences {
	return &RedisPreferences{rdb: rdb}
}

func preferenceKey(owner models.Owner) string {
	return fmt.Sprintf("prefs:%s:%s:%s", owner.Tenant, owner.UserID, usernameKey)
}

func (p *RedisPreferences) LoadUsername(ctx context.Context, owner models.Owner) (string, error) {
	name, err := p.rdb.Get(ctx, preferenceKey(owner)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load username: %w", err)
	}
	return name, nil
}

func (p *RedisPreferences) SaveUsername(ctx context.Context, owner models.Owner, name string) error {
	if err := p.rdb.Set(ctx, preferenceKey(owner), name, 0).Err(); err != nil {
		return fmt.Errorf("failed to save username: %w", err)
	}
	return nil
}
