// Package history fans out "history changed" signals to live subscribers.
package history

import (
	"context"
	"fmt"
	"sync"

	"promptcoach/models"
)

// Broker delivers change notifications per owner. Signals are coalesced: a
// subscriber that is busy re-reading its history sees at most one pending
// signal.
type Broker interface {
	Notify(ctx context.Context, owner models.Owner) error
	Subscribe(ctx context.Context, owner models.Owner) (<-chan struct{}, func(), error)
}

func channelName(owner models.Owner) string {
	return fmt.Sprintf("history:%s:%s", owner.Tenant, owner.UserID)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// LocalBroker is the in-process broker used when no Redis is configured.
type LocalBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[chan struct{}]struct{})}
}

func (b *LocalBroker) Notify(_ context.Context, owner models.Owner) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[channelName(owner)] {
		signal(ch)
	}
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, owner models.Owner) (<-chan struct{}, func(), error) {
	key := channelName(owner)
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[chan struct{}]struct{})
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[key], ch)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
		})
	}
	return ch, cancel, nil
}

// Subscribers reports how many subscriptions are open for owner.
func (b *LocalBroker) Subscribers(owner models.Owner) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channelName(owner)])
}
