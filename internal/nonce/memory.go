package nonce

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps sessions in process. Fine for a single instance and for tests.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	s       Session
	expires time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]memEntry{}, now: time.Now}
}

func (b *MemoryBackend) Put(_ context.Context, s Session, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	// Abandoned flows are dropped lazily on write.
	for k, e := range b.entries {
		if now.After(e.expires) {
			delete(b.entries, k)
		}
	}
	b.entries[s.Nonce] = memEntry{s: s, expires: now.Add(ttl)}
	return nil
}

func (b *MemoryBackend) Take(_ context.Context, nonce string) (Session, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[nonce]
	if !ok {
		return Session{}, false, nil
	}
	delete(b.entries, nonce)
	if b.now().After(e.expires) {
		return Session{}, false, nil
	}
	return e.s, true, nil
}

// Len reports live and not yet swept entries.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
