// Package nonce issues and redeems the single-use state values that bind an
// authorization redirect to its callback.
package nonce

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrInvalidState covers unknown, replayed, expired and cross-shop nonces alike.
	ErrInvalidState = errors.New("invalid or expired state")
	// ErrUnavailable means the backend could not be reached; it never counts as a match.
	ErrUnavailable = errors.New("state store unavailable")
)

const DefaultTTL = 10 * time.Minute

// Session is what a nonce stands for while the merchant is at the provider.
type Session struct {
	Nonce    string    `json:"nonce"`
	Shop     string    `json:"shop"`
	IssuedAt time.Time `json:"issued_at"`
}

// Backend stores sessions for a bounded time. Take must remove and return in one step so a
// nonce can only ever be redeemed once.
type Backend interface {
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Take(ctx context.Context, nonce string) (Session, bool, error)
}

type Manager struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	rand    io.Reader
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithRandom(r io.Reader) Option { return func(m *Manager) { m.rand = r } }

func NewManager(b Backend, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{backend: b, ttl: ttl, now: time.Now, rand: rand.Reader}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a fresh nonce bound to shop.
func (m *Manager) Issue(ctx context.Context, shop string) (string, error) {
	if strings.TrimSpace(shop) == "" {
		return "", fmt.Errorf("nonce: shop is required")
	}
	buf := make([]byte, 32)
	if _, err := io.ReadFull(m.rand, buf); err != nil {
		return "", fmt.Errorf("nonce: read random: %w", err)
	}
	s := Session{
		Nonce:    base64.RawURLEncoding.EncodeToString(buf),
		Shop:     shop,
		IssuedAt: m.now().UTC(),
	}
	if err := m.backend.Put(ctx, s, m.ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.Nonce, nil
}

// ValidateAndConsume redeems nonce for shop. The nonce is gone afterwards whatever the
// outcome, including when it was presented for the wrong shop.
func (m *Manager) ValidateAndConsume(ctx context.Context, nonce, shop string) error {
	if nonce == "" {
		return ErrInvalidState
	}
	s, ok, err := m.backend.Take(ctx, nonce)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrInvalidState
	}
	if m.now().After(s.IssuedAt.Add(m.ttl)) {
		return fmt.Errorf("%w: expired", ErrInvalidState)
	}
	if s.Shop != shop {
		return fmt.Errorf("%w: issued for a different shop", ErrInvalidState)
	}
	return nil
}
