// Package ratelimit implements fixed-window request counters keyed by user or
// client address. Buckets live in memory only and are reset lazily.
package ratelimit

import (
	"sync"
	"time"

	"github.com/alexanderramin/promptforge/internal/apperr"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// KeyKind distinguishes user-keyed from address-keyed buckets; each has its
// own ceiling.
type KeyKind string

const (
	KeyUser KeyKind = "user"
	KeyIP   KeyKind = "ip"
)

// Key identifies the caller a bucket belongs to.
type Key struct {
	Kind KeyKind
	ID   string
}

// UserKey returns a user-scoped key.
func UserKey(id string) Key { return Key{Kind: KeyUser, ID: id} }

// IPKey returns an address-scoped key.
func IPKey(addr string) Key { return Key{Kind: KeyIP, ID: addr} }

// Config sets the per-window ceilings.
type Config struct {
	Window        time.Duration `yaml:"window"`
	UserPerWindow int           `yaml:"user_per_window"`
	IPPerWindow   int           `yaml:"ip_per_window"`
}

// DefaultConfig returns a 60-second window with 20 user and 40 IP requests.
func DefaultConfig() Config {
	return Config{
		Window:        60 * time.Second,
		UserPerWindow: 20,
		IPPerWindow:   40,
	}
}

// Bucket is one key's counter for the current window.
type Bucket struct {
	Key     string
	Count   int
	ResetAt time.Time
}

// Limiter counts requests per key and scope.
type Limiter struct {
	cfg   Config
	clock Clock

	mu      sync.Mutex
	buckets map[string]*Bucket
}

// New creates a Limiter using the wall clock.
func New(cfg Config) *Limiter {
	return NewWithClock(cfg, realClock{})
}

// NewWithClock creates a Limiter with a custom clock (for testing).
func NewWithClock(cfg Config, clock Clock) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	return &Limiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*Bucket),
	}
}

// Check increments the counter of every key for scope and returns
// RATE_LIMITED{scope} when any of them is now over its ceiling. Keys with an
// empty ID are ignored. A zero or negative ceiling disables that kind.
func (l *Limiter) Check(keys []Key, scope string) error {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	limited := false
	for _, k := range keys {
		if k.ID == "" {
			continue
		}
		ceiling := l.ceiling(k.Kind)
		if ceiling <= 0 {
			continue
		}
		name := string(k.Kind) + ":" + k.ID + ":" + scope
		b, ok := l.buckets[name]
		if !ok || !now.Before(b.ResetAt) {
			b = &Bucket{Key: name, ResetAt: now.Add(l.cfg.Window)}
			l.buckets[name] = b
		}
		b.Count++
		if b.Count > ceiling {
			limited = true
		}
	}
	if limited {
		return apperr.RateLimited(scope)
	}
	return nil
}

// Peek returns a copy of the named bucket, if present.
func (l *Limiter) Peek(k Key, scope string) (Bucket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[string(k.Kind)+":"+k.ID+":"+scope]
	if !ok {
		return Bucket{}, false
	}
	return *b, true
}

func (l *Limiter) ceiling(kind KeyKind) int {
	switch kind {
	case KeyUser:
		return l.cfg.UserPerWindow
	case KeyIP:
		return l.cfg.IPPerWindow
	}
	return 0
}
