package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(userLimit, ipLimit int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := Config{Window: time.Minute, UserPerWindow: userLimit, IPPerWindow: ipLimit}
	return NewWithClock(cfg, clock), clock
}

func TestLimiter_RejectsCallOverCeiling(t *testing.T) {
	l, _ := newTestLimiter(3, 100)
	keys := []Key{UserKey("u1")}

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(keys, "generate"))
	}

	err := l.Check(keys, "generate")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeRateLimited, e.Code)
	assert.Equal(t, "generate", e.Scope)
}

func TestLimiter_WindowResetsCounter(t *testing.T) {
	l, clock := newTestLimiter(2, 100)
	keys := []Key{UserKey("u1")}

	require.NoError(t, l.Check(keys, "generate"))
	require.NoError(t, l.Check(keys, "generate"))

	clock.Advance(61 * time.Second)

	require.NoError(t, l.Check(keys, "generate"))
	b, ok := l.Peek(UserKey("u1"), "generate")
	require.True(t, ok)
	assert.Equal(t, 1, b.Count)
}

func TestLimiter_ScopesAndKindsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 2)

	require.NoError(t, l.Check([]Key{UserKey("u1")}, "generate"))
	require.NoError(t, l.Check([]Key{UserKey("u1")}, "edit"))
	require.NoError(t, l.Check([]Key{UserKey("u2")}, "generate"))

	require.NoError(t, l.Check([]Key{IPKey("10.0.0.1")}, "clarify"))
	require.NoError(t, l.Check([]Key{IPKey("10.0.0.1")}, "clarify"))
	assert.Error(t, l.Check([]Key{IPKey("10.0.0.1")}, "clarify"))
}

func TestLimiter_AnyKeyOverCeilingRejects(t *testing.T) {
	l, _ := newTestLimiter(5, 1)
	keys := []Key{UserKey("u1"), IPKey("10.0.0.1")}

	require.NoError(t, l.Check(keys, "generate"))
	assert.True(t, apperr.CodeOf(l.Check(keys, "generate")) == apperr.CodeRateLimited)
}

func TestLimiter_EmptyKeysIgnored(t *testing.T) {
	l, _ := newTestLimiter(1, 1)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Check([]Key{UserKey(""), IPKey("")}, "generate"))
	}
}

func TestLimiter_ConcurrentChecksCountExactly(t *testing.T) {
	l, _ := newTestLimiter(50, 100)
	keys := []Key{UserKey("u1")}

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Check(keys, "generate"); err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, rejected)
	b, _ := l.Peek(UserKey("u1"), "generate")
	assert.Equal(t, 80, b.Count)
}
