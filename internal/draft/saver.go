package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// DefaultDebounce is how long the saver waits for further changes before
// writing.
const DefaultDebounce = time.Second

type pending struct {
	state domain.ConversationState
	snap  *domain.Snapshot
}

// Saver coalesces bursts of state changes into a single draft write.
type Saver struct {
	store  *Store
	scope  func(ctx context.Context) Scope
	window time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	next  *pending
	kick  chan struct{}
	stop  chan struct{}
	done  chan struct{}
	close sync.Once
}

// NewSaver starts a saver writing through store. scope is resolved at write
// time so a sign-in between changes is honoured. A non-positive window uses
// DefaultDebounce.
func NewSaver(store *Store, scope func(ctx context.Context) Scope, window time.Duration, logger *slog.Logger) *Saver {
	if window <= 0 {
		window = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Saver{
		store:  store,
		scope:  scope,
		window: window,
		logger: logger,
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s
}

// Observe records the latest state. Only the newest value observed within a
// window is written.
func (s *Saver) Observe(state domain.ConversationState, snap *domain.Snapshot) {
	s.mu.Lock()
	s.next = &pending{state: state, snap: snap}
	s.mu.Unlock()
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Close stops the saver and writes any pending change.
func (s *Saver) Close() {
	s.close.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *Saver) loop() {
	defer close(s.done)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-s.kick:
			if timer == nil {
				timer = time.NewTimer(s.window)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			s.flush()
		case <-s.stop:
			if timer != nil {
				timer.Stop()
			}
			s.flush()
			return
		}
	}
}

func (s *Saver) flush() {
	s.mu.Lock()
	p := s.next
	s.next = nil
	s.mu.Unlock()
	if p == nil {
		return
	}
	ctx := context.Background()
	if err := s.store.Save(ctx, s.scope(ctx), p.state, p.snap); err != nil {
		s.logger.Warn("draft save failed", "error", err)
	}
}
