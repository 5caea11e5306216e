package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/domain"
)

func fixedScope(context.Context) Scope { return scope }

func TestSaver_CoalescesBurst(t *testing.T) {
	backend := &MemoryBackend{}
	store := NewStore(backend, nil)
	saver := NewSaver(store, fixedScope, 50*time.Millisecond, nil)
	defer saver.Close()

	st := sampleState()
	for i := 0; i < 5; i++ {
		st.QuestionIndex = i % 2
		st.Status = "burst"
		saver.Observe(st, nil)
	}

	assert.Eventually(t, func() bool { return backend.Writes() == 1 }, time.Second, 10*time.Millisecond)
	rec, ok, err := store.Load(context.Background(), scope)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, rec.State.QuestionIndex, "last observed state wins")
}

func TestSaver_CloseFlushesPending(t *testing.T) {
	backend := &MemoryBackend{}
	store := NewStore(backend, nil)
	saver := NewSaver(store, fixedScope, time.Hour, nil)

	saver.Observe(sampleState(), nil)
	saver.Close()
	saver.Close()

	assert.Equal(t, 1, backend.Writes())
	_, ok, err := store.Load(context.Background(), scope)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaver_EmptyStateClearsDraft(t *testing.T) {
	backend := &MemoryBackend{}
	store := NewStore(backend, nil)
	require.NoError(t, store.Save(context.Background(), scope, sampleState(), nil))

	saver := NewSaver(store, fixedScope, time.Hour, nil)
	saver.Observe(domain.NewConversationState(), nil)
	saver.Close()

	assert.Empty(t, backend.Raw())
}

func TestSaver_CloseWithoutChangesWritesNothing(t *testing.T) {
	backend := &MemoryBackend{}
	saver := NewSaver(NewStore(backend, nil), fixedScope, 0, nil)
	saver.Close()
	assert.Zero(t, backend.Writes())
}
