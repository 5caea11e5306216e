package auth

import (
	"context"
	"testing"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire_SignedOut(t *testing.T) {
	_, err := Require(context.Background(), NewStatic(nil))
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))

	_, err = Require(context.Background(), nil)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestStatic_SetUserAndSignOut(t *testing.T) {
	p := NewStatic(nil)
	p.SetUser(&User{ID: "u1", Email: "a@example.com"})

	u, err := Require(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u.ID = "mutated"
	again, _ := p.CurrentUser(context.Background())
	assert.Equal(t, "u1", again.ID)

	p.SetUser(&User{})
	got, err := p.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenTable_Lookup(t *testing.T) {
	table := NewTokenTable(map[string]User{
		"tok-a": {ID: "alice"},
		"tok-b": {ID: "bob"},
		"":      {ID: "nobody"},
	})
	assert.Equal(t, 2, table.Len())

	u, ok := table.Lookup("tok-b")
	require.True(t, ok)
	assert.Equal(t, "bob", u.ID)

	_, ok = table.Lookup("tok-c")
	assert.False(t, ok)
	_, ok = table.Lookup("")
	assert.False(t, ok)
}

func TestContextProvider(t *testing.T) {
	ctx := WithUser(context.Background(), &User{ID: "u9"})
	u, err := Require(ctx, ContextProvider{})
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)

	_, err = Require(context.Background(), ContextProvider{})
	assert.Error(t, err)
}
