package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

func TestRegistry_CreateGet(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Create()
	require.NotEmpty(t, s.ID)

	got, ok := r.Get(s.ID)
	assert.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(nil)
	s, created := r.GetOrCreate("")
	assert.True(t, created)

	again, created := r.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := r.GetOrCreate("stale-cookie")
	assert.True(t, created)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(nil)
	a, b := r.Create(), r.Create()
	a.Append(entities.ConversationTurn{Role: entities.RoleUser, Content: "hi"})
	a.SetAPIKey("sk-a")

	assert.Empty(t, b.History())
	assert.Empty(t, b.APIKey())
}

func TestRegistry_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(nil)
	r.now = func() time.Time { return now }

	old := r.Create()
	idx := &fakeIndex{}
	require.NoError(t, old.SetIndex(idx, entities.DocumentInfo{}))

	now = now.Add(90 * time.Minute)
	fresh := r.Create()

	assert.Equal(t, 1, r.Sweep(time.Hour))
	assert.Equal(t, 1, idx.closed)

	_, ok := r.Get(old.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
}

func TestRegistry_DeleteAndCloseAll(t *testing.T) {
	r := NewRegistry(nil)
	a, b := r.Create(), r.Create()
	ia, ib := &fakeIndex{}, &fakeIndex{}
	require.NoError(t, a.SetIndex(ia, entities.DocumentInfo{}))
	require.NoError(t, b.SetIndex(ib, entities.DocumentInfo{}))

	r.Delete(a.ID)
	assert.Equal(t, 1, ia.closed)
	assert.Equal(t, 1, r.Len())

	r.CloseAll()
	assert.Equal(t, 1, ib.closed)
	assert.Equal(t, 0, r.Len())
}
