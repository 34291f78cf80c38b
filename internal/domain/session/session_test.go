package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

type fakeIndex struct {
	closed int
}

func (f *fakeIndex) Query(context.Context, string, bool) (*ports.Answer, error) { return nil, nil }
func (f *fakeIndex) Chunks() int                                                { return 1 }
func (f *fakeIndex) Close() error                                               { f.closed++; return nil }

func TestConversation_AppendRenderClear(t *testing.T) {
	var c Conversation
	c.Append(entities.ConversationTurn{Role: entities.RoleUser, Content: "q1"})
	c.Append(entities.ConversationTurn{Role: entities.RoleAssistant, Content: "a1"})

	turns := c.Render()
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Content)
	assert.Equal(t, entities.RoleAssistant, turns[1].Role)

	turns[0].Content = "mutated"
	assert.Equal(t, "q1", c.Render()[0].Content, "Render must return a copy")

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Render())
}

func TestSession_ClearHistoryKeepsDocument(t *testing.T) {
	s := New("s1")
	idx := &fakeIndex{}
	require.NoError(t, s.SetIndex(idx, entities.DocumentInfo{Name: "a.txt"}))
	s.SetPendingQuery("what?")
	s.Append(entities.ConversationTurn{Role: entities.RoleUser, Content: "what?"})

	s.ClearHistory()

	assert.Empty(t, s.History())
	assert.Empty(t, s.PendingQuery())
	assert.Same(t, idx, s.Index())
	info, ok := s.Document()
	assert.True(t, ok)
	assert.Equal(t, "a.txt", info.Name)
}

func TestSession_SetIndexClosesPrevious(t *testing.T) {
	s := New("s1")
	first, second := &fakeIndex{}, &fakeIndex{}

	require.NoError(t, s.SetIndex(first, entities.DocumentInfo{Name: "one"}))
	require.NoError(t, s.SetIndex(second, entities.DocumentInfo{Name: "two"}))

	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 0, second.closed)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, second.closed)
	assert.Nil(t, s.Index())
	_, ok := s.Document()
	assert.False(t, ok)
}

func TestSession_APIKeyTrimmed(t *testing.T) {
	s := New("s1")
	assert.False(t, s.HasAPIKey())
	s.SetAPIKey("  sk-abc \n")
	assert.Equal(t, "sk-abc", s.APIKey())
	assert.True(t, s.HasAPIKey())
}

func TestSession_BeginSerializesPasses(t *testing.T) {
	s := New("s1")
	end, err := s.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	end()
	end() // second call is a no-op

	end2, err := s.Begin(context.Background())
	require.NoError(t, err)
	end2()
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := New("s1")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(entities.ConversationTurn{Role: entities.RoleUser, Content: "x"})
		}()
	}
	wg.Wait()
	assert.Len(t, s.History(), 50)
}
