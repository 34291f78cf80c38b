package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// Session is the state of one user interaction stream. Upload and query
// passes are serialized with Begin; accessors are safe for concurrent use.
type Session struct {
	ID string

	pass chan struct{}
	now  func() time.Time

	mu           sync.RWMutex
	apiKey       string
	index        ports.Index
	document     *entities.DocumentInfo
	pendingQuery string
	lastActive   time.Time

	history Conversation
}

// New creates an empty session.
func New(id string) *Session {
	return newWithClock(id, time.Now)
}

func newWithClock(id string, now func() time.Time) *Session {
	return &Session{
		ID:         id,
		pass:       make(chan struct{}, 1),
		now:        now,
		lastActive: now(),
	}
}

// Begin waits until no other pass is running on the session and returns the
// function that ends this one.
func (s *Session) Begin(ctx context.Context) (func(), error) {
	select {
	case s.pass <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.Touch()
	var once sync.Once
	return func() { once.Do(func() { <-s.pass }) }, nil
}

// Touch records activity for idle sweeping.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// SetAPIKey stores the provider credential. Surrounding whitespace is dropped.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(key)
}

func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// HasAPIKey reports whether a credential has been supplied.
func (s *Session) HasAPIKey() bool {
	return s.APIKey() != ""
}

// SetIndex makes idx the active index and closes the one it replaces.
func (s *Session) SetIndex(idx ports.Index, info entities.DocumentInfo) error {
	s.mu.Lock()
	old := s.index
	s.index = idx
	s.document = &info
	s.mu.Unlock()

	if old != nil && old != idx {
		return old.Close()
	}
	return nil
}

// Index returns the active index, or nil before any document is loaded.
func (s *Session) Index() ports.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Document describes the active document.
func (s *Session) Document() (entities.DocumentInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.document == nil {
		return entities.DocumentInfo{}, false
	}
	return *s.document, true
}

func (s *Session) SetPendingQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingQuery = q
}

// PendingQuery is the last question submitted.
func (s *Session) PendingQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingQuery
}

// Append adds a turn to the conversation.
func (s *Session) Append(turn entities.ConversationTurn) {
	s.history.Append(turn)
}

// History renders the conversation.
func (s *Session) History() []entities.ConversationTurn {
	return s.history.Render()
}

// ClearHistory empties the conversation and the pending query.
// The active document stays loaded.
func (s *Session) ClearHistory() {
	s.history.Clear()
	s.SetPendingQuery("")
}

// Close releases the active index.
func (s *Session) Close() error {
	s.mu.Lock()
	idx := s.index
	s.index = nil
	s.document = nil
	s.mu.Unlock()

	if idx != nil {
		return idx.Close()
	}
	return nil
}
