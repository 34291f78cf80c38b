package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// Registry tracks live sessions in process memory.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
	log      *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
		log:      log,
	}
}

// Create starts a session with a random ID.
func (r *Registry) Create() *Session {
	s := newWithClock(uuid.NewString(), r.now)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Debug("session created", "session", s.ID)
	return s
}

// Get returns the session for id and marks it active.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown. created reports which happened.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.Create(), true
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		r.closeSession(s)
	}
}

// Sweep closes sessions idle longer than maxIdle and returns how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var idle []*Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		r.closeSession(s)
	}
	if len(idle) > 0 {
		r.log.Info("swept idle sessions", "count", len(idle))
	}
	return len(idle)
}

// CloseAll closes every session, used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		r.closeSession(s)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) closeSession(s *Session) {
	if err := s.Close(); err != nil {
		r.log.Warn("closing session index", "session", s.ID, "error", err)
	}
}
