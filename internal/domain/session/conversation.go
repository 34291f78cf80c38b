// Package session holds per-user interaction state: the conversation log,
// the provider credential and the active document index.
package session

import (
	"sync"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// Conversation is an ordered, append-only log of turns.
type Conversation struct {
	mu    sync.RWMutex
	turns []entities.ConversationTurn
}

// Append adds turn at the end. There is no length bound.
func (c *Conversation) Append(turn entities.ConversationTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
}

// Clear replaces the log with an empty one.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}

// Render returns a copy of the log in insertion order.
func (c *Conversation) Render() []entities.ConversationTurn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entities.ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}
