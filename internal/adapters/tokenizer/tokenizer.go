// Package tokenizer measures text in model tokens for chunking.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// Tiktoken counts BPE tokens with a named tiktoken encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads encoding, e.g. "cl100k_base". The first load may fetch
// the BPE ranks over the network.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Whitespace counts whitespace-separated words.
type Whitespace struct{}

func (Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

// New returns the counter named by name. "whitespace" selects Whitespace;
// anything else is a tiktoken encoding, falling back to Whitespace when it
// cannot be loaded.
func New(name string, log *logger.Logger) ports.TokenCounter {
	if log == nil {
		log = logger.Nop()
	}
	if name == "" || name == "whitespace" {
		return Whitespace{}
	}
	t, err := NewTiktoken(name)
	if err != nil {
		log.Warn("tiktoken unavailable, counting words instead", "encoding", name, "error", err)
		return Whitespace{}
	}
	return t
}
