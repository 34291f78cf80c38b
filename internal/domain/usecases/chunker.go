package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// UnknownPage labels text that cannot be attributed to a page.
const UnknownPage = "unknown"

var wordSpan = regexp.MustCompile(`\S+\s*`)

// Chunker splits a document into token-bounded, overlapping chunks.
// A chunk never crosses a page boundary.
type Chunker struct {
	counter ports.TokenCounter
	size    int
	overlap int
}

// NewChunker creates a Chunker. size and overlap are measured in tokens.
func NewChunker(counter ports.TokenCounter, size, overlap int) *Chunker {
	if size <= 0 {
		size = 1024
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{counter: counter, size: size, overlap: overlap}
}

// pageText is a span of the document content with its label.
type pageText struct {
	label string
	text  string
}

// Split chunks doc page by page.
func (c *Chunker) Split(doc *entities.Document) []entities.Chunk {
	var chunks []entities.Chunk
	for _, page := range c.pages(doc) {
		for _, content := range c.splitText(page.text) {
			index := len(chunks)
			chunks = append(chunks, entities.Chunk{
				ID:         generateChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Content:    content,
				Index:      index,
				PageLabel:  page.label,
			})
		}
	}
	return chunks
}

// pages slices doc.Content along the page segments. When the segments do not
// cover the content exactly, the whole content is one unlabeled span.
func (c *Chunker) pages(doc *entities.Document) []pageText {
	total := 0
	for _, seg := range doc.Pages {
		total += len(seg.Text)
	}
	if len(doc.Pages) == 0 || total != len(doc.Content) {
		return []pageText{{label: UnknownPage, text: doc.Content}}
	}

	out := make([]pageText, 0, len(doc.Pages))
	offset := 0
	for _, seg := range doc.Pages {
		end := offset + len(seg.Text)
		out = append(out, pageText{label: strconv.Itoa(seg.PageNumber), text: doc.Content[offset:end]})
		offset = end
	}
	return out
}

// splitText greedily packs whole words until the token budget is reached,
// then steps back by up to overlap tokens to start the next chunk.
func (c *Chunker) splitText(text string) []string {
	words := wordSpan.FindAllString(text, -1)
	if len(words) == 0 {
		return nil
	}
	tokens := make([]int, len(words))
	for i, w := range words {
		tokens[i] = c.counter.Count(w)
	}

	var out []string
	start := 0
	for start < len(words) {
		end, used := start, 0
		for end < len(words) && (end == start || used+tokens[end] <= c.size) {
			used += tokens[end]
			end++
		}

		if content := strings.TrimSpace(strings.Join(words[start:end], "")); content != "" {
			out = append(out, content)
		}
		if end == len(words) {
			break
		}

		next, back := end, 0
		for next-1 > start && back+tokens[next-1] <= c.overlap {
			next--
			back += tokens[next]
		}
		start = next
	}
	return out
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
