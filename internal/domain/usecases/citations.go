package usecases

import (
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// MaxExcerptLength bounds a citation excerpt, in characters.
const MaxExcerptLength = 1000

var newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Excerpt trims text, replaces each line break with a space and truncates
// the result to MaxExcerptLength characters.
func Excerpt(text string) string {
	s := newlines.Replace(strings.TrimSpace(text))
	if r := []rune(s); len(r) > MaxExcerptLength {
		s = string(r[:MaxExcerptLength])
	}
	return s
}

// Citations converts source nodes into citations, preserving order.
func Citations(nodes []entities.SourceNode) []entities.SourceCitation {
	out := make([]entities.SourceCitation, 0, len(nodes))
	for _, n := range nodes {
		label := strings.TrimSpace(n.PageLabel)
		if label == "" {
			label = UnknownPage
		}
		out = append(out, entities.SourceCitation{Excerpt: Excerpt(n.Text), PageLabel: label})
	}
	return out
}

// FormatCitations renders citations as the assistant transcript shows them:
// one "excerpt (page N)" paragraph per citation.
func FormatCitations(citations []entities.SourceCitation) string {
	var sb strings.Builder
	for _, c := range citations {
		sb.WriteString(c.Excerpt)
		sb.WriteString(" (page ")
		sb.WriteString(c.PageLabel)
		sb.WriteString(")\n\n")
	}
	return sb.String()
}
