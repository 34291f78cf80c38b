package usecases

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

func TestExcerpt_CollapsesNewlines(t *testing.T) {
	assert.Equal(t, "line one line two  line three", Excerpt("\n line one\nline two\r\n\nline three \n"))
}

func TestExcerpt_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxExcerptLength+50)
	got := Excerpt(long)

	assert.Equal(t, MaxExcerptLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestCitations_LabelsAndOrder(t *testing.T) {
	got := Citations([]entities.SourceNode{
		{Text: "first\nnode", PageLabel: "2"},
		{Text: "second", PageLabel: ""},
	})

	require.Len(t, got, 2)
	assert.Equal(t, entities.SourceCitation{Excerpt: "first node", PageLabel: "2"}, got[0])
	assert.Equal(t, entities.SourceCitation{Excerpt: "second", PageLabel: UnknownPage}, got[1])
	assert.NotContains(t, got[0].Excerpt, "\n")
}

func TestCitations_Empty(t *testing.T) {
	got := Citations(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFormatCitations(t *testing.T) {
	got := FormatCitations([]entities.SourceCitation{
		{Excerpt: "Hello", PageLabel: "1"},
		{Excerpt: "World", PageLabel: "2"},
	})
	assert.Equal(t, "Hello (page 1)\n\nWorld (page 2)\n\n", got)
}
