package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

func extract(t *testing.T, name string, data []byte, format entities.Format) (*entities.ExtractedDocument, error) {
	t.Helper()
	return NewExtractor(nil, nil).Extract(context.Background(), writeFile(t, name, data), format)
}

func requireConcatenation(t *testing.T, doc *entities.ExtractedDocument) {
	t.Helper()
	var sb strings.Builder
	for _, s := range doc.Segments {
		sb.WriteString(s.Text)
	}
	require.Equal(t, doc.FullText, sb.String(), "segments must cover the full text")
}

func TestExtract_TXT(t *testing.T) {
	doc, err := extract(t, "a.txt", []byte("foo bar"), entities.FormatTXT)
	require.NoError(t, err)

	assert.Equal(t, "foo bar", doc.FullText)
	assert.Equal(t, []entities.Segment{{PageNumber: 1, Text: "foo bar"}}, doc.Segments)
}

func TestExtract_TXT_NormalizesLineEndings(t *testing.T) {
	doc, err := extract(t, "a.txt", []byte("one\r\ntwo\rthree"), entities.FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", doc.FullText)
}

func TestExtract_TXT_KeepsByteOrderMark(t *testing.T) {
	doc, err := extract(t, "bom.txt", []byte("\xEF\xBB\xBFhello"), entities.FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "\ufeffhello", doc.FullText)
	assert.Equal(t, []entities.Segment{{PageNumber: 1, Text: "\ufeffhello"}}, doc.Segments)
}

func TestExtract_PDF_OneSegmentPerPage(t *testing.T) {
	doc, err := extract(t, "two.pdf", buildPDF("Hello", "World"), entities.FormatPDF)
	require.NoError(t, err)

	require.Len(t, doc.Segments, 2)
	assert.Equal(t, 1, doc.Segments[0].PageNumber)
	assert.Equal(t, 2, doc.Segments[1].PageNumber)
	assert.Contains(t, doc.Segments[0].Text, "Hello")
	assert.Contains(t, doc.Segments[1].Text, "World")
	requireConcatenation(t, doc)
}

func TestExtract_PDF_ManyPages(t *testing.T) {
	pages := []string{"a", "b", "c", "d", "e"}
	doc, err := extract(t, "five.pdf", buildPDF(pages...), entities.FormatPDF)
	require.NoError(t, err)

	require.Len(t, doc.Segments, len(pages))
	for i, seg := range doc.Segments {
		assert.Equal(t, i+1, seg.PageNumber)
	}
}

func TestExtract_PDF_Corrupt(t *testing.T) {
	_, err := extract(t, "bad.pdf", []byte("%PDF-1.4\nthis is not really a pdf document at all, just some bytes pretending\n%%EOF"), entities.FormatPDF)
	assert.ErrorIs(t, err, errs.ErrExtraction)
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>`+
			`<w:r><w:t>First</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> paragraph</w:t></w:r></w:p>`,
		`<w:p><w:r><w:t>Second</w:t><w:br/><w:t>line</w:t></w:r></w:p>`,
		`<w:p/>`,
	)
	doc, err := extract(t, "a.docx", data, entities.FormatDOCX)
	require.NoError(t, err)

	assert.Equal(t, "First\t paragraph\nSecond\nline\n\n", doc.FullText)
	require.Len(t, doc.Segments, 1)
	assert.Equal(t, 1, doc.Segments[0].PageNumber)
	requireConcatenation(t, doc)
}

func TestExtract_DOCX_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("plain text renamed to docx")},
		{"missing body", buildZip(t, map[string]string{"word/styles.xml": "<styles/>"})},
		{"broken xml", buildZip(t, map[string]string{docxBody: "<w:document><w:body><w:p>"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract(t, "a.docx", tt.data, entities.FormatDOCX)
			assert.ErrorIs(t, err, errs.ErrExtraction)
		})
	}
}

func TestExtract_HTML(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Ignored</title><style>p { color: red }</style></head>
<body>
  <h1>Title</h1>
  <p>Hello <b>world</b> &amp; more</p>
  <script>alert("x")</script>
  <ul><li>one</li>
      <li>two</li></ul>
  <p>line<br>break</p>
</body></html>`
	doc, err := extract(t, "a.html", []byte(page), entities.FormatHTML)
	require.NoError(t, err)

	assert.Equal(t, "Title\n\nHello world & more\n\n* one\n* two\n\nline\nbreak", doc.FullText)
	assert.NotContains(t, doc.FullText, "alert")
	assert.NotContains(t, doc.FullText, "Ignored")
	requireConcatenation(t, doc)
}

func TestExtract_HTML_UnclosedHead(t *testing.T) {
	doc, err := extract(t, "a.htm", []byte("<html><head><title>t</title><body><p>visible</p>"), entities.FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "visible", doc.FullText)
}

func TestExtract_RTF(t *testing.T) {
	rtf := `{\rtf1\ansi\deff0{\fonttbl{\f0\fswiss Helvetica;}}{\*\generator Writer;}` +
		"\n" + `\f0\pard Hello {\b bold}\par World caf\'e9 \u8364?\par}`
	doc, err := extract(t, "a.rtf", []byte(rtf), entities.FormatRTF)
	require.NoError(t, err)

	assert.Equal(t, "Hello bold\nWorld café €", doc.FullText)
	require.Len(t, doc.Segments, 1)
	requireConcatenation(t, doc)
}

func TestExtract_RTF_NotRTF(t *testing.T) {
	doc, err := extract(t, "a.rtf", []byte("just text"), entities.FormatRTF)
	require.NoError(t, err)
	assert.Equal(t, "just text", doc.FullText)
}

func TestExtract_InvalidEncoding(t *testing.T) {
	latin1 := []byte("caf\xe9")
	for _, format := range []entities.Format{entities.FormatTXT, entities.FormatHTML, entities.FormatRTF} {
		t.Run(string(format), func(t *testing.T) {
			_, err := extract(t, "a"+format.Extension(), latin1, format)
			assert.ErrorIs(t, err, errs.ErrEncoding)
		})
	}
}

func TestExtract_EmptyFiles(t *testing.T) {
	for _, format := range entities.SupportedFormats() {
		t.Run(string(format), func(t *testing.T) {
			doc, err := extract(t, "empty"+format.Extension(), nil, format)
			require.NoError(t, err)
			assert.Empty(t, doc.FullText)
			if format.Paginated() {
				assert.Empty(t, doc.Segments)
			} else {
				assert.Equal(t, []entities.Segment{{PageNumber: 1, Text: ""}}, doc.Segments)
			}
		})
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := extract(t, "a.doc", []byte("x"), entities.Format("doc"))
	assert.True(t, errors.Is(err, errs.ErrUnsupportedFormat))
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewExtractor(nil, nil).Extract(context.Background(), "/nonexistent/file.txt", entities.FormatTXT)
	assert.Error(t, err)
}

type stubPages struct {
	pages []string
	err   error
	calls int
}

func (s *stubPages) ParsePages(ctx context.Context, data []byte) ([]string, error) {
	s.calls++
	return s.pages, s.err
}

func TestExtract_PDF_UsesPageParser(t *testing.T) {
	stub := &stubPages{pages: []string{"remote one", "remote two"}}
	ex := NewExtractor(stub, nil)

	doc, err := ex.Extract(context.Background(), writeFile(t, "a.pdf", []byte("%PDF")), entities.FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "remote oneremote two", doc.FullText)
	assert.Equal(t, 2, doc.PageCount())
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractor(nil, nil).Extract(ctx, writeFile(t, "a.txt", []byte("x")), entities.FormatTXT)
	assert.ErrorIs(t, err, context.Canceled)
}
