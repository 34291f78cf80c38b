package entities

import (
	"errors"
	"testing"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

func TestFormatFromFilename(t *testing.T) {
	cases := map[string]Format{
		"report.pdf":   FormatPDF,
		"Report.PDF":   FormatPDF,
		"notes.docx":   FormatDOCX,
		"page.html":    FormatHTML,
		"page.htm":     FormatHTML,
		"a.b.c.txt":    FormatTXT,
		"letter.rtf":   FormatRTF,
	}
	for name, want := range cases {
		got, err := FormatFromFilename(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestFormatFromFilename_Unsupported(t *testing.T) {
	for _, name := range []string{"legacy.doc", "sheet.xlsx", "README", "archive.tar.gz"} {
		_, err := FormatFromFilename(name)
		if !errors.Is(err, errs.ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestFromPages_NumbersFromOne(t *testing.T) {
	doc := FromPages(FormatPDF, []string{"Hello", "World", ""})

	if doc.PageCount() != 3 {
		t.Fatalf("expected 3 segments, got %d", doc.PageCount())
	}
	for i, seg := range doc.Segments {
		if seg.PageNumber != i+1 {
			t.Errorf("segment %d numbered %d", i, seg.PageNumber)
		}
	}
	if doc.FullText != "HelloWorld" {
		t.Errorf("unexpected full text: %q", doc.FullText)
	}
}

func TestFromPages_Empty(t *testing.T) {
	doc := FromPages(FormatPDF, nil)
	if doc.FullText != "" || len(doc.Segments) != 0 {
		t.Error("zero pages should give empty text and no segments")
	}
}

func TestSinglePage(t *testing.T) {
	doc := SinglePage(FormatTXT, "foo bar")

	if len(doc.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(doc.Segments))
	}
	if doc.Segments[0] != (Segment{PageNumber: 1, Text: "foo bar"}) {
		t.Errorf("unexpected segment: %+v", doc.Segments[0])
	}
}

func TestFormat_Paginated(t *testing.T) {
	for _, f := range SupportedFormats() {
		if f.Paginated() != (f == FormatPDF) {
			t.Errorf("%s: wrong pagination flag", f)
		}
	}
	if FormatRTF.Extension() != ".rtf" {
		t.Error("extension should carry leading dot")
	}
}
