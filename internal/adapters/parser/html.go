package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

// hidden elements contribute no text.
var hidden = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Title:    true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
}

// paragraph elements are separated by a blank line, block elements by a newline.
var paragraph = map[atom.Atom]bool{
	atom.P: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Blockquote: true, atom.Pre: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Hr: true,
}

var block = map[atom.Atom]bool{
	atom.Div: true, atom.Section: true, atom.Article: true, atom.Header: true,
	atom.Footer: true, atom.Nav: true, atom.Aside: true, atom.Main: true,
	atom.Tr: true, atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Form: true,
	atom.Figure: true, atom.Figcaption: true, atom.Address: true, atom.Fieldset: true,
}

// htmlToText renders markup as plain text in reading order.
func htmlToText(data []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(data))
	w := &textWriter{}
	skip, pre := 0, 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.TrimSpace(w.sb.String()), nil
			}
			return "", fmt.Errorf("tokenizing html: %v: %w", z.Err(), errs.ErrExtraction)

		case html.TextToken:
			if skip > 0 {
				continue
			}
			if pre > 0 {
				w.raw(string(z.Text()))
			} else {
				w.inline(string(z.Text()))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case tag == atom.Body:
				// an unclosed <head> ends here
				skip = 0
			case hidden[tag]:
				if tt == html.StartTagToken {
					skip++
				}
			case skip > 0:
			case tag == atom.Br:
				w.lineBreak()
			case tag == atom.Li:
				w.breaks(1)
				w.raw("* ")
			case tag == atom.Td || tag == atom.Th:
				w.space = true
			case paragraph[tag]:
				w.breaks(2)
				if tag == atom.Pre && tt == html.StartTagToken {
					pre++
				}
			case block[tag]:
				w.breaks(1)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case hidden[tag]:
				if skip > 0 {
					skip--
				}
			case skip > 0:
			case tag == atom.Li:
				w.breaks(1)
			case paragraph[tag]:
				if tag == atom.Pre && pre > 0 {
					pre--
				}
				w.breaks(2)
			case block[tag]:
				w.breaks(1)
			}
		}
	}
}

// textWriter collapses whitespace and caps consecutive newlines at two.
type textWriter struct {
	sb       strings.Builder
	newlines int
	space    bool
}

func (w *textWriter) inline(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			w.space = true
		}
		return
	}
	if r, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(r) {
		w.space = true
	}
	for i, f := range fields {
		if (i > 0 || w.space) && w.sb.Len() > 0 && w.newlines == 0 {
			w.sb.WriteByte(' ')
		}
		w.sb.WriteString(f)
		w.newlines = 0
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	w.space = unicode.IsSpace(r)
}

func (w *textWriter) raw(s string) {
	if s == "" {
		return
	}
	w.sb.WriteString(s)
	w.space = false
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		w.newlines += len(s)
	} else {
		w.newlines = len(s) - len(trimmed)
	}
}

func (w *textWriter) breaks(n int) {
	w.space = false
	if w.sb.Len() == 0 {
		return
	}
	for w.newlines < n {
		w.sb.WriteByte('\n')
		w.newlines++
	}
}

func (w *textWriter) lineBreak() {
	w.space = false
	if w.sb.Len() == 0 || w.newlines >= 2 {
		return
	}
	w.sb.WriteByte('\n')
	w.newlines++
}
