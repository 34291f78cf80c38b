package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/errs"
)

const docxBody = "word/document.xml"

// docxToText returns every paragraph of the main document part in reading
// order, each followed by a newline.
func docxToText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx is not a zip archive: %v: %w", err, errs.ErrExtraction)
	}
	f := findZipFile(zr, docxBody)
	if f == nil {
		return "", fmt.Errorf("docx has no %s: %w", docxBody, errs.ErrExtraction)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %v: %w", docxBody, err, errs.ErrExtraction)
	}
	defer rc.Close()

	text, err := paragraphText(rc)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %v: %w", docxBody, err, errs.ErrExtraction)
	}
	return text, nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// paragraphText walks WordprocessingML. Paragraphs nested in text boxes or
// tables are emitted when they close, so each one lands on its own line.
func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out     strings.Builder
		paras   []*strings.Builder
		inText  bool
		inProps int
	)
	current := func() *strings.Builder {
		if len(paras) == 0 {
			return nil
		}
		return paras[len(paras)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				paras = append(paras, &strings.Builder{})
			case "pPr", "rPr":
				inProps++
			case "t":
				inText = true
			case "tab":
				if b := current(); b != nil && inProps == 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if b := current(); b != nil && inProps == 0 {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if b := current(); b != nil {
					paras = paras[:len(paras)-1]
					out.WriteString(b.String())
					out.WriteByte('\n')
				}
			case "pPr", "rPr":
				if inProps > 0 {
					inProps--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if b := current(); b != nil && inText {
				b.Write(t)
			}
		}
	}
	return out.String(), nil
}
