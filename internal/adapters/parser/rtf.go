package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// destinations whose content is not document text.
var rtfDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "objdata": true, "fldinst": true,
	"header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
	"footnote": true, "listtable": true, "listoverridetable": true,
	"rsidtbl": true, "generator": true, "xmlnstbl": true, "themedata": true,
	"colorschememapping": true, "datastore": true, "latentstyles": true,
	"filetbl": true, "revtbl": true, "pgdsctbl": true, "bkmkstart": true,
	"bkmkend": true, "mmathPr": true, "private": true, "userprops": true,
}

var rtfSymbols = map[string]rune{
	"par": '\n', "line": '\n', "sect": '\n', "page": '\n', "row": '\n',
	"tab": '\t', "cell": '\t',
	"emdash": '\u2014', "endash": '\u2013', "bullet": '\u2022',
	"lquote": '\u2018', "rquote": '\u2019', "ldblquote": '\u201c', "rdblquote": '\u201d',
	"emspace": ' ', "enspace": ' ', "qmspace": ' ',
}

type rtfGroup struct {
	skip bool
	uc   int
}

// rtfToText keeps document text and drops control words and destination
// groups. Input that is not RTF is returned as plain text.
func rtfToText(data []byte) string {
	s := string(data)
	body := strings.TrimLeft(s, " \t\r\n\ufeff")
	if !strings.HasPrefix(body, `{\rtf`) {
		return plainText(data)
	}

	var (
		out      strings.Builder
		stack    []rtfGroup
		cur      = rtfGroup{uc: 1}
		skipNext int
	)
	emit := func(r rune) {
		if skipNext > 0 {
			skipNext--
			return
		}
		if !cur.skip {
			out.WriteRune(r)
		}
	}

	for i := 0; i < len(body); {
		c := body[i]
		switch c {
		case '{':
			stack = append(stack, cur)
			skipNext = 0
			i++
		case '}':
			if len(stack) > 0 {
				cur = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
			skipNext = 0
			i++
		case '\r', '\n':
			i++
		case '\\':
			i++
			if i >= len(body) {
				break
			}
			n := body[i]
			switch {
			case isASCIILetter(n):
				start := i
				for i < len(body) && isASCIILetter(body[i]) {
					i++
				}
				word := body[start:i]
				pstart := i
				if i < len(body) && body[i] == '-' {
					i++
				}
				for i < len(body) && body[i] >= '0' && body[i] <= '9' {
					i++
				}
				param, hasParam := 0, false
				if i > pstart {
					if v, err := strconv.Atoi(body[pstart:i]); err == nil {
						param, hasParam = v, true
					}
				}
				if i < len(body) && body[i] == ' ' {
					i++
				}
				switch {
				case rtfDestinations[word]:
					cur.skip = true
				case word == "u" && hasParam:
					if param < 0 {
						param += 65536
					}
					emit(rune(param))
					skipNext = cur.uc
				case word == "uc" && hasParam:
					cur.uc = param
				case word == "bin" && hasParam:
					i += param
				default:
					if r, ok := rtfSymbols[word]; ok {
						emit(r)
					}
				}
			case n == '\'':
				if i+2 < len(body) {
					if v, err := strconv.ParseUint(body[i+1:i+3], 16, 8); err == nil {
						emit(charmap.Windows1252.DecodeByte(byte(v)))
					}
				}
				i += 3
			case n == '*':
				cur.skip = true
				i++
			case n == '~':
				emit(' ')
				i++
			case n == '_':
				emit('-')
				i++
			case n == '\\' || n == '{' || n == '}':
				emit(rune(n))
				i++
			case n == '\r' || n == '\n':
				emit('\n')
				i++
			default:
				// \- optional hyphen, \| and others
				i++
			}
		default:
			r, size := utf8.DecodeRuneInString(body[i:])
			emit(r)
			i += size
		}
	}
	return strings.TrimSpace(out.String())
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
