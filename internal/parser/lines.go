package parser

import (
	"bytes"
	"fmt"
	"strings"
)

// line is one logical source line: comments stripped, indentation measured,
// blank lines already dropped.
type line struct {
	num    int    // 1-based position in the file
	indent int    // leading spaces
	text   string // content without indentation or trailing space
}

// head returns the first whitespace-delimited word of the line.
func (l line) head() string {
	if i := strings.IndexByte(l.text, ' '); i >= 0 {
		return l.text[:i]
	}
	return l.text
}

// splitLines breaks source text into logical lines. `;` starts a comment
// that runs to the end of the line. Tabs in indentation are rejected so
// that indent depth stays comparable across lines.
func splitLines(path string, src []byte) ([]line, error) {
	var out []line
	num := 0
	for len(src) > 0 {
		num++
		raw := src
		if i := bytes.IndexByte(src, '\n'); i >= 0 {
			raw = src[:i]
			src = src[i+1:]
		} else {
			src = nil
		}
		text := string(raw)
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = text[:i]
		}
		indent := 0
		for indent < len(text) && text[indent] == ' ' {
			indent++
		}
		body := strings.TrimRight(text[indent:], " \t\r")
		if body == "" {
			continue
		}
		if body[0] == '\t' {
			return nil, fmt.Errorf("%s:%d: tab in indentation; use spaces", path, num)
		}
		out = append(out, line{num: num, indent: indent, text: body})
	}
	return out, nil
}
