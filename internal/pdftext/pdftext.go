// Package pdftext extracts plain text from PDF files.
//
// pdfcpu exposes decoded page content streams but no text API, so the
// text-showing operators (Tj, TJ, ' and ") are parsed out of each stream
// directly. Text using embedded CID font encodings may not decode to
// readable characters.
package pdftext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractFile extracts the text of every page and writes it to outputPath,
// one page per block separated by a blank line. It returns the page count.
func ExtractFile(pdfPath, outputPath string) (int, error) {
	text, pages, err := Extract(pdfPath)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		return pages, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return pages, nil
}

// Extract returns the concatenated page text of a PDF and its page count.
func Extract(pdfPath string) (string, int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return "", 0, fmt.Errorf("page count for %s: %w", pdfPath, err)
	}

	tmpDir, err := os.MkdirTemp("", "tome-pdftext-")
	if err != nil {
		return "", 0, err
	}
	defer os.RemoveAll(tmpDir)

	if err := api.ExtractContentFile(pdfPath, tmpDir, nil, nil); err != nil {
		return "", 0, fmt.Errorf("extracting content of %s: %w", pdfPath, err)
	}

	var b strings.Builder
	for page := 1; page <= pageCount; page++ {
		matches, err := filepath.Glob(filepath.Join(tmpDir, fmt.Sprintf("*page_%d.txt", page)))
		if err != nil || len(matches) == 0 {
			continue
		}
		content, err := os.ReadFile(matches[0])
		if err != nil {
			continue
		}
		b.WriteString(DecodePageText(content))
		b.WriteString("\n")
	}
	return b.String(), pageCount, nil
}

// DecodePageText pulls the shown text out of a decoded PDF content stream.
// String operands are buffered until an operator token decides whether they
// are displayed (Tj, TJ, ', ") or consumed by something else.
func DecodePageText(content []byte) string {
	var out strings.Builder
	var pending []string
	var op []byte

	flushOp := func() {
		if len(op) == 0 {
			return
		}
		switch string(op) {
		case "Tj", "TJ":
			for _, s := range pending {
				out.WriteString(s)
			}
		case "'", "\"":
			newline(&out)
			for _, s := range pending {
				out.WriteString(s)
			}
		case "Td", "TD", "T*", "ET":
			newline(&out)
		default:
			// Numeric tokens are operands (TJ kerning, positioning), not
			// operators; they must not discard buffered strings.
			if isNumeric(op) {
				op = op[:0]
				return
			}
		}
		pending = pending[:0]
		op = op[:0]
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '(':
			flushOp()
			s, next := parseLiteralString(content, i)
			pending = append(pending, s)
			i = next
		case c == '<':
			flushOp()
			if i+1 < len(content) && content[i+1] == '<' {
				i++ // dictionary open, not a string
				continue
			}
			s, next := parseHexString(content, i)
			pending = append(pending, s)
			i = next
		case c == '[' || c == ']':
			flushOp()
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '/':
			flushOp()
		default:
			op = append(op, c)
		}
	}
	flushOp()
	return out.String()
}

func newline(out *strings.Builder) {
	s := out.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		out.WriteString("\n")
	}
}

// parseLiteralString reads a (...) string starting at the open paren,
// honoring backslash escapes and balanced nested parens. It returns the
// decoded string and the index of the closing paren.
func parseLiteralString(content []byte, start int) (string, int) {
	var b strings.Builder
	depth := 1
	i := start + 1
	for ; i < len(content); i++ {
		c := content[i]
		if c == '\\' && i+1 < len(content) {
			i++
			switch content[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
				// backspace and form feed carry no text
			case '\n':
				// line continuation
			default:
				b.WriteByte(content[i])
			}
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				break
			}
		}
		b.WriteByte(c)
	}
	return b.String(), i
}

// parseHexString reads a <...> string starting at the open angle bracket,
// returning the decoded bytes and the index of the closing bracket.
func parseHexString(content []byte, start int) (string, int) {
	var digits []byte
	i := start + 1
	for ; i < len(content); i++ {
		c := content[i]
		if c == '>' {
			break
		}
		if isHexDigit(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	var b strings.Builder
	for j := 0; j+1 < len(digits); j += 2 {
		b.WriteByte(hexVal(digits[j])<<4 | hexVal(digits[j+1]))
	}
	return b.String(), i
}

func isNumeric(tok []byte) bool {
	if len(tok) == 0 {
		return false
	}
	for i, c := range tok {
		if c >= '0' && c <= '9' || c == '.' {
			continue
		}
		if i == 0 && (c == '-' || c == '+') {
			continue
		}
		return false
	}
	return true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
