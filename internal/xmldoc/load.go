package xmldoc

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Document is a parsed XML file.
type Document struct {
	Root       *Element
	SourcePath string
	// Recovered is true when parsing hit a fatal error mid-stream and the
	// tree holds only the content seen up to that point.
	Recovered bool
}

// Load parses the file strictly. Raw ampersands that are not part of an
// entity reference are repaired before parsing, since authored content
// frequently contains bare "&" in prose and formulas.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	root, err := parse(RepairAmpersands(string(data)), false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Document{Root: root, SourcePath: path}, nil
}

// LoadRecover parses the file, tolerating a truncated or malformed tail.
// The returned document contains everything successfully parsed before the
// first fatal error; Recovered reports whether anything was dropped.
// An error is returned only when not even the root element could be read.
func LoadRecover(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	root, err := parse(RepairAmpersands(string(data)), true)
	if root == nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Document{Root: root, SourcePath: path, Recovered: err != nil}, nil
}

// Parse parses XML from a string (used by tests and the sections-batch path).
func Parse(content string) (*Element, error) {
	return parse(RepairAmpersands(content), false)
}

// parse builds the element tree from a token stream. When recover is true,
// the partial tree is returned alongside the decode error instead of nil.
func parse(content string, recoverPartial bool) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Trailing junk after a completed root element is harmless.
			if root != nil && len(stack) == 0 {
				return root, nil
			}
			if recoverPartial && root != nil {
				return root, err
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Tag:   t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					// Content after the first root element is ignored,
					// matching recovery semantics.
					return root, nil
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if len(cur.Children) == 0 {
				cur.Text += string(t)
			} else {
				last := cur.Children[len(cur.Children)-1]
				last.Tail += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element found")
	}
	return root, nil
}

// RepairAmpersands escapes bare "&" characters that do not begin a valid
// entity reference (&amp; &lt; &gt; &quot; &apos; &#123; &#x1F;).
func RepairAmpersands(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '&' {
			b.WriteByte(c)
			continue
		}
		if isEntityStart(s[i+1:]) {
			b.WriteByte(c)
			continue
		}
		b.WriteString("&amp;")
	}
	return b.String()
}

// isEntityStart reports whether rest begins with a well-formed entity body
// (the part after "&"), terminated by a semicolon.
func isEntityStart(rest string) bool {
	semi := strings.IndexByte(rest, ';')
	if semi <= 0 || semi > 10 {
		return false
	}
	body := rest[:semi]

	switch body {
	case "amp", "lt", "gt", "quot", "apos":
		return true
	}

	if !strings.HasPrefix(body, "#") {
		return false
	}
	digits := body[1:]
	hex := false
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		hex = true
		digits = digits[1:]
	}
	if digits == "" {
		return false
	}
	for _, r := range digits {
		switch {
		case r >= '0' && r <= '9':
		case hex && ((r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')):
		default:
			return false
		}
	}
	return true
}
