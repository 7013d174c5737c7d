// Package xmldoc loads authored textbook XML into a navigable element tree.
//
// The tree keeps both the text that appears before an element's first child
// (Text) and the text that follows its end tag (Tail), so formatters can
// reassemble mixed content in document order.
package xmldoc

import "strings"

// Element is a single XML element with its attributes and children.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Text     string // character data before the first child
	Tail     string // character data after this element's end tag
	Children []*Element
}

// Attr returns the named attribute, or def when absent.
func (e *Element) Attr(name, def string) string {
	if e == nil {
		return def
	}
	if v, ok := e.Attrs[name]; ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present, even if empty.
func (e *Element) HasAttr(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.Attrs[name]
	return ok
}

// Child returns the first direct child with the given tag, or nil.
func (e *Element) Child(tag string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildText returns the trimmed text of the first direct child with the tag.
func (e *Element) ChildText(tag string) string {
	if c := e.Child(tag); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// ChildrenByTag returns all direct children with the given tag.
func (e *Element) ChildrenByTag(tag string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Iter returns this element and all descendants with the given tag in
// document order. An empty tag matches every element.
func (e *Element) Iter(tag string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		if tag == "" || n.Tag == tag {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// CollectText joins all text content of the subtree, in document order,
// with single spaces between fragments.
func (e *Element) CollectText() string {
	if e == nil {
		return ""
	}
	var parts []string
	var walk func(*Element)
	walk = func(n *Element) {
		if t := strings.TrimSpace(n.Text); t != "" {
			parts = append(parts, t)
		}
		for _, c := range n.Children {
			walk(c)
			if t := strings.TrimSpace(c.Tail); t != "" {
				parts = append(parts, t)
			}
		}
	}
	walk(e)
	return strings.Join(parts, " ")
}

// ChildTags returns the set of direct child tag names.
func (e *Element) ChildTags() map[string]bool {
	tags := make(map[string]bool)
	if e == nil {
		return tags
	}
	for _, c := range e.Children {
		tags[c.Tag] = true
	}
	return tags
}
