package xmldoc

// RootKind classifies the root element of an input file.
type RootKind string

const (
	// RootChapter is a single-chapter file.
	RootChapter RootKind = "chapter"
	// RootBook is a whole-book file (book, textbook, or a generic wrapper
	// root holding chapter children).
	RootBook RootKind = "book"
	// RootSections is a batch file of sections routed to existing topics.
	RootSections RootKind = "sections"
	// RootUnknown is anything else; callers treat it as a single chapter.
	RootUnknown RootKind = "unknown"
)

// DetectRoot classifies the document root. Wrapper roots that contain
// chapter children count as books even when the tag is unrecognized.
func DetectRoot(root *Element) RootKind {
	if root == nil {
		return RootUnknown
	}
	switch root.Tag {
	case "chapter":
		return RootChapter
	case "book", "textbook":
		return RootBook
	case "sections":
		return RootSections
	case "root":
		return RootBook
	}
	if len(root.ChildrenByTag("chapter")) > 0 {
		return RootBook
	}
	return RootUnknown
}
