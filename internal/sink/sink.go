// Package sink defines the append-only output interface the renderer writes
// structural events to, plus two implementations: an in-memory Recorder and
// an HTML writer.
//
// Call order is the whole observable output. Sinks never reorder events.
package sink

import (
	"fmt"
	"sort"
	"strings"
)

// Element names a structural element opened and closed on a Sink.
type Element int

const (
	Head Element = iota + 1
	Title
	Author
	Date
	DocumentTitle
	SectionTitle
	Anchor
	Paragraph
	List
	ListItem
	Term
	Definition
	Table
	TableRow
	TableHeaderCell
	TableCell
	TableCaption
	Verbatim
	Division
)

var elementNames = map[Element]string{
	Head:            "head",
	Title:           "title",
	Author:          "author",
	Date:            "date",
	DocumentTitle:   "document-title",
	SectionTitle:    "section-title",
	Anchor:          "anchor",
	Paragraph:       "paragraph",
	List:            "list",
	ListItem:        "list-item",
	Term:            "term",
	Definition:      "definition",
	Table:           "table",
	TableRow:        "table-row",
	TableHeaderCell: "table-header-cell",
	TableCell:       "table-cell",
	TableCaption:    "table-caption",
	Verbatim:        "verbatim",
	Division:        "division",
}

func (e Element) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Element(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Element) UnmarshalText(text []byte) error {
	for el, name := range elementNames {
		if name == string(text) {
			*e = el
			return nil
		}
	}
	return fmt.Errorf("unknown element %q", text)
}

// Attribute keys understood by the sinks in this package.
const (
	AttrLevel     = "level"     // heading level, "1".."6"
	AttrID        = "id"        // anchor id
	AttrType      = "type"      // list and list item type
	AttrNumbering = "numbering" // ordered list numbering style: 1 a A i I
	AttrJustify   = "justify"   // table-level justification hint
	AttrGrid      = "grid"      // table grid flag
	AttrSource    = "source"    // "true" when a verbatim block holds source code
	AttrLanguage  = "language"  // source language
	AttrClass     = "class"     // styling hint
	AttrStyle     = "style"     // inline style
)

// List and list item types.
const (
	TypeUnordered   = "unordered"
	TypeOrdered     = "ordered"
	TypeDescription = "description"
)

// Attributes are the hints attached to an Open call.
type Attributes map[string]string

// String renders the attributes sorted by key, e.g. "language=java, source=true".
func (a Attributes) String() string {
	if len(a) == 0 {
		return ""
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+a[k])
	}
	return strings.Join(parts, ", ")
}

// Sink receives the ordered structural events of one conversion pass.
type Sink interface {
	// Open begins an element. Every Open is matched by a Close of the same
	// element, properly nested.
	Open(el Element, attrs Attributes)
	Close(el Element)
	// Text writes plain text; the sink escapes it for its format.
	Text(s string)
	// Raw writes pre-rendered inline markup verbatim.
	Raw(markup string)
	// Image writes an image reference.
	Image(src, alt string)
}
