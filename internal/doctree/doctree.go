// Package doctree holds the parsed document tree consumed by the renderer.
//
// Trees are produced once per conversion pass by an upstream parser and are
// read-only afterwards: nothing in this module mutates or re-parents a Node
// while it is being rendered.
package doctree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the structural role of a Node.
type Kind int

const (
	// KindUnknown is the catch-all for node kinds the renderer has no
	// processor for. Unknown nodes are transparent: their children are still
	// rendered.
	KindUnknown Kind = iota
	KindDocument
	KindPreamble
	KindSection
	KindParagraph
	KindUnorderedList
	KindOrderedList
	KindDescriptionList
	KindListItem
	KindTable
	KindListing
	KindLiteral
	KindImage
	KindExample
)

var kindNames = map[Kind]string{
	KindDocument:        "document",
	KindPreamble:        "preamble",
	KindSection:         "section",
	KindParagraph:       "paragraph",
	KindUnorderedList:   "ulist",
	KindOrderedList:     "olist",
	KindDescriptionList: "dlist",
	KindListItem:        "list_item",
	KindTable:           "table",
	KindListing:         "listing",
	KindLiteral:         "literal",
	KindImage:           "image",
	KindExample:         "example",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// ParseKind maps a parser kind name to a Kind. Unrecognized names return
// KindUnknown; they are never an error.
func ParseKind(name string) Kind {
	return kindsByName[strings.ToLower(strings.TrimSpace(name))]
}

// String returns the parser-facing kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsList reports whether k is one of the three list containers.
func (k Kind) IsList() bool {
	return k == KindUnorderedList || k == KindOrderedList || k == KindDescriptionList
}

// Position is the source location a node was parsed from.
type Position struct {
	File string
	Line int // 1-based, 0 if unknown
}

// Node is one structural unit of a parsed document.
type Node struct {
	Kind Kind
	// Name is the kind string reported by the parser. It is kept for
	// diagnostics so unknown kinds can still be named.
	Name       string
	Level      int    // section depth, 0 = document title level
	Title      string // empty when absent
	Marker     string // list item bullet or number marker
	Attributes Attributes
	Content    string // inline markup already resolved by the parser
	Children   []*Node
	Table      *Table // set for KindTable
	Pos        *Position
}

// New returns a node for the given parser kind name.
func New(name string, children ...*Node) *Node {
	return &Node{Kind: ParseKind(name), Name: name, Children: children}
}

// KindName returns the parser kind string, falling back to the Kind name.
func (n *Node) KindName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Kind.String()
}

// Attr is shorthand for n.Attributes.Str(key) that tolerates nil nodes.
func (n *Node) Attr(key string) string {
	if n == nil {
		return ""
	}
	return n.Attributes.Str(key)
}

// Describe returns a short human-readable label for log lines.
func (n *Node) Describe() string {
	if n.Title != "" {
		return fmt.Sprintf("%s %q", n.KindName(), n.Title)
	}
	return n.KindName()
}

// Table is the row payload of a table node.
type Table struct {
	Header []Row
	Body   []Row
}

// Row is a single table row.
type Row struct {
	Cells []Cell
}

// Cell holds pre-rendered cell text.
type Cell struct {
	Text string
}

// Attributes are the free-form node attributes set by the parser:
// language, style, numbering flags, image target, caption, and so on.
type Attributes map[string]any

// Has reports whether key is present, whatever its value.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Str returns the attribute as a string, or "" when absent.
func (a Attributes) Str(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Bool reports whether a flag attribute is set. Flags set without a value
// ("" in the parser's attribute syntax) count as true.
func (a Attributes) Bool(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if t == "" {
			return true
		}
		b, err := strconv.ParseBool(t)
		if err != nil {
			// Non-boolean strings such as "linenums" still mark the flag.
			return true
		}
		return b
	default:
		return true
	}
}

// Int returns the attribute as an int, or fallback when absent or not numeric.
func (a Attributes) Int(key string, fallback int) int {
	v, ok := a[key]
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case uint64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}

// Strings returns a list-valued attribute. A plain string becomes a single
// element list; comma-separated values are not split.
func (a Attributes) Strings(key string) []string {
	v, ok := a[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return []string{fmt.Sprint(t)}
	}
}

// Walk calls fn for n and every descendant in document order. Returning false
// from fn skips that node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
