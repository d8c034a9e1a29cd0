package parser

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docsink/internal/doctree"
)

// outline nests sections by heading level. Blocks are appended to the
// innermost open section, or to the document before the first heading.
type outline struct {
	doc      *doctree.Node
	sections []*doctree.Node
	ids      map[string]int
	counters []int
	numbered bool
}

func newOutline(doc *doctree.Node) *outline {
	return &outline{
		doc:      doc,
		ids:      make(map[string]int),
		numbered: doc.Attributes.Bool("sectnums"),
	}
}

// heading opens a section for a source heading of the given level (1 for
// the top heading). Top headings become level 0 sections.
func (o *outline) heading(level int, title, plain, id string, pos *doctree.Position) *doctree.Node {
	if level < 1 {
		level = 1
	}
	for len(o.sections) > 0 && o.sections[len(o.sections)-1].Level >= level-1 {
		o.sections = o.sections[:len(o.sections)-1]
	}

	sec := &doctree.Node{
		Kind:       doctree.KindSection,
		Name:       "section",
		Level:      level - 1,
		Title:      title,
		Attributes: doctree.Attributes{},
		Pos:        pos,
	}
	if id == "" {
		id = slug(plain)
	}
	sec.Attributes["id"] = o.uniqueID(id)
	if o.numbered && sec.Level > 0 {
		sec.Attributes["sectnum"] = o.sectnum(sec.Level)
	}

	o.add(sec)
	o.sections = append(o.sections, sec)
	return sec
}

// add appends n to the innermost open section.
func (o *outline) add(n *doctree.Node) {
	if n == nil {
		return
	}
	parent := o.doc
	if len(o.sections) > 0 {
		parent = o.sections[len(o.sections)-1]
	}
	parent.Children = append(parent.Children, n)
}

// sectnum advances the counter for level and returns the number, e.g. "2.1.".
func (o *outline) sectnum(level int) string {
	for len(o.counters) < level {
		o.counters = append(o.counters, 0)
	}
	o.counters = o.counters[:level]
	o.counters[level-1]++

	var b strings.Builder
	for _, c := range o.counters {
		b.WriteString(strconv.Itoa(c))
		b.WriteByte('.')
	}
	return b.String()
}

func (o *outline) uniqueID(id string) string {
	n := o.ids[id]
	o.ids[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "_" + strconv.Itoa(n+1)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slug derives a section id from its plain title: "Übersicht & Setup"
// becomes "_ubersicht_setup".
func slug(title string) string {
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.WriteByte('_')
	sep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 1 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	return b.String()
}

// lineIndex maps byte offsets of a source to 1-based line numbers.
type lineIndex struct {
	starts []int
	base   int
}

// newLineIndex indexes src, whose first byte is on line firstLine.
func newLineIndex(src []byte, firstLine int) lineIndex {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts, base: firstLine - 1}
}

// line returns the line holding offset.
func (li lineIndex) line(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) + li.base
}
