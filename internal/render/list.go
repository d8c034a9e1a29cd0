package render

import (
	"strings"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

// numberingStyles maps ordered list styles to numbering hints.
var numberingStyles = map[string]string{
	"arabic":     "1",
	"decimal":    "1",
	"loweralpha": "a",
	"upperalpha": "A",
	"lowerroman": "i",
	"upperroman": "I",
}

// listProcessor renders one of the three list containers. It is terminal:
// items go to the shared item processor, anything else back to the engine.
type listProcessor struct {
	ctx      *Context
	kind     doctree.Kind
	listType string
	items    Processor
}

func (p *listProcessor) Applies(n *doctree.Node) bool { return n.Kind == p.kind }
func (p *listProcessor) Terminal(*doctree.Node) bool  { return true }

func (p *listProcessor) Process(n *doctree.Node) error {
	if len(n.Children) == 0 {
		return nil
	}

	s := p.ctx.Sink
	attrs := sink.Attributes{sink.AttrType: p.listType}
	if p.kind == doctree.KindOrderedList {
		attrs[sink.AttrNumbering] = numbering(n.Attr("style"))
	}
	if strings.TrimSpace(n.Title) != "" {
		writeCaption(p.ctx, n.Title)
	}

	s.Open(sink.List, attrs)
	for _, item := range n.Children {
		if p.items != nil && p.items.Applies(item) {
			p.ctx.Apply(p.items, item)
			continue
		}
		p.ctx.Visit(item)
	}
	s.Close(sink.List)
	return nil
}

func numbering(style string) string {
	if n, ok := numberingStyles[strings.ToLower(strings.TrimSpace(style))]; ok {
		return n
	}
	return "1"
}

// ItemType classifies a list item by its marker: no marker is a description
// entry, a "*" or "-" prefix is unordered, any other marker is ordered.
func ItemType(marker string) string {
	m := strings.TrimSpace(marker)
	switch {
	case m == "":
		return sink.TypeDescription
	case strings.HasPrefix(m, "*"), strings.HasPrefix(m, "-"):
		return sink.TypeUnordered
	default:
		return sink.TypeOrdered
	}
}

// listItemProcessor renders a list item: its own text, then every nested
// block inside the item.
type listItemProcessor struct {
	ctx   *Context
	visit func(*doctree.Node)
}

func (p *listItemProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindListItem }
func (p *listItemProcessor) Terminal(*doctree.Node) bool  { return true }

func (p *listItemProcessor) Process(n *doctree.Node) error {
	s := p.ctx.Sink
	itemType := ItemType(n.Marker)
	s.Open(sink.ListItem, sink.Attributes{sink.AttrType: itemType})

	if itemType == sink.TypeDescription {
		s.Open(sink.Term, nil)
		s.Raw(n.Title)
		s.Close(sink.Term)
		s.Open(sink.Definition, nil)
		p.body(n)
		s.Close(sink.Definition)
	} else {
		p.body(n)
	}

	s.Close(sink.ListItem)
	return nil
}

func (p *listItemProcessor) body(n *doctree.Node) {
	if n.Content != "" {
		p.ctx.Sink.Raw(n.Content)
	}
	for _, c := range n.Children {
		p.visit(c)
	}
}
