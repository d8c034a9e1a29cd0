package render

import (
	"strconv"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

type sectionProcessor struct {
	ctx *Context
}

func (p *sectionProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindSection }
func (p *sectionProcessor) Terminal(*doctree.Node) bool  { return false }

func (p *sectionProcessor) Process(n *doctree.Node) error {
	title := p.formatTitle(n)
	if n.Level <= 0 {
		writeDocumentTitle(p.ctx.Sink, title)
		return nil
	}

	level := n.Level + 1
	if maxLevel := p.ctx.Options.MaxSectionLevel; level > maxLevel {
		p.ctx.Log.Debug("section level clamped", "level", level, "max", maxLevel, "title", n.Title)
		level = maxLevel
	}

	s := p.ctx.Sink
	if id := n.Attr("id"); id != "" {
		s.Open(sink.Anchor, sink.Attributes{sink.AttrID: id})
		s.Close(sink.Anchor)
	}
	s.Open(sink.SectionTitle, sink.Attributes{sink.AttrLevel: strconv.Itoa(level)})
	s.Raw(title)
	s.Close(sink.SectionTitle)
	return nil
}

// formatTitle prefixes the precomputed section number when numbering is on
// for the section and its level is within the numbered levels.
func (p *sectionProcessor) formatTitle(n *doctree.Node) string {
	sectnum := n.Attr("sectnum")
	if sectnum == "" || !p.numbered(n) {
		return n.Title
	}
	if n.Level > p.numLevels() {
		return n.Title
	}
	return sectnum + " " + n.Title
}

func (p *sectionProcessor) numbered(n *doctree.Node) bool {
	if n.Attributes.Has("numbered") {
		return n.Attributes.Bool("numbered")
	}
	doc := p.ctx.Document()
	return doc != nil && doc.Attributes.Bool("sectnums")
}

func (p *sectionProcessor) numLevels() int {
	if doc := p.ctx.Document(); doc != nil {
		return doc.Attributes.Int("sectnumlevels", p.ctx.Options.SectionNumLevels)
	}
	return p.ctx.Options.SectionNumLevels
}
