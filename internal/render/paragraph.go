package render

import (
	"strings"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

type paragraphProcessor struct {
	ctx *Context
}

func (p *paragraphProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindParagraph }
func (p *paragraphProcessor) Terminal(*doctree.Node) bool  { return false }

func (p *paragraphProcessor) Process(n *doctree.Node) error {
	s := p.ctx.Sink
	if strings.TrimSpace(n.Title) != "" {
		writeCaption(p.ctx, n.Title)
	}
	s.Open(sink.Paragraph, nil)
	s.Raw(n.Content)
	s.Close(sink.Paragraph)
	return nil
}

// writeCaption emits a caption division holding pre-rendered markup.
func writeCaption(c *Context, caption string) {
	c.Sink.Open(sink.Division, sink.Attributes{sink.AttrStyle: c.Options.CaptionStyle})
	c.Sink.Raw(caption)
	c.Sink.Close(sink.Division)
}

// captionText joins the caption label (for example "Table 1.") and the
// title. It is empty when the title is blank.
func captionText(n *doctree.Node) string {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return ""
	}
	label := strings.TrimSpace(n.Attr("caption"))
	if label == "" {
		return title
	}
	return label + " " + title
}
