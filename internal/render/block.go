package render

import (
	"strings"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

// listingProcessor renders code listings. A listing is a source block when
// it has a language or the "source" style; otherwise it is plain
// preformatted text. Content is written as text and never re-highlighted.
type listingProcessor struct {
	ctx *Context
}

func (p *listingProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindListing }
func (p *listingProcessor) Terminal(*doctree.Node) bool  { return true }

func (p *listingProcessor) Process(n *doctree.Node) error {
	s := p.ctx.Sink
	language := strings.TrimSpace(n.Attr("language"))
	if language == "" && n.Attr("style") != "source" {
		s.Open(sink.Division, nil)
		if strings.TrimSpace(n.Title) != "" {
			writeCaption(p.ctx, n.Title)
		}
		s.Open(sink.Verbatim, nil)
		s.Text(n.Content)
		s.Close(sink.Verbatim)
		s.Close(sink.Division)
		return nil
	}

	class := p.ctx.Options.SourceClass
	if lineNumbers(n) {
		class += " linenums"
	}
	attrs := sink.Attributes{sink.AttrSource: "true", sink.AttrClass: class}
	if language != "" {
		attrs[sink.AttrLanguage] = language
	}

	s.Open(sink.Division, sink.Attributes{sink.AttrClass: "source"})
	if strings.TrimSpace(n.Title) != "" {
		writeCaption(p.ctx, n.Title)
	}
	s.Open(sink.Verbatim, attrs)
	s.Text(n.Content)
	s.Close(sink.Verbatim)
	s.Close(sink.Division)
	return nil
}

// lineNumbers honors both the "linenums" flag and the "linenums-option" key.
func lineNumbers(n *doctree.Node) bool {
	return n.Attributes.Bool("linenums") || n.Attributes.Has("linenums-option")
}

type literalProcessor struct {
	ctx *Context
}

func (p *literalProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindLiteral }
func (p *literalProcessor) Terminal(*doctree.Node) bool  { return true }

func (p *literalProcessor) Process(n *doctree.Node) error {
	s := p.ctx.Sink
	s.Open(sink.Division, nil)
	s.Open(sink.Verbatim, nil)
	s.Text(n.Content)
	s.Close(sink.Verbatim)
	s.Close(sink.Division)
	return nil
}

// exampleProcessor renders an example block: an optional caption and a
// styled division around its blocks.
type exampleProcessor struct {
	ctx *Context
}

func (p *exampleProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindExample }
func (p *exampleProcessor) Terminal(*doctree.Node) bool  { return true }

func (p *exampleProcessor) Process(n *doctree.Node) error {
	s := p.ctx.Sink
	s.Open(sink.Division, nil)
	if caption := captionText(n); caption != "" {
		s.Open(sink.Division, sink.Attributes{sink.AttrStyle: p.ctx.Options.CaptionStyle})
		s.Text(caption)
		s.Close(sink.Division)
	}
	if len(n.Children) > 0 {
		s.Open(sink.Division, sink.Attributes{sink.AttrStyle: p.ctx.Options.ExampleStyle})
		for _, c := range n.Children {
			p.ctx.Visit(c)
		}
		s.Close(sink.Division)
	}
	s.Close(sink.Division)
	return nil
}
