package render

import (
	"strings"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

// UntitledTitle is the head title written for documents without one.
const UntitledTitle = "[Untitled]"

type documentProcessor struct {
	ctx *Context
}

func (p *documentProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindDocument }
func (p *documentProcessor) Terminal(*doctree.Node) bool  { return false }

func (p *documentProcessor) Process(n *doctree.Node) error {
	if p.ctx.doc == nil {
		p.ctx.doc = n
	}
	writeDocumentTitle(p.ctx.Sink, n.Title)
	return nil
}

// writeDocumentTitle renders the level 0 title. Blank titles emit nothing.
func writeDocumentTitle(s sink.Sink, title string) {
	if strings.TrimSpace(title) == "" {
		return
	}
	s.Open(sink.DocumentTitle, nil)
	s.Raw(title)
	s.Close(sink.DocumentTitle)
}

// preambleProcessor claims preamble nodes so they do not reach the
// fallback. The preamble itself emits nothing; its blocks are rendered as
// children.
type preambleProcessor struct{}

func (preambleProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindPreamble }
func (preambleProcessor) Terminal(*doctree.Node) bool  { return false }
func (preambleProcessor) Process(*doctree.Node) error  { return nil }

// HeaderMetadata is the document head: title, authors and date.
type HeaderMetadata struct {
	Title   string
	Authors []string
	Date    string
}

// HeaderFrom reads the head metadata of a document node. The title falls
// back to the "doctitle" attribute, authors come from "authors" falling back
// to "author", and the date from "revdate" falling back to "docdatetime".
func HeaderFrom(doc *doctree.Node) HeaderMetadata {
	if doc == nil {
		return HeaderMetadata{}
	}
	h := HeaderMetadata{Title: strings.TrimSpace(doc.Title)}
	if h.Title == "" {
		h.Title = strings.TrimSpace(doc.Attr("doctitle"))
	}
	h.Authors = doc.Attributes.Strings("authors")
	if len(h.Authors) == 0 {
		h.Authors = doc.Attributes.Strings("author")
	}
	h.Date = doc.Attr("revdate")
	if h.Date == "" {
		h.Date = doc.Attr("docdatetime")
	}
	return h
}

// WriteHead emits the document head.
func WriteHead(s sink.Sink, h HeaderMetadata) {
	s.Open(sink.Head, nil)

	title := h.Title
	if title == "" {
		title = UntitledTitle
	}
	// Titles are inline markup like every other title; authors and the
	// date are plain attribute values.
	s.Open(sink.Title, nil)
	s.Raw(title)
	s.Close(sink.Title)

	for _, a := range h.Authors {
		if strings.TrimSpace(a) == "" {
			continue
		}
		s.Open(sink.Author, nil)
		s.Text(a)
		s.Close(sink.Author)
	}
	if h.Date != "" {
		s.Open(sink.Date, nil)
		s.Text(h.Date)
		s.Close(sink.Date)
	}

	s.Close(sink.Head)
}
