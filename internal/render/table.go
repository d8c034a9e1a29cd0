package render

import (
	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

type tableProcessor struct {
	ctx *Context
}

func (p *tableProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindTable }
func (p *tableProcessor) Terminal(*doctree.Node) bool  { return true }

// Process writes the table. Header row groups are flattened into a single
// header row. A table without rows is still opened and closed, but gets no
// caption.
func (p *tableProcessor) Process(n *doctree.Node) error {
	s := p.ctx.Sink

	attrs := sink.Attributes{sink.AttrJustify: p.ctx.Options.TableJustify}
	if j := n.Attr("justify"); j != "" {
		attrs[sink.AttrJustify] = j
	}
	switch n.Attr("grid") {
	case "all", "rows", "cols", "true":
		attrs[sink.AttrGrid] = "true"
	}
	s.Open(sink.Table, attrs)

	t := n.Table
	if t == nil || (len(t.Header) == 0 && len(t.Body) == 0) {
		s.Close(sink.Table)
		return nil
	}

	if len(t.Header) > 0 {
		s.Open(sink.TableRow, nil)
		for _, row := range t.Header {
			for _, cell := range row.Cells {
				s.Open(sink.TableHeaderCell, nil)
				s.Raw(cell.Text)
				s.Close(sink.TableHeaderCell)
			}
		}
		s.Close(sink.TableRow)
	}
	for _, row := range t.Body {
		s.Open(sink.TableRow, nil)
		for _, cell := range row.Cells {
			s.Open(sink.TableCell, nil)
			s.Raw(cell.Text)
			s.Close(sink.TableCell)
		}
		s.Close(sink.TableRow)
	}

	if caption := captionText(n); caption != "" {
		s.Open(sink.TableCaption, sink.Attributes{sink.AttrStyle: p.ctx.Options.CaptionStyle + " text-align: left;"})
		s.Text(caption)
		s.Close(sink.TableCaption)
	}

	s.Close(sink.Table)
	return nil
}
