package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"go.yaml.in/yaml/v4"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark, with GFM tables,
// definition lists and YAML front matter. Front matter keys become document
// attributes; "title" sets the document title and "sectnums" turns on
// section numbering.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string, rec diag.Recorder) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rec = recorderOrDiscard(rec)

	doc := newDocument(filename)
	meta, body, skipped := splitFrontMatter(src)
	if meta != nil {
		applyFrontMatter(doc, meta, rec, filename)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.DefinitionList))
	root := md.Parser().Parse(text.NewReader(body))

	b := &mdBuilder{
		md:    md,
		src:   body,
		file:  filename,
		rec:   rec,
		index: newLineIndex(body, skipped+1),
	}
	o := newOutline(doc)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			o.heading(h.Level, b.inline(h), b.plain(h), "", b.pos(h))
			continue
		}
		o.add(b.block(n))
	}
	return doc, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block. skipped
// is the number of lines removed from the top of the source.
func splitFrontMatter(src []byte) (meta, body []byte, skipped int) {
	if !bytes.HasPrefix(src, []byte("---\n")) && !bytes.HasPrefix(src, []byte("---\r\n")) {
		return nil, src, 0
	}
	rest := src[bytes.IndexByte(src, '\n')+1:]
	for off := 0; off < len(rest); {
		next := len(rest)
		line := rest[off:]
		if end := bytes.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
			next = off + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			body = rest[next:]
			return rest[:off], body, bytes.Count(src[:len(src)-len(body)], []byte("\n"))
		}
		off = next
	}
	return nil, src, 0
}

func applyFrontMatter(doc *doctree.Node, meta []byte, rec diag.Recorder, filename string) {
	var attrs map[string]any
	if err := yaml.Unmarshal(meta, &attrs); err != nil {
		diag.Warn(rec, &diag.Cursor{File: filename, Line: 1}, fmt.Sprintf("ignoring invalid front matter: %v", err))
		return
	}
	for k, v := range attrs {
		if k == "title" {
			doc.Title = fmt.Sprint(v)
			continue
		}
		doc.Attributes[k] = v
	}
}

type mdBuilder struct {
	md    goldmark.Markdown
	src   []byte
	file  string
	rec   diag.Recorder
	index lineIndex
}

func (b *mdBuilder) block(n ast.Node) *doctree.Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		if img := soleImage(n); img != nil {
			return b.image(img, n)
		}
		return &doctree.Node{Kind: doctree.KindParagraph, Name: "paragraph", Content: b.inline(n), Pos: b.pos(n)}
	case *ast.List:
		return b.list(n)
	case *ast.FencedCodeBlock:
		listing := &doctree.Node{Kind: doctree.KindListing, Name: "listing", Content: b.code(n), Pos: b.pos(n)}
		if lang := string(n.Language(b.src)); lang != "" {
			listing.Attributes = doctree.Attributes{"language": lang}
		}
		return listing
	case *ast.CodeBlock:
		return &doctree.Node{Kind: doctree.KindLiteral, Name: "literal", Content: b.code(n), Pos: b.pos(n)}
	case *ast.Blockquote:
		quote := &doctree.Node{Kind: doctree.KindUnknown, Name: "quote", Pos: b.pos(n)}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if child := b.block(c); child != nil {
				quote.Children = append(quote.Children, child)
			}
		}
		return quote
	case *extast.Table:
		return b.table(n)
	case *extast.DefinitionList:
		return b.definitions(n)
	case *ast.HTMLBlock:
		diag.Warn(b.rec, b.cursor(n), "raw HTML block skipped")
		return nil
	case *ast.ThematicBreak:
		return nil
	default:
		diag.Warn(b.rec, b.cursor(n), fmt.Sprintf("unsupported markdown block %s skipped", n.Kind()))
		return nil
	}
}

func soleImage(n ast.Node) *ast.Image {
	if n.ChildCount() != 1 {
		return nil
	}
	img, _ := n.FirstChild().(*ast.Image)
	return img
}

func (b *mdBuilder) image(img *ast.Image, block ast.Node) *doctree.Node {
	return &doctree.Node{
		Kind:  doctree.KindImage,
		Name:  "image",
		Title: string(img.Title),
		Attributes: doctree.Attributes{
			"target": string(img.Destination),
			"alt":    b.plain(img),
		},
		Pos: b.pos(block),
	}
}

func (b *mdBuilder) list(l *ast.List) *doctree.Node {
	n := &doctree.Node{Kind: doctree.KindUnorderedList, Name: "ulist", Pos: b.pos(l)}
	if l.IsOrdered() {
		n.Kind, n.Name = doctree.KindOrderedList, "olist"
		n.Attributes = doctree.Attributes{"style": "arabic"}
		if l.Start > 1 {
			n.Attributes["start"] = l.Start
		}
	}
	i := 0
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*ast.ListItem); !ok {
			continue
		}
		n.Children = append(n.Children, b.item(c, itemMarker(l, i)))
		i++
	}
	return n
}

// itemMarker returns the marker of the i-th item: "*" or "-" for bullets,
// "3." or "3)" for ordered items.
func itemMarker(l *ast.List, i int) string {
	if l.IsOrdered() {
		return strconv.Itoa(l.Start+i) + string(l.Marker)
	}
	if l.Marker == '+' {
		return "*"
	}
	return string(l.Marker)
}

// item builds a list item. The leading paragraph is the item text; any
// further blocks are nested children.
func (b *mdBuilder) item(li ast.Node, marker string) *doctree.Node {
	n := &doctree.Node{Kind: doctree.KindListItem, Name: "list_item", Marker: marker, Pos: b.pos(li)}
	c := li.FirstChild()
	if c != nil && (c.Kind() == ast.KindParagraph || c.Kind() == ast.KindTextBlock) {
		n.Content = b.inline(c)
		c = c.NextSibling()
	}
	for ; c != nil; c = c.NextSibling() {
		if child := b.block(c); child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func (b *mdBuilder) definitions(dl *extast.DefinitionList) *doctree.Node {
	n := &doctree.Node{Kind: doctree.KindDescriptionList, Name: "dlist", Pos: b.pos(dl)}
	var entry *doctree.Node
	for c := dl.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *extast.DefinitionTerm:
			entry = &doctree.Node{Kind: doctree.KindListItem, Name: "list_item", Title: b.inline(c), Pos: b.pos(c)}
			n.Children = append(n.Children, entry)
		case *extast.DefinitionDescription:
			if entry == nil {
				continue
			}
			d := b.item(c, "")
			if entry.Content == "" && len(entry.Children) == 0 {
				entry.Content, entry.Children = d.Content, d.Children
				continue
			}
			if d.Content != "" {
				entry.Children = append(entry.Children, &doctree.Node{Kind: doctree.KindParagraph, Name: "paragraph", Content: d.Content, Pos: d.Pos})
			}
			entry.Children = append(entry.Children, d.Children...)
		}
	}
	return n
}

func (b *mdBuilder) table(t *extast.Table) *doctree.Node {
	n := &doctree.Node{Kind: doctree.KindTable, Name: "table", Table: &doctree.Table{}, Pos: b.pos(t)}
	if len(t.Alignments) > 0 {
		if j := justify(t.Alignments[0]); j != "" {
			n.Attributes = doctree.Attributes{"justify": j}
		}
	}
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var row doctree.Row
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row.Cells = append(row.Cells, doctree.Cell{Text: b.inline(cell)})
		}
		if _, ok := r.(*extast.TableHeader); ok {
			n.Table.Header = append(n.Table.Header, row)
		} else {
			n.Table.Body = append(n.Table.Body, row)
		}
	}
	return n
}

func justify(a extast.Alignment) string {
	switch a {
	case extast.AlignLeft:
		return "left"
	case extast.AlignRight:
		return "right"
	case extast.AlignCenter:
		return "center"
	}
	return ""
}

// inline renders the inline children of n to HTML.
func (b *mdBuilder) inline(n ast.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := b.md.Renderer().Render(&buf, b.src, c); err != nil {
			diag.Warn(b.rec, b.cursor(n), fmt.Sprintf("could not render inline markup: %v", err))
		}
	}
	return strings.TrimSpace(buf.String())
}

// plain returns the text of n without markup.
func (b *mdBuilder) plain(n ast.Node) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(b.src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// code returns the raw lines of a code block.
func (b *mdBuilder) code(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (b *mdBuilder) pos(n ast.Node) *doctree.Position {
	line := 0
	if off := firstOffset(n); off >= 0 {
		line = b.index.line(off)
	}
	return &doctree.Position{File: b.file, Line: line}
}

func (b *mdBuilder) cursor(n ast.Node) *diag.Cursor {
	p := b.pos(n)
	return &diag.Cursor{File: p.File, Line: p.Line}
}

// firstOffset finds the source offset of the first byte of n, or -1.
func firstOffset(n ast.Node) int {
	if f, ok := n.(*ast.FencedCodeBlock); ok && f.Info != nil {
		return f.Info.Segment.Start
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := firstOffset(c); off >= 0 {
			return off
		}
	}
	return -1
}
