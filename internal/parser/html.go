package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
)

// HTMLParser handles HTML files. Headings open sections; paragraphs,
// lists, tables, preformatted blocks and images map to their node kinds.
// Wrapper elements are flattened.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string, rec diag.Recorder) (*doctree.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := newDocument(filename)
	// The <title> only feeds the document head.
	if title := findElement(root, atom.Title); title != nil {
		if t := textContent(title); t != "" {
			doc.Attributes["doctitle"] = t
		}
	}
	for _, m := range findAll(root, atom.Meta) {
		switch name := attrOf(m, "name"); name {
		case "author", "date":
			key := name
			if key == "date" {
				key = "revdate"
			}
			doc.Attributes[key] = attrOf(m, "content")
		}
	}

	b := &htmlBuilder{file: filename, rec: recorderOrDiscard(rec), outline: newOutline(doc)}
	body := findElement(root, atom.Body)
	if body == nil {
		body = root
	}
	b.walk(body)
	return doc, nil
}

type htmlBuilder struct {
	file    string
	rec     diag.Recorder
	outline *outline
}

// walk adds the block content below n to the outline.
func (b *htmlBuilder) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if level := headingLevel(c.DataAtom); level > 0 {
			b.outline.heading(level, innerHTML(c), textContent(c), attrOf(c, "id"), b.pos(c))
			continue
		}
		if isWrapper(c) {
			b.walk(c)
			continue
		}
		b.outline.add(b.block(c))
	}
}

// blocks converts the children of n into nodes.
func (b *htmlBuilder) blocks(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isWrapper(c) {
			out = append(out, b.blocks(c)...)
			continue
		}
		if child := b.block(c); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (b *htmlBuilder) block(n *html.Node) *doctree.Node {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			return b.paragraph(html.EscapeString(t))
		}
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Noscript, atom.Template:
		return nil
	case atom.P:
		if img := soleElement(n, atom.Img); img != nil {
			return b.image(img, nil)
		}
		return b.paragraph(innerHTML(n))
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		// Headings nested in blocks do not open sections.
		return b.paragraph(innerHTML(n))
	case atom.Ul:
		return b.list(n, doctree.KindUnorderedList, "ulist")
	case atom.Ol:
		return b.list(n, doctree.KindOrderedList, "olist")
	case atom.Dl:
		return b.definitions(n)
	case atom.Table:
		return b.table(n)
	case atom.Pre:
		return b.pre(n)
	case atom.Img:
		return b.image(n, nil)
	case atom.Figure:
		img := findElement(n, atom.Img)
		if img == nil {
			return b.group(n, "figure")
		}
		return b.image(img, findElement(n, atom.Figcaption))
	case atom.Blockquote:
		return b.group(n, "quote")
	case atom.Hr, atom.Br:
		return nil
	case atom.Iframe, atom.Object, atom.Embed, atom.Form, atom.Canvas, atom.Svg:
		diag.Warn(b.rec, b.cursor(), fmt.Sprintf("unsupported element <%s> skipped", n.Data))
		return nil
	default:
		// Inline elements at block level read as a paragraph.
		if innerHTML(n) != "" {
			return b.paragraph(renderNode(n))
		}
		return nil
	}
}

func (b *htmlBuilder) paragraph(content string) *doctree.Node {
	return &doctree.Node{Kind: doctree.KindParagraph, Name: "paragraph", Content: strings.TrimSpace(content), Pos: b.pos(nil)}
}

// group keeps an element the renderer has no processor for as an unknown
// node around its blocks.
func (b *htmlBuilder) group(n *html.Node, name string) *doctree.Node {
	return &doctree.Node{Kind: doctree.KindUnknown, Name: name, Children: b.blocks(n), Pos: b.pos(n)}
}

func (b *htmlBuilder) list(n *html.Node, kind doctree.Kind, name string) *doctree.Node {
	list := &doctree.Node{Kind: kind, Name: name, Pos: b.pos(n)}
	if kind == doctree.KindOrderedList {
		list.Attributes = doctree.Attributes{"style": orderedStyle(attrOf(n, "type"))}
	}
	i := 1
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.DataAtom != atom.Li {
			continue
		}
		marker := "*"
		if kind == doctree.KindOrderedList {
			marker = fmt.Sprintf("%d.", i)
		}
		list.Children = append(list.Children, b.item(li, marker))
		i++
	}
	return list
}

func orderedStyle(typ string) string {
	switch typ {
	case "a":
		return "loweralpha"
	case "A":
		return "upperalpha"
	case "i":
		return "lowerroman"
	case "I":
		return "upperroman"
	}
	return "arabic"
}

// item splits an item into its inline text and nested blocks.
func (b *htmlBuilder) item(n *html.Node, marker string) *doctree.Node {
	item := &doctree.Node{Kind: doctree.KindListItem, Name: "list_item", Marker: marker, Pos: b.pos(n)}
	var text bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) {
			if child := b.block(c); child != nil {
				item.Children = append(item.Children, child)
			}
			continue
		}
		text.WriteString(renderNode(c))
	}
	item.Content = strings.TrimSpace(text.String())
	return item
}

func (b *htmlBuilder) definitions(n *html.Node) *doctree.Node {
	list := &doctree.Node{Kind: doctree.KindDescriptionList, Name: "dlist", Pos: b.pos(n)}
	var entry *doctree.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.DataAtom {
			case atom.Dt:
				entry = &doctree.Node{Kind: doctree.KindListItem, Name: "list_item", Title: innerHTML(c), Pos: b.pos(c)}
				list.Children = append(list.Children, entry)
			case atom.Dd:
				if entry == nil {
					continue
				}
				d := b.item(c, "")
				if entry.Content == "" {
					entry.Content = d.Content
				} else if d.Content != "" {
					entry.Children = append(entry.Children, b.paragraph(d.Content))
				}
				entry.Children = append(entry.Children, d.Children...)
			case atom.Div:
				visit(c)
			}
		}
	}
	visit(n)
	return list
}

func (b *htmlBuilder) table(n *html.Node) *doctree.Node {
	t := &doctree.Node{Kind: doctree.KindTable, Name: "table", Table: &doctree.Table{}, Pos: b.pos(n)}
	if c := findElement(n, atom.Caption); c != nil {
		t.Title = innerHTML(c)
	}
	hasHead := findElement(n, atom.Thead) != nil
	for i, tr := range findAll(n, atom.Tr) {
		header := tr.Parent != nil && tr.Parent.DataAtom == atom.Thead
		if !hasHead && i == 0 && allHeaderCells(tr) {
			header = true
		}
		var row doctree.Row
		for cell := tr.FirstChild; cell != nil; cell = cell.NextSibling {
			if cell.DataAtom == atom.Td || cell.DataAtom == atom.Th {
				row.Cells = append(row.Cells, doctree.Cell{Text: innerHTML(cell)})
			}
		}
		if header {
			t.Table.Header = append(t.Table.Header, row)
		} else {
			t.Table.Body = append(t.Table.Body, row)
		}
	}
	return t
}

func allHeaderCells(tr *html.Node) bool {
	th := 0
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		switch c.DataAtom {
		case atom.Td:
			return false
		case atom.Th:
			th++
		}
	}
	return th > 0
}

func (b *htmlBuilder) pre(n *html.Node) *doctree.Node {
	code := soleElement(n, atom.Code)
	if code == nil {
		return &doctree.Node{Kind: doctree.KindLiteral, Name: "literal", Content: rawText(n), Pos: b.pos(n)}
	}
	listing := &doctree.Node{Kind: doctree.KindListing, Name: "listing", Content: rawText(code), Pos: b.pos(n)}
	for _, class := range strings.Fields(attrOf(code, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
			listing.Attributes = doctree.Attributes{"language": lang}
			break
		}
	}
	return listing
}

func (b *htmlBuilder) image(img, caption *html.Node) *doctree.Node {
	n := &doctree.Node{
		Kind:       doctree.KindImage,
		Name:       "image",
		Attributes: doctree.Attributes{"target": attrOf(img, "src"), "alt": attrOf(img, "alt")},
		Pos:        b.pos(img),
	}
	if caption != nil {
		n.Title = innerHTML(caption)
	} else {
		n.Title = attrOf(img, "title")
	}
	return n
}

// pos has no line information: x/net/html does not track source lines.
func (b *htmlBuilder) pos(*html.Node) *doctree.Position {
	return &doctree.Position{File: b.file}
}

func (b *htmlBuilder) cursor() *diag.Cursor {
	return &diag.Cursor{File: b.file}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// isWrapper reports elements that only group blocks.
func isWrapper(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Aside, atom.Body:
		return true
	}
	return false
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Ul, atom.Ol, atom.Dl, atom.Table, atom.Pre, atom.Blockquote, atom.Figure, atom.Div:
		return true
	}
	return false
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// innerHTML renders the children of n.
func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return strings.TrimSpace(buf.String())
}

// rawText is the unescaped text below n with whitespace kept.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimRight(strings.TrimPrefix(buf.String(), "\n"), "\n")
}

func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return out
}

// soleElement returns the only element child of n if it is an a element,
// ignoring whitespace text.
func soleElement(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		case html.ElementNode:
			if found != nil || c.DataAtom != a {
				return nil
			}
			found = c
		}
	}
	return found
}
