package sink

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrUnbalanced is returned by HTML.Render when the event stream did not
// close every element it opened in order.
var ErrUnbalanced = errors.New("unbalanced sink events")

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

type frame struct {
	el   Element
	node *html.Node // children are appended here
	// meta frames collect their text into a content attribute instead of
	// child nodes.
	meta *strings.Builder
}

// HTML is a Sink that builds an HTML document tree and renders it with
// golang.org/x/net/html.
type HTML struct {
	doc    *html.Node
	head   *html.Node
	body   *html.Node
	frames []frame
	err    error
}

// NewHTML returns an HTML sink with an empty document skeleton.
func NewHTML() *HTML {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	doc.AppendChild(root)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	root.AppendChild(head)
	body := element(atom.Body)
	root.AppendChild(body)
	return &HTML{doc: doc, head: head, body: body}
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func (h *HTML) current() *html.Node {
	if len(h.frames) == 0 {
		return h.body
	}
	return h.frames[len(h.frames)-1].node
}

func (h *HTML) push(el Element, n *html.Node) {
	h.current().AppendChild(n)
	h.frames = append(h.frames, frame{el: el, node: n})
}

func (h *HTML) fail(err error) {
	if h.err == nil {
		h.err = err
	}
}

func (h *HTML) Open(el Element, attrs Attributes) {
	switch el {
	case Head:
		// The head frame writes into the document head, not the body.
		h.frames = append(h.frames, frame{el: el, node: h.head})
	case Title:
		h.push(el, element(atom.Title))
	case Author, Date:
		name := "author"
		if el == Date {
			name = "date"
		}
		n := element(atom.Meta, attr("name", name))
		h.current().AppendChild(n)
		h.frames = append(h.frames, frame{el: el, node: n, meta: &strings.Builder{}})
	case DocumentTitle:
		h.push(el, element(atom.H1))
	case SectionTitle:
		h.push(el, element(headingAtom(attrs[AttrLevel])))
	case Anchor:
		h.push(el, element(atom.A, attr("id", attrs[AttrID])))
	case Paragraph:
		h.push(el, element(atom.P))
	case List:
		h.push(el, listNode(attrs))
	case ListItem:
		if attrs[AttrType] == TypeDescription {
			h.push(el, element(atom.Div))
		} else {
			h.push(el, element(atom.Li))
		}
	case Term:
		h.push(el, element(atom.Dt))
	case Definition:
		h.push(el, element(atom.Dd))
	case Table:
		t := element(atom.Table, attr("class", "bodyTable"))
		if j := attrs[AttrJustify]; j != "" {
			t.Attr = append(t.Attr, attr("style", "text-align: "+j))
		}
		if attrs[AttrGrid] == "true" {
			t.Attr = append(t.Attr, attr("border", "1"))
		}
		h.push(el, t)
	case TableRow:
		h.push(el, element(atom.Tr))
	case TableHeaderCell:
		h.push(el, element(atom.Th))
	case TableCell:
		h.push(el, element(atom.Td))
	case TableCaption:
		c := element(atom.Caption)
		parent := h.current()
		// A caption must be the first child of its table.
		if parent.DataAtom == atom.Table && parent.FirstChild != nil {
			parent.InsertBefore(c, parent.FirstChild)
		} else {
			parent.AppendChild(c)
		}
		h.frames = append(h.frames, frame{el: el, node: c})
	case Verbatim:
		h.openVerbatim(attrs)
	case Division:
		d := element(atom.Div)
		if c := attrs[AttrClass]; c != "" {
			d.Attr = append(d.Attr, attr("class", c))
		}
		if s := attrs[AttrStyle]; s != "" {
			d.Attr = append(d.Attr, attr("style", s))
		}
		h.push(el, d)
	default:
		h.fail(fmt.Errorf("open: unsupported element %s", el))
		h.push(el, element(atom.Div))
	}
}

func headingAtom(level string) atom.Atom {
	n, err := strconv.Atoi(level)
	if err != nil {
		n = 2
	}
	if n < 1 {
		n = 1
	}
	if n > len(headingAtoms) {
		n = len(headingAtoms)
	}
	return headingAtoms[n-1]
}

func listNode(attrs Attributes) *html.Node {
	switch attrs[AttrType] {
	case TypeOrdered:
		n := element(atom.Ol)
		if num := attrs[AttrNumbering]; num != "" && num != "1" {
			n.Attr = append(n.Attr, attr("type", num))
		}
		return n
	case TypeDescription:
		return element(atom.Dl)
	default:
		return element(atom.Ul)
	}
}

func (h *HTML) openVerbatim(attrs Attributes) {
	pre := element(atom.Pre)
	if c := attrs[AttrClass]; c != "" {
		pre.Attr = append(pre.Attr, attr("class", c))
	}
	h.current().AppendChild(pre)
	if attrs[AttrSource] != "true" {
		h.frames = append(h.frames, frame{el: Verbatim, node: pre})
		return
	}
	code := element(atom.Code)
	if lang := attrs[AttrLanguage]; lang != "" {
		code.Attr = append(code.Attr, attr("class", "language-"+lang))
	}
	pre.AppendChild(code)
	h.frames = append(h.frames, frame{el: Verbatim, node: code})
}

func (h *HTML) Close(el Element) {
	if len(h.frames) == 0 {
		h.fail(fmt.Errorf("%w: close %s without open", ErrUnbalanced, el))
		return
	}
	top := h.frames[len(h.frames)-1]
	if top.el != el {
		h.fail(fmt.Errorf("%w: close %s while %s is open", ErrUnbalanced, el, top.el))
		return
	}
	if top.meta != nil {
		top.node.Attr = append(top.node.Attr, attr("content", strings.TrimSpace(top.meta.String())))
	}
	h.frames = h.frames[:len(h.frames)-1]
}

func (h *HTML) Text(s string) {
	if s == "" {
		return
	}
	if n := len(h.frames); n > 0 && h.frames[n-1].meta != nil {
		h.frames[n-1].meta.WriteString(s)
		return
	}
	h.current().AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

func (h *HTML) Raw(markup string) {
	if markup == "" {
		return
	}
	if n := len(h.frames); n > 0 && h.frames[n-1].meta != nil {
		h.frames[n-1].meta.WriteString(markup)
		return
	}
	parent := h.current()
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: markup})
		return
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
}

func (h *HTML) Image(src, alt string) {
	h.current().AppendChild(element(atom.Img, attr("src", src), attr("alt", alt)))
}

// Err returns the first structural error seen, including elements that are
// still open.
func (h *HTML) Err() error {
	if h.err != nil {
		return h.err
	}
	if n := len(h.frames); n > 0 {
		return fmt.Errorf("%w: %d element(s) left open, innermost %s", ErrUnbalanced, n, h.frames[n-1].el)
	}
	return nil
}

// Render writes the complete document. It refuses to write an unbalanced
// stream.
func (h *HTML) Render(w io.Writer) error {
	if err := h.Err(); err != nil {
		return err
	}
	return html.Render(w, h.doc)
}

// RenderBody writes only the children of <body>.
func (h *HTML) RenderBody(w io.Writer) error {
	if err := h.Err(); err != nil {
		return err
	}
	for c := h.body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}
