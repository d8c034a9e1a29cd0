package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
)

// DOCXParser handles .docx files. Heading styles open sections, list and
// code paragraph styles are grouped into lists and literal blocks, and
// tables keep their first row as the header.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string, rec diag.Recorder) (*doctree.Node, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docsink-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := newDocument(filename)
	b := &docxBuilder{
		doc:     doc,
		outline: newOutline(doc),
		pos:     &doctree.Position{File: filename},
		rec:     recorderOrDiscard(rec),
	}
	for _, item := range d.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			b.paragraph(it)
		case *docx.Table:
			b.flush()
			b.outline.add(b.table(it))
		}
	}
	b.flush()
	if len(doc.Children) == 0 {
		diag.Warn(b.rec, &diag.Cursor{File: filename}, "document has no text content")
	}
	return doc, nil
}

type docxBuilder struct {
	doc     *doctree.Node
	outline *outline
	pos     *doctree.Position
	rec     diag.Recorder

	// Consecutive list or code paragraphs are collected until a paragraph
	// of another style arrives.
	list *doctree.Node
	code []string
}

func (b *docxBuilder) paragraph(para *docx.Paragraph) {
	style := docxStyle(para)
	text := docxParagraphText(para)

	if level := docxHeadingLevel(style); level > 0 {
		if text == "" {
			return
		}
		b.flush()
		b.outline.heading(level, html.EscapeString(text), text, "", b.pos)
		return
	}

	switch {
	case style == "title":
		if b.doc.Title == "" {
			b.doc.Title = html.EscapeString(text)
		}
	case isCodeStyle(style):
		b.flushList()
		b.code = append(b.code, docxRawText(para))
	case strings.HasPrefix(style, "list"):
		b.flushCode()
		if text != "" {
			b.listItem(style, text)
		}
	case text != "":
		b.flush()
		b.outline.add(&doctree.Node{Kind: doctree.KindParagraph, Name: "paragraph", Content: html.EscapeString(text), Pos: b.pos})
	}
}

func (b *docxBuilder) listItem(style, text string) {
	ordered := strings.Contains(style, "number")
	kind, name := doctree.KindUnorderedList, "ulist"
	if ordered {
		kind, name = doctree.KindOrderedList, "olist"
	}
	if b.list != nil && b.list.Kind != kind {
		b.flushList()
	}
	if b.list == nil {
		b.list = &doctree.Node{Kind: kind, Name: name, Pos: b.pos}
	}
	marker := "*"
	if ordered {
		marker = strconv.Itoa(len(b.list.Children)+1) + "."
	}
	b.list.Children = append(b.list.Children, &doctree.Node{
		Kind:    doctree.KindListItem,
		Name:    "list_item",
		Marker:  marker,
		Content: html.EscapeString(text),
		Pos:     b.pos,
	})
}

func (b *docxBuilder) flush() {
	b.flushList()
	b.flushCode()
}

func (b *docxBuilder) flushList() {
	if b.list != nil {
		b.outline.add(b.list)
		b.list = nil
	}
}

func (b *docxBuilder) flushCode() {
	if len(b.code) > 0 {
		b.outline.add(&doctree.Node{Kind: doctree.KindLiteral, Name: "literal", Content: strings.Join(b.code, "\n"), Pos: b.pos})
		b.code = nil
	}
}

func (b *docxBuilder) table(t *docx.Table) *doctree.Node {
	n := &doctree.Node{Kind: doctree.KindTable, Name: "table", Table: &doctree.Table{}, Pos: b.pos}
	for i, tr := range t.TableRows {
		var row doctree.Row
		for _, tc := range tr.TableCells {
			var parts []string
			for _, para := range tc.Paragraphs {
				if text := docxParagraphText(para); text != "" {
					parts = append(parts, html.EscapeString(text))
				}
			}
			row.Cells = append(row.Cells, doctree.Cell{Text: strings.Join(parts, "<br>")})
		}
		if i == 0 {
			n.Table.Header = append(n.Table.Header, row)
		} else {
			n.Table.Body = append(n.Table.Body, row)
		}
	}
	return n
}

// docxStyle returns the paragraph style id, lower-cased without spaces.
func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
}

func docxHeadingLevel(style string) int {
	level, ok := strings.CutPrefix(style, "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(level)
	if err != nil || n < 1 || n > 6 {
		return 0
	}
	return n
}

func isCodeStyle(style string) bool {
	switch style {
	case "code", "sourcecode", "htmlpreformatted", "plaintext":
		return true
	}
	return false
}

func docxParagraphText(para *docx.Paragraph) string {
	return strings.TrimSpace(docxRawText(para))
}

func docxRawText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
