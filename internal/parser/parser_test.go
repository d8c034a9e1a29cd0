package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsink/internal/diag"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.markdown", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.filename, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}

	if _, err := ForFile("a.adoc"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("a.adoc") || !IsSupportedExtension("A.DOCX") {
		t.Error("unexpected IsSupportedExtension result")
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	}
	return "unknown"
}

func TestCSVParser(t *testing.T) {
	agg := diag.NewAggregator()
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader("name,size\na,1\nb<c,2,extra\n"), "data/sizes.csv", agg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected one table, got %d children", len(tree.Children))
	}
	table := tree.Children[0]
	if table.Title != "sizes" {
		t.Errorf("expected table title %q, got %q", "sizes", table.Title)
	}
	if len(table.Table.Header) != 1 || len(table.Table.Body) != 2 {
		t.Fatalf("unexpected rows: %+v", table.Table)
	}
	if got := table.Table.Body[1].Cells[0].Text; got != "b&lt;c" {
		t.Errorf("expected escaped cell, got %q", got)
	}

	recs := agg.Records()
	if len(recs) != 1 || recs[0].Cursor.Line != 3 {
		t.Errorf("expected one warning on line 3, got %+v", recs)
	}
}

func TestCSVParser_Empty(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.csv", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}

func TestDOCXStyles(t *testing.T) {
	for style, want := range map[string]int{
		"heading1": 1, "heading6": 6, "heading7": 0, "headingx": 0, "title": 0, "": 0,
	} {
		if got := docxHeadingLevel(style); got != want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", style, got, want)
		}
	}
	if !isCodeStyle("htmlpreformatted") || isCodeStyle("listparagraph") {
		t.Error("unexpected code style classification")
	}
}
