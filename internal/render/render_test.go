package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

func renderTree(t *testing.T, root *doctree.Node, opts Options) (*sink.Recorder, *diag.Aggregator) {
	t.Helper()
	out := sink.NewRecorder()
	agg := diag.NewAggregator()
	New(out, agg, nil, opts).Render(root)
	require.NoError(t, out.Balanced())
	return out, agg
}

func para(text string) *doctree.Node {
	n := doctree.New("paragraph")
	n.Content = text
	return n
}

func item(marker, text string, children ...*doctree.Node) *doctree.Node {
	n := doctree.New("list_item", children...)
	n.Marker = marker
	n.Content = text
	return n
}

func TestEmptyListsEmitNothing(t *testing.T) {
	for _, kind := range []string{"ulist", "olist", "dlist"} {
		t.Run(kind, func(t *testing.T) {
			n := doctree.New(kind)
			n.Title = "ignored"
			out, _ := renderTree(t, n, Options{})
			assert.Zero(t, out.Len())
		})
	}
}

func TestEmptyTableEmitsOnlyContainer(t *testing.T) {
	n := doctree.New("table")
	n.Title = "Empty"
	out, _ := renderTree(t, n, Options{})
	assert.Equal(t, []string{"open table [justify=left]", "close table"}, out.Lines())

	n.Table = &doctree.Table{}
	out, _ = renderTree(t, n, Options{})
	assert.Equal(t, 2, out.Len())
}

func TestTableRows(t *testing.T) {
	n := doctree.New("table")
	n.Title = "Sizes"
	n.Attributes = doctree.Attributes{"caption": " Table 1. "}
	n.Table = &doctree.Table{
		Header: []doctree.Row{{Cells: []doctree.Cell{{Text: "Name"}}}, {Cells: []doctree.Cell{{Text: "Size"}}}},
		Body: []doctree.Row{
			{Cells: []doctree.Cell{{Text: "a"}, {Text: "1"}}},
		},
	}
	out, _ := renderTree(t, n, Options{})
	lines := out.Lines()

	assert.Equal(t, []string{
		"open table [justify=left]",
		"open table-row",
		"open table-header-cell", `raw "Name"`, "close table-header-cell",
		"open table-header-cell", `raw "Size"`, "close table-header-cell",
		"close table-row",
		"open table-row",
		"open table-cell", `raw "a"`, "close table-cell",
		"open table-cell", `raw "1"`, "close table-cell",
		"close table-row",
	}, lines[:17])
	assert.Contains(t, lines[17], "open table-caption")
	assert.Equal(t, `text "Table 1. Sizes"`, lines[18])
	assert.Equal(t, []string{"close table-caption", "close table"}, lines[19:])
}

func TestTableWithoutTitleHasNoCaption(t *testing.T) {
	n := doctree.New("table")
	n.Title = "   "
	n.Attributes = doctree.Attributes{"caption": "Table 1.", "justify": "center", "grid": "all"}
	n.Table = &doctree.Table{Body: []doctree.Row{{Cells: []doctree.Cell{{Text: "x"}}}}}
	out, _ := renderTree(t, n, Options{})

	assert.Zero(t, out.Count(sink.EventOpen, sink.TableCaption))
	assert.Equal(t, "open table [grid=true, justify=center]", out.Lines()[0])
}

func TestLevelZeroSectionRendersDocumentTitle(t *testing.T) {
	sec := doctree.New("section", para("body"))
	sec.Title = "Top"
	out, _ := renderTree(t, sec, Options{})

	assert.Zero(t, out.Count(sink.EventOpen, sink.SectionTitle))
	assert.Equal(t, []string{
		"open document-title", `raw "Top"`, "close document-title",
		"open paragraph", `raw "body"`, "close paragraph",
	}, out.Lines())
}

func TestSectionNumbering(t *testing.T) {
	numbered := func(level int, num, title string) *doctree.Node {
		n := doctree.New("section")
		n.Level = level
		n.Title = title
		n.Attributes = doctree.Attributes{"sectnum": num, "id": "_" + title}
		return n
	}
	doc := doctree.New("document",
		numbered(1, "1.", "Intro"),
		numbered(3, "1.1.1.", "Deep"),
	)
	doc.Attributes = doctree.Attributes{"sectnums": "", "sectnumlevels": "2"}

	out, _ := renderTree(t, doc, Options{})
	assert.Equal(t, []string{
		"open anchor [id=_Intro]", "close anchor",
		"open section-title [level=2]", `raw "1. Intro"`, "close section-title",
		"open anchor [id=_Deep]", "close anchor",
		"open section-title [level=4]", `raw "Deep"`, "close section-title",
	}, out.Lines())
}

func TestSectionNumberingFlags(t *testing.T) {
	sec := doctree.New("section")
	sec.Level = 1
	sec.Title = "Intro"
	sec.Attributes = doctree.Attributes{"sectnum": "2.", "numbered": true}
	out, _ := renderTree(t, sec, Options{})
	assert.Contains(t, out.Lines(), `raw "2. Intro"`)

	// Numbering off for the section wins over the document flag.
	sec.Attributes["numbered"] = false
	doc := doctree.New("document", sec)
	doc.Attributes = doctree.Attributes{"sectnums": true}
	out, _ = renderTree(t, doc, Options{})
	assert.Contains(t, out.Lines(), `raw "Intro"`)
}

func TestSectionLevelClamped(t *testing.T) {
	sec := doctree.New("section")
	sec.Level = 7
	sec.Title = "Deep"
	out, _ := renderTree(t, sec, Options{})
	assert.Contains(t, out.Lines(), "open section-title [level=6]")

	out, _ = renderTree(t, sec, Options{MaxSectionLevel: 5})
	assert.Contains(t, out.Lines(), "open section-title [level=5]")
}

func TestListingSourceBlock(t *testing.T) {
	n := doctree.New("listing")
	n.Attributes = doctree.Attributes{"language": "java"}
	n.Content = "class X{}"
	out, _ := renderTree(t, n, Options{})

	assert.Equal(t, []string{
		"open division [class=source]",
		"open verbatim [class=prettyprint, language=java, source=true]",
		`text "class X{}"`,
		"close verbatim",
		"close division",
	}, out.Lines())
}

func TestListingPlainBlock(t *testing.T) {
	n := doctree.New("listing")
	n.Content = "a < b"
	out, _ := renderTree(t, n, Options{})

	assert.Equal(t, []string{
		"open division", "open verbatim", `text "a < b"`, "close verbatim", "close division",
	}, out.Lines())
}

func TestListingLineNumbers(t *testing.T) {
	tests := []struct {
		name  string
		attrs doctree.Attributes
		want  string
	}{
		{"flag", doctree.Attributes{"style": "source", "linenums": ""}, "class=prettyprint linenums"},
		{"option", doctree.Attributes{"style": "source", "linenums-option": ""}, "class=prettyprint linenums"},
		{"none", doctree.Attributes{"style": "source"}, "class=prettyprint,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := doctree.New("listing")
			n.Attributes = tt.attrs
			out, _ := renderTree(t, n, Options{})
			assert.Contains(t, out.Lines()[1], tt.want)
		})
	}
}

func TestLiteralBlock(t *testing.T) {
	n := doctree.New("literal")
	n.Content = "  indented"
	out, _ := renderTree(t, n, Options{})
	assert.Equal(t, []string{
		"open division", "open verbatim", `text "  indented"`, "close verbatim", "close division",
	}, out.Lines())
}

func TestItemType(t *testing.T) {
	tests := []struct {
		marker string
		want   string
	}{
		{"*", sink.TypeUnordered},
		{"**", sink.TypeUnordered},
		{"-", sink.TypeUnordered},
		{".", sink.TypeOrdered},
		{"..", sink.TypeOrdered},
		{"1.", sink.TypeOrdered},
		{"a.", sink.TypeOrdered},
		{"iii)", sink.TypeOrdered},
		{"", sink.TypeDescription},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ItemType(tt.marker), "marker %q", tt.marker)
	}
}

func TestNestedListRendersInsideItem(t *testing.T) {
	inner := doctree.New("olist", item(".", "inner"))
	outer := doctree.New("ulist", item("*", "outer", inner), item("*", "next"))
	out, _ := renderTree(t, outer, Options{})

	assert.Equal(t, []string{
		"open list [type=unordered]",
		"open list-item [type=unordered]",
		`raw "outer"`,
		"open list [numbering=1, type=ordered]",
		"open list-item [type=ordered]",
		`raw "inner"`,
		"close list-item",
		"close list",
		"close list-item",
		"open list-item [type=unordered]",
		`raw "next"`,
		"close list-item",
		"close list",
	}, out.Lines())
}

func TestOrderedListNumberingStyle(t *testing.T) {
	for style, want := range map[string]string{
		"loweralpha": "a", "upperalpha": "A", "lowerroman": "i", "upperroman": "I", "arabic": "1", "": "1",
	} {
		n := doctree.New("olist", item("1.", "x"))
		n.Attributes = doctree.Attributes{"style": style}
		out, _ := renderTree(t, n, Options{})
		assert.Equal(t, "open list [numbering="+want+", type=ordered]", out.Lines()[0], "style %q", style)
	}
}

func TestDescriptionList(t *testing.T) {
	entry := item("", "central processing unit", para("more"))
	entry.Title = "CPU"
	out, _ := renderTree(t, doctree.New("dlist", entry), Options{})

	assert.Equal(t, []string{
		"open list [type=description]",
		"open list-item [type=description]",
		"open term", `raw "CPU"`, "close term",
		"open definition",
		`raw "central processing unit"`,
		"open paragraph", `raw "more"`, "close paragraph",
		"close definition",
		"close list-item",
		"close list",
	}, out.Lines())
}

func TestUnknownKindIsTransparent(t *testing.T) {
	out, agg := renderTree(t, doctree.New("sidebar", para("inside")), Options{})
	assert.Equal(t, []string{"open paragraph", `raw "inside"`, "close paragraph"}, out.Lines())
	assert.True(t, agg.IsEmpty())
}

func TestPreambleRendersBlocks(t *testing.T) {
	doc := doctree.New("document", doctree.New("preamble", para("lead")))
	doc.Title = "Guide"
	out, _ := renderTree(t, doc, Options{})
	assert.Equal(t, []string{
		"open document-title", `raw "Guide"`, "close document-title",
		"open paragraph", `raw "lead"`, "close paragraph",
	}, out.Lines())
}

func TestImage(t *testing.T) {
	n := doctree.New("image")
	n.Title = "Overview"
	n.Attributes = doctree.Attributes{"target": "arch.png", "alt": "Architecture", "caption": "Figure 1."}
	out, _ := renderTree(t, n, Options{ImagesDir: "images"})

	lines := out.Lines()
	assert.Equal(t, "open division", lines[0])
	assert.Equal(t, `image "images/arch.png" alt="Architecture"`, lines[1])
	assert.Contains(t, lines[2], "open division [style=")
	assert.Equal(t, `raw "Figure 1. Overview"`, lines[3])
}

func TestImagePath(t *testing.T) {
	tests := []struct {
		dir, target, want string
	}{
		{"", "a.png", "a.png"},
		{"images", "a.png", "images/a.png"},
		{"images/", "a.png", "images/a.png"},
		{`images\`, "a.png", `images\a.png`},
		{"images", "/abs/a.png", "/abs/a.png"},
		{"images", "https://example.com/a.png", "https://example.com/a.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImagePath(tt.dir, tt.target))
	}
}

func TestExampleBlock(t *testing.T) {
	n := doctree.New("example", para("demo"))
	n.Title = "Usage"
	n.Attributes = doctree.Attributes{"caption": "Example 1."}
	out, _ := renderTree(t, n, Options{})

	lines := out.Lines()
	assert.Equal(t, "open division", lines[0])
	assert.Equal(t, `text "Example 1. Usage"`, lines[2])
	assert.Equal(t, `raw "demo"`, lines[6])
	assert.Equal(t, 1, out.Count(sink.EventOpen, sink.Paragraph))

	empty := doctree.New("example")
	out, _ = renderTree(t, empty, Options{})
	assert.Equal(t, []string{"open division", "close division"}, out.Lines())
}

func TestFailedNodeIsContained(t *testing.T) {
	img := doctree.New("image")
	img.Pos = &doctree.Position{File: "guide.md", Line: 12}
	doc := doctree.New("document", para("before"), img, para("after"))

	out, agg := renderTree(t, doc, Options{})

	assert.Equal(t, 2, out.Count(sink.EventOpen, sink.Paragraph))
	assert.Zero(t, out.Count(sink.EventImage, 0))
	require.Equal(t, 1, agg.Len())
	r := agg.Records()[0]
	assert.Equal(t, diag.SeverityError, r.Severity)
	assert.Equal(t, "could not process image node: image has no target", r.Message)
	require.NotNil(t, r.Cursor)
	assert.Equal(t, 12, r.Cursor.Line)
}

// halfway opens elements and then fails.
type halfway struct {
	ctx    *Context
	panics bool
}

func (h *halfway) Applies(n *doctree.Node) bool { return n.Name == "halfway" }
func (h *halfway) Terminal(*doctree.Node) bool  { return false }

func (h *halfway) Process(*doctree.Node) error {
	h.ctx.Sink.Open(sink.Division, nil)
	h.ctx.Sink.Open(sink.Paragraph, nil)
	h.ctx.Sink.Text("partial")
	if h.panics {
		panic("boom")
	}
	return errors.New("gave up")
}

func TestFailureUnwindsOpenElements(t *testing.T) {
	for _, panics := range []bool{false, true} {
		opts := Options{Processors: []Factory{func(c *Context) Processor {
			return &halfway{ctx: c, panics: panics}
		}}}
		list := doctree.New("ulist", item("*", "one", doctree.New("halfway", para("skipped"))), item("*", "two"))

		out, agg := renderTree(t, list, opts)

		assert.Equal(t, 2, out.Count(sink.EventOpen, sink.ListItem))
		assert.NotContains(t, out.Lines(), `raw "skipped"`)
		require.Equal(t, 1, agg.Len())
		assert.Contains(t, agg.Records()[0].Message, "could not process halfway node")
	}
}

type mismatched struct{ ctx *Context }

func (m mismatched) Applies(n *doctree.Node) bool { return n.Name == "mismatched" }
func (m mismatched) Terminal(*doctree.Node) bool  { return true }
func (m mismatched) Process(*doctree.Node) error {
	m.ctx.Sink.Open(sink.Table, nil)
	m.ctx.Sink.Close(sink.Paragraph)
	return nil
}

func TestMismatchedCloseIsAFailure(t *testing.T) {
	opts := Options{Processors: []Factory{func(c *Context) Processor { return mismatched{ctx: c} }}}
	out, agg := renderTree(t, doctree.New("mismatched"), opts)

	assert.Equal(t, []string{"open table", "close table"}, out.Lines())
	require.Equal(t, 1, agg.Len())
	assert.Contains(t, agg.Records()[0].Message, "does not match")
}

type upperParagraph struct{ ctx *Context }

func (u upperParagraph) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindParagraph }
func (u upperParagraph) Terminal(*doctree.Node) bool  { return true }
func (u upperParagraph) Process(n *doctree.Node) error {
	u.ctx.Sink.Text("custom")
	return nil
}

func TestCustomProcessorWinsOverBuiltin(t *testing.T) {
	opts := Options{Processors: []Factory{func(c *Context) Processor { return upperParagraph{ctx: c} }}}
	out, _ := renderTree(t, para("x"), opts)
	assert.Equal(t, []string{`text "custom"`}, out.Lines())
}

func sampleTree() *doctree.Node {
	table := doctree.New("table")
	table.Table = &doctree.Table{Body: []doctree.Row{{Cells: []doctree.Cell{{Text: "c"}}}}}
	listing := doctree.New("listing")
	listing.Attributes = doctree.Attributes{"language": "go"}
	listing.Content = "package main"
	sec := doctree.New("section",
		para("p"),
		doctree.New("ulist", item("*", "a", doctree.New("olist", item("1.", "b", doctree.New("ulist", item("-", "c")))))),
		table,
		listing,
		doctree.New("image"),
		doctree.New("mystery", para("inside")),
	)
	sec.Level = 1
	sec.Title = "S"
	sec.Attributes = doctree.Attributes{"sectnum": "1.", "numbered": ""}
	doc := doctree.New("document", sec)
	doc.Title = "T"
	return doc
}

func TestRenderingIsBalancedAndRepeatable(t *testing.T) {
	first, agg1 := renderTree(t, sampleTree(), Options{})
	second, agg2 := renderTree(t, sampleTree(), Options{})

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, agg1.Records(), agg2.Records())
	assert.Equal(t, 1, agg1.Len())
}

func TestHeaderFrom(t *testing.T) {
	doc := doctree.New("document")
	doc.Title = " Guide "
	doc.Attributes = doctree.Attributes{"author": "Ada", "docdatetime": "2024-01-02"}
	h := HeaderFrom(doc)
	assert.Equal(t, HeaderMetadata{Title: "Guide", Authors: []string{"Ada"}, Date: "2024-01-02"}, h)

	doc.Attributes["authors"] = []any{"Ada", "Grace"}
	doc.Attributes["revdate"] = "2024-03-04"
	h = HeaderFrom(doc)
	assert.Equal(t, []string{"Ada", "Grace"}, h.Authors)
	assert.Equal(t, "2024-03-04", h.Date)

	assert.Equal(t, HeaderMetadata{}, HeaderFrom(nil))
}

func TestWriteHead(t *testing.T) {
	out := sink.NewRecorder()
	WriteHead(out, HeaderMetadata{Authors: []string{"Ada", " "}, Date: "2024"})

	assert.Equal(t, []string{
		"open head",
		"open title", `raw "[Untitled]"`, "close title",
		"open author", `text "Ada"`, "close author",
		"open date", `text "2024"`, "close date",
		"close head",
	}, out.Lines())
}
