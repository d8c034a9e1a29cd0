package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
)

// CSVParser handles CSV files. The file becomes a single table whose first
// record is the header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string, rec diag.Recorder) (*doctree.Node, error) {
	rec = recorderOrDiscard(rec)

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := newDocument(filename)
	if len(records) == 0 {
		return doc, nil
	}

	table := &doctree.Node{
		Kind:  doctree.KindTable,
		Name:  "table",
		Title: html.EscapeString(docName(filename)),
		Table: &doctree.Table{Header: []doctree.Row{csvRow(records[0])}},
		Pos:   &doctree.Position{File: filename, Line: 1},
	}
	width := len(records[0])
	for i, record := range records[1:] {
		if len(record) != width {
			diag.Warn(rec, &diag.Cursor{File: filename, Line: i + 2},
				fmt.Sprintf("row has %d fields, header has %d", len(record), width))
		}
		table.Table.Body = append(table.Table.Body, csvRow(record))
	}
	doc.Children = append(doc.Children, table)
	return doc, nil
}

func csvRow(record []string) doctree.Row {
	row := doctree.Row{Cells: make([]doctree.Cell, len(record))}
	for i, field := range record {
		row.Cells[i] = doctree.Cell{Text: html.EscapeString(field)}
	}
	return row
}
