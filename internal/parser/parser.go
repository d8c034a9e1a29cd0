// Package parser turns source documents into document trees for the
// renderer. Each format has its own parser; problems that do not stop
// parsing are reported as diagnostics rather than errors.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
)

// Parser converts raw document bytes into a document tree.
type Parser interface {
	Parse(r io.Reader, filename string, rec diag.Recorder) (*doctree.Node, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// docName is the file name without directory and extension.
func docName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// newDocument returns an empty document node for filename. The file name
// stem is kept in the "docname" attribute.
func newDocument(filename string) *doctree.Node {
	return &doctree.Node{
		Kind:       doctree.KindDocument,
		Name:       "document",
		Attributes: doctree.Attributes{"docname": docName(filename)},
		Pos:        &doctree.Position{File: filename, Line: 1},
	}
}

func recorderOrDiscard(rec diag.Recorder) diag.Recorder {
	if rec == nil {
		return diag.Discard
	}
	return rec
}
