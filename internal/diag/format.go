package diag

import (
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultTag prefixes every formatted record.
const DefaultTag = "docsink"

const separator = ": "

// Formatter renders records as
//
//	<tag>: <SEVERITY>: [<path>: ][line <N>: ]<message>
//
// Downstream tooling parses this shape, so the field order is fixed.
type Formatter struct {
	Tag string
	// SourceDir is the directory paths are made relative to. When empty, or
	// when a file lies outside it, the path is printed as recorded.
	SourceDir string
}

// Format renders r.
func (f Formatter) Format(r Record) string {
	tag := f.Tag
	if tag == "" {
		tag = DefaultTag
	}
	parts := make([]string, 0, 5)
	parts = append(parts, tag, r.Severity.String())

	if c := r.Cursor; c != nil {
		if path := f.sourcePath(c.File); path != "" {
			parts = append(parts, path)
		}
		if c.Line > 0 {
			parts = append(parts, "line "+strconv.Itoa(c.Line))
		}
	}
	parts = append(parts, r.Message)
	return strings.Join(parts, separator)
}

func (f Formatter) sourcePath(file string) string {
	if file == "" {
		return ""
	}
	if rel, ok := relativeTo(file, f.SourceDir); ok {
		return rel
	}
	return file
}

// relativeTo makes file relative to dir when file is a local path inside
// dir. Remote sources are never relativized.
func relativeTo(file, dir string) (string, bool) {
	if dir == "" || isRemote(file) {
		return "", false
	}
	cf, err := canonical(file)
	if err != nil {
		return "", false
	}
	cd, err := canonical(dir)
	if err != nil {
		return "", false
	}
	prefix := cd + string(filepath.Separator)
	if !strings.HasPrefix(cf, prefix) {
		return "", false
	}
	return strings.TrimPrefix(cf, prefix), true
}

// canonical resolves symlinks when the path exists and falls back to the
// cleaned absolute path otherwise.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
