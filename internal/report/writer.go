package report

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-wordwrap"

	"github.com/salchaD-27/cargo-tidy-lints/internal/finding"
	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
)

const docsWidth = 100

// Path returns the report file for a scope prefix and category,
// e.g. target/workspace_allow.toml.
func Path(dir string, scope finding.Scope, cat finding.Category) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.toml", scope, cat))
}

type categoryFile struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

// Writer owns the four category files of one scope. It is not safe for
// concurrent use; each scope job creates its own.
type Writer struct {
	scope    finding.Scope
	withDocs bool
	files    map[finding.Category]*categoryFile
}

// Create opens (creating or truncating) every category file under dir.
func Create(dir string, scope finding.Scope, withDocs bool) (*Writer, error) {
	w := &Writer{scope: scope, withDocs: withDocs, files: map[finding.Category]*categoryFile{}}
	for _, cat := range finding.Categories {
		path := Path(dir, scope, cat)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("open report %s: %w", path, err)
		}
		w.files[cat] = &categoryFile{path: path, f: f, w: bufio.NewWriter(f)}
	}
	return w, nil
}

// Write appends item to the category report and returns the matching finding.
func (w *Writer) Write(cat finding.Category, item lint.Item) (finding.Finding, error) {
	cf, ok := w.files[cat]
	if !ok {
		return finding.Finding{}, fmt.Errorf("unknown report category %q", cat)
	}

	line, err := Line(item, w.withDocs)
	if err != nil {
		return finding.Finding{}, err
	}
	if _, err := cf.w.WriteString(line); err != nil {
		return finding.Finding{}, fmt.Errorf("write report %s: %w", cf.path, err)
	}

	return finding.Finding{
		Scope:    w.scope,
		Category: cat,
		Lint:     item.ID,
		Group:    item.Group,
		Level:    string(item.Level),
		File:     cf.path,
	}, nil
}

// Close flushes and closes every file, returning all errors joined.
func (w *Writer) Close() error {
	var errs []error
	for _, cat := range finding.Categories {
		cf, ok := w.files[cat]
		if !ok {
			continue
		}
		if err := cf.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush report %s: %w", cf.path, err))
		}
		if err := cf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close report %s: %w", cf.path, err))
		}
		delete(w.files, cat)
	}
	return errors.Join(errs...)
}

// Line renders item as a manifest entry carrying its catalog metadata:
//
//	absolute_paths = "allow" # version: 1.73.0, applicability: Unresolved, group: restriction
func Line(item lint.Item, withDocs bool) (string, error) {
	kv, err := toml.Marshal(map[string]string{item.ID: string(item.Level)})
	if err != nil {
		return "", fmt.Errorf("encode lint %s: %w", item.ID, err)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(string(kv), "\n"))
	fmt.Fprintf(&b, " # version: %s, applicability: %s, group: %s\n",
		item.Version, item.Applicability.Applicability, item.Group)

	if withDocs && item.Docs != "" {
		for _, line := range strings.Split(strings.TrimSuffix(item.Docs, "\n"), "\n") {
			for _, wrapped := range strings.Split(wordwrap.WrapString(line, docsWidth), "\n") {
				b.WriteString(strings.TrimRight("# "+wrapped, " "))
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}
