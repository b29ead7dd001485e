// Package uploads supplies the raw exports for a batch. It is the only place
// that touches the file system on the way in.
package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Upload is one export: its original file name and full text.
type Upload struct {
	Name    string
	Content string
}

// Source lists the uploads of one batch.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Upload, error)
}

// Dir reads every delimited text file directly inside Path.
type Dir struct {
	Path string
	// Extensions allowed, lower case with the dot. Empty means DefaultExtensions.
	Extensions []string
}

var DefaultExtensions = []string{".csv", ".tsv", ".txt"}

func (d Dir) Name() string { return "dir:" + d.Path }

// List returns uploads sorted by file name so batches are reproducible.
func (d Dir) List(ctx context.Context) ([]Upload, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("uploads: read dir %s: %w", d.Path, err)
	}

	exts := d.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := map[string]bool{}
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !allowed[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Upload, 0, len(names))
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(filepath.Join(d.Path, n))
		if err != nil {
			return nil, fmt.Errorf("uploads: read %s: %w", n, err)
		}
		out = append(out, Upload{Name: n, Content: string(b)})
	}
	return out, nil
}

// Static is a fixed set of uploads, handy for callers that already hold the
// content in memory.
type Static []Upload

func (s Static) Name() string { return "static" }

func (s Static) List(ctx context.Context) ([]Upload, error) {
	return append([]Upload(nil), s...), nil
}
