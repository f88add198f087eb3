// Package export serializes an ordered article sequence to the data files
// consumed downstream: a JSON document, a TypeScript module and an XLSX
// workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brunobiangulo/golegis/article"
)

// Version is the data file format version written into Metadata.
const Version = "3.0"

// Metadata describes one export.
type Metadata struct {
	TotalArticles    int            `json:"total_articles"`
	ExtractedAt      string         `json:"extracted_at"`
	Source           string         `json:"source"`
	Version          string         `json:"version"`
	ExtractionMethod string         `json:"extraction_method"`
	RunID            string         `json:"run_id,omitempty"`
	Categories       map[string]int `json:"categories,omitempty"`
}

// NewMetadata summarizes articles. extractedAt is passed in rather than
// read from the clock so repeated exports of one run are identical.
func NewMetadata(runID, source, method, extractedAt string, articles []article.Article) Metadata {
	cats := make(map[string]int)
	for _, a := range articles {
		cats[a.Category]++
	}
	return Metadata{
		TotalArticles:    len(articles),
		ExtractedAt:      extractedAt,
		Source:           source,
		Version:          Version,
		ExtractionMethod: method,
		RunID:            runID,
		Categories:       cats,
	}
}

// Writer serializes a sequence to one target format.
type Writer interface {
	Format() string
	Extension() string
	Write(w io.Writer, md Metadata, articles []article.Article) error
}

// ForFormat returns the writer for a format name: json, ts or xlsx.
func ForFormat(name string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSONWriter{Indent: "  "}, nil
	case "ts", "typescript":
		return TypeScriptWriter{}, nil
	case "xlsx", "excel":
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", name)
	}
}

// WriteFile writes the sequence to dir/base.<ext> and returns the path.
func WriteFile(dir, base string, wr Writer, md Metadata, articles []article.Article) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, base+wr.Extension())
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := wr.Write(f, md, articles); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", wr.Format(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return path, nil
}

// sortedCategories returns the category names of md in a stable order.
func sortedCategories(md Metadata) []string {
	names := make([]string, 0, len(md.Categories))
	for c := range md.Categories {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}
