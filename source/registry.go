package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options configures the built-in readers.
type Options struct {
	// Fallback is the charset used for input that is not valid UTF-8
	// ("windows-1252", "iso-8859-1", ...). Empty or "none" disables it.
	Fallback string
	// Readability extracts the main content of HTML pages before
	// converting them to text.
	Readability bool
}

type Registry struct {
	readers map[string]Reader
}

// NewRegistry returns a registry with the pdf, docx, txt, sql and html
// readers.
func NewRegistry(opts Options) *Registry {
	r := &Registry{readers: make(map[string]Reader)}
	for _, rd := range []Reader{
		&PDFReader{},
		&DOCXReader{},
		&TextReader{Fallback: opts.Fallback},
		&SQLDumpReader{Fallback: opts.Fallback},
		&HTMLReader{Readability: opts.Readability},
	} {
		for _, f := range rd.SupportedFormats() {
			r.readers[f] = rd
		}
	}
	return r
}

func (r *Registry) Get(format string) (Reader, error) {
	rd, ok := r.readers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return rd, nil
}

func (r *Registry) Register(format string, rd Reader) {
	r.readers[strings.ToLower(format)] = rd
}

// Formats returns the registered format names.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.readers))
	for f := range r.readers {
		out = append(out, f)
	}
	return out
}

// Read extracts the text of path with the reader for format, or for the
// file extension when format is empty. Blank output is ErrEmptySource.
func (r *Registry) Read(ctx context.Context, path, format string) (string, error) {
	if format == "" {
		format = FormatOf(path)
	}
	rd, err := r.Get(format)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	text, err := rd.Read(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptySource, filepath.Base(path))
	}
	return text, nil
}

// FormatOf returns the lower-cased extension of path without the dot.
func FormatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
