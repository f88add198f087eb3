package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// TextReader reads plain text files. Input that is not valid UTF-8 is
// decoded with the Fallback charset.
type TextReader struct {
	Fallback string
}

func (p *TextReader) SupportedFormats() []string { return []string{"txt", "text"} }

func (p *TextReader) Read(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading text file: %v", ErrSourceUnreadable, err)
	}
	return decode(data, p.Fallback)
}

// decode returns data as UTF-8, stripping a byte-order mark. Invalid UTF-8
// is decoded with the fallback charset or rejected with
// ErrUnreadableEncoding when there is none.
func decode(data []byte, fallback string) (string, error) {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}
	fallback = strings.TrimSpace(fallback)
	if fallback == "" || strings.EqualFold(fallback, "none") {
		return "", ErrUnreadableEncoding
	}
	enc, err := htmlindex.Get(fallback)
	if err != nil {
		return "", fmt.Errorf("%w: unknown fallback charset %q", ErrUnreadableEncoding, fallback)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableEncoding, err)
	}
	return string(out), nil
}
