// Package source reads raw legal texts from files. Each format has a
// Reader; the Registry maps formats to readers.
package source

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedFormat  = errors.New("golegis: unsupported source format")
	ErrSourceUnreadable   = errors.New("golegis: source unreadable")
	ErrUnreadableEncoding = errors.New("golegis: unreadable text encoding")
	ErrEmptySource        = errors.New("golegis: no text extracted from source")
)

// Reader extracts the raw text of a source file.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
	SupportedFormats() []string
}
