package golegis

import (
	"errors"

	"github.com/brunobiangulo/golegis/source"
	"github.com/brunobiangulo/golegis/store"
)

var (
	// ErrUnsupportedFormat is returned for source formats without a reader.
	ErrUnsupportedFormat = source.ErrUnsupportedFormat

	// ErrSourceUnreadable is returned when a source file cannot be opened
	// or parsed.
	ErrSourceUnreadable = source.ErrSourceUnreadable

	// ErrUnreadableEncoding is returned for text that is not UTF-8 when no
	// fallback charset is configured.
	ErrUnreadableEncoding = source.ErrUnreadableEncoding

	// ErrEmptySource is returned when a source yields no text.
	ErrEmptySource = source.ErrEmptySource

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("golegis: invalid configuration")

	// ErrArticleNotFound is returned when an article id does not exist.
	ErrArticleNotFound = store.ErrArticleNotFound

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = store.ErrStoreClosed

	// ErrNoSources is returned when an extraction is started without any
	// source document.
	ErrNoSources = errors.New("golegis: no sources to extract")
)
