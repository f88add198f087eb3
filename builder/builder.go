// Package builder turns detector candidates into normalized articles.
package builder

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/textnorm"
)

// Thresholds are the minimum cleaned content lengths, in characters, below
// which a candidate is rejected.
type Thresholds struct {
	Article int `json:"article" yaml:"article"`
	Section int `json:"section" yaml:"section"`
}

// Config controls article construction.
type Config struct {
	Thresholds       Thresholds `json:"thresholds" yaml:"thresholds"`
	Language         string     `json:"language" yaml:"language"`
	SummaryMaxLen    int        `json:"summary_max_len" yaml:"summary_max_len"`
	DefaultTimestamp string     `json:"default_timestamp" yaml:"default_timestamp"`
}

// DefaultConfig returns the builder defaults.
func DefaultConfig() Config {
	return Config{
		Thresholds:       Thresholds{Article: 10, Section: 100},
		Language:         "fr",
		SummaryMaxLen:    200,
		DefaultTimestamp: "2024-01-01T00:00:00Z",
	}
}

// Outcome reports what Build did with a candidate.
type Outcome int

const (
	Built Outcome = iota
	Rejected
	Renamed // built, but the id needed a collision suffix
)

// Builder validates and normalizes candidates. It keeps the set of ids
// handed out so far, so one Builder must serve exactly one run.
type Builder struct {
	cfg Config
	ids *idAllocator
}

// New returns a Builder for one run. Zero-value fields in cfg fall back to
// DefaultConfig.
func New(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.Thresholds.Article <= 0 {
		cfg.Thresholds.Article = def.Thresholds.Article
	}
	if cfg.Thresholds.Section <= 0 {
		cfg.Thresholds.Section = def.Thresholds.Section
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.SummaryMaxLen <= 0 {
		cfg.SummaryMaxLen = def.SummaryMaxLen
	}
	if cfg.DefaultTimestamp == "" {
		cfg.DefaultTimestamp = def.DefaultTimestamp
	}
	return &Builder{cfg: cfg, ids: newIDAllocator()}
}

// Build validates c and turns it into an Article. index is the 1-based
// position of c among its document's candidates and stands in for the id
// when the marker has no usable number. The bool is false when c was
// rejected for insufficient content.
//
// The returned Article has no category yet; the classifier assigns it.
func (b *Builder) Build(c article.Candidate, doc article.Document, index int) (article.Article, bool) {
	a, outcome := b.BuildOutcome(c, doc, index)
	return a, outcome != Rejected
}

// BuildOutcome is Build that also reports whether the id was renamed.
func (b *Builder) BuildOutcome(c article.Candidate, doc article.Document, index int) (article.Article, Outcome) {
	content := textnorm.Clean(c.Body)
	if utf8.RuneCountInString(content) < b.threshold(c.Kind) {
		return article.Article{}, Rejected
	}

	number, inlineTitle := SplitMarker(c.MarkerText)
	if number == "" {
		number = strings.TrimSpace(c.MarkerText)
	}

	id, renamed := b.ids.allocate(baseID(doc.SourceID, number, c.Kind, index))

	heading := inlineTitle
	if heading == "" {
		heading = number
	}
	title := heading
	if doc.Title != "" {
		title = doc.Title + " - " + heading
	}

	stamp := b.timestamp(doc.PromulgatedAt)
	a := article.Article{
		ID:          id,
		Number:      number,
		InlineTitle: inlineTitle,
		Title:       title,
		Content:     content,
		Summary:     summarize(content, b.cfg.SummaryMaxLen),
		Language:    b.cfg.Language,
		Tags:        numberTags(number, c.Kind),
		SourceID:    doc.SourceID,
		Published:   true,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
		Kind:        c.Kind,
	}
	if renamed {
		return a, Renamed
	}
	return a, Built
}

func (b *Builder) threshold(kind article.Kind) int {
	if kind == article.KindSection {
		return b.cfg.Thresholds.Section
	}
	return b.cfg.Thresholds.Article
}

// timestamp normalizes a promulgation date to RFC 3339, falling back to the
// configured default when it is missing or unparseable.
func (b *Builder) timestamp(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return b.cfg.DefaultTimestamp
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02/01/2006", "2006"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return b.cfg.DefaultTimestamp
}

// numberTags returns the bare-number tag ("12" for "Article 12").
func numberTags(number string, kind article.Kind) []string {
	if kind != article.KindSection {
		if key := NumberKey(number); key != "" {
			return []string{key}
		}
	}
	if tag := textnorm.Fold(number); tag != "" {
		return []string{tag}
	}
	return nil
}
