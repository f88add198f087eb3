// Package article holds the records that flow through the extraction
// pipeline: the raw source document, the detector's candidates, and the
// normalized legal article produced at the end.
package article

// Document is one raw legal text handed to the core by an acquisition
// reader. It is never modified once extraction starts.
type Document struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	Title    string `json:"title" yaml:"title"`
	// Category is the declared category; empty means "infer from content".
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Text     string `json:"text" yaml:"-"`

	PromulgatedAt  string `json:"promulgated_at,omitempty" yaml:"date,omitempty"`
	OfficialNumber string `json:"official_number,omitempty" yaml:"number,omitempty"`
	Domain         string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Keywords       string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Authority      string `json:"authority,omitempty" yaml:"authority,omitempty"`
	Format         string `json:"format,omitempty" yaml:"format,omitempty"`
	Path           string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Kind names the detection strategy family that produced a candidate.
type Kind string

const (
	KindArticle   Kind = "article"
	KindSection   Kind = "section"
	KindParagraph Kind = "paragraph"
)

// Candidate is an unvalidated (marker, body) pair found by the detector.
type Candidate struct {
	MarkerText  string
	Body        string
	StartOffset int // byte offset of the marker within the raw text
	Kind        Kind
	Level       int // structural depth for section candidates, 0 otherwise
}

// Article is a normalized, individually addressable legal article.
type Article struct {
	ID          string   `json:"id"`
	Number      string   `json:"number"`
	InlineTitle string   `json:"inline_title,omitempty"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags,omitempty"`
	SourceID    string   `json:"source_id"`
	PublishedBy *string  `json:"published_by"`
	Published   bool     `json:"is_published"`
	ViewCount   int      `json:"views_count"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`

	// Position is the article's place in corpus order (document order,
	// then candidate order). It feeds OrderKey and is not serialized.
	Position int  `json:"-"`
	Kind     Kind `json:"-"`
}

// OrderKey is the sort key of the final sequence.
type OrderKey struct {
	CategoryPriority int
	SourcePosition   int
}

// Less reports whether k sorts before o.
func (k OrderKey) Less(o OrderKey) bool {
	if k.CategoryPriority != o.CategoryPriority {
		return k.CategoryPriority < o.CategoryPriority
	}
	return k.SourcePosition < o.SourcePosition
}
