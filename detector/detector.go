// Package detector finds article and section boundaries in raw legal text.
//
// Detection runs an ordered ladder of strategies. The first strategy that
// yields at least MinCandidates candidates wins for the document; later
// strategies are fallbacks and their results are never merged with earlier
// ones.
package detector

import (
	"fmt"
	"strings"

	"github.com/brunobiangulo/golegis/article"
)

// Strategy recognises one family of boundary markers.
type Strategy interface {
	Name() string
	Detect(text string) []article.Candidate
}

// Strategy names accepted in Config.Strategies.
const (
	StrategyNumberedArticle = "numbered_article"
	StrategyStructural      = "structural_section"
	StrategyParagraph       = "numbered_paragraph"
)

// Config controls the detector.
type Config struct {
	// MinCandidates is the number of candidates a strategy must produce to
	// win. Defaults to 1.
	MinCandidates int `json:"min_candidates" yaml:"min_candidates"`

	// SpanStructural lets article bodies run across LIVRE/TITRE/CHAPITRE
	// headers instead of being truncated at them.
	SpanStructural bool `json:"span_structural_headers" yaml:"span_structural_headers"`

	// Strategies lists strategy names in priority order. Empty means
	// numbered_article, structural_section, numbered_paragraph.
	Strategies []string `json:"strategies,omitempty" yaml:"strategies,omitempty"`
}

// Detector runs the strategy ladder.
type Detector struct {
	cfg        Config
	strategies []Strategy
}

// New returns a Detector built from cfg.
// Zero-value fields are replaced with defaults.
func New(cfg Config) (*Detector, error) {
	if cfg.MinCandidates <= 0 {
		cfg.MinCandidates = 1
	}
	names := cfg.Strategies
	if len(names) == 0 {
		names = []string{StrategyNumberedArticle, StrategyStructural, StrategyParagraph}
	}

	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case StrategyNumberedArticle:
			strategies = append(strategies, &ArticleStrategy{Truncate: !cfg.SpanStructural})
		case StrategyStructural:
			strategies = append(strategies, &StructuralStrategy{})
		case StrategyParagraph:
			strategies = append(strategies, &ParagraphStrategy{})
		default:
			return nil, fmt.Errorf("unknown detection strategy %q", name)
		}
	}
	return &Detector{cfg: cfg, strategies: strategies}, nil
}

// NewWithStrategies returns a Detector that tries the given strategies in
// order.
func NewWithStrategies(minCandidates int, strategies ...Strategy) *Detector {
	if minCandidates <= 0 {
		minCandidates = 1
	}
	return &Detector{cfg: Config{MinCandidates: minCandidates}, strategies: strategies}
}

// Detect returns the candidates of the first winning strategy, or nil
// when no strategy reaches MinCandidates.
func (d *Detector) Detect(text string) []article.Candidate {
	cands, _ := d.DetectWithStrategy(text)
	return cands
}

// DetectWithStrategy is Detect that also reports the winning strategy name.
// The name is empty when nothing was detected.
func (d *Detector) DetectWithStrategy(text string) ([]article.Candidate, string) {
	if strings.TrimSpace(text) == "" {
		return nil, ""
	}
	for _, s := range d.strategies {
		cands := s.Detect(text)
		if len(cands) >= d.cfg.MinCandidates {
			return cands, s.Name()
		}
	}
	return nil, ""
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// span is a detected marker: [start,end) of the header within the text.
type span struct {
	start, end int
	level      int
	leaf       bool // preamble: closed by any following header
}

// cut turns ordered marker spans into candidates whose bodies run up to the
// next marker (or limit(i) when it is smaller).
func cut(text string, spans []span, kind article.Kind, limit func(i int) int) []article.Candidate {
	cands := make([]article.Candidate, 0, len(spans))
	for i, s := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		if limit != nil {
			if l := limit(i); l < end {
				end = l
			}
		}
		body := ""
		if s.end < end {
			body = strings.TrimSpace(text[s.end:end])
		}
		cands = append(cands, article.Candidate{
			MarkerText:  strings.TrimSpace(text[s.start:s.end]),
			Body:        body,
			StartOffset: s.start,
			Kind:        kind,
			Level:       s.level,
		})
	}
	return cands
}

// atLineStart reports whether only spaces or tabs separate pos from the
// previous newline (or the start of text).
func atLineStart(text string, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// prevNonSpace returns the last non-whitespace byte before pos, or 0.
func prevNonSpace(text string, pos int) byte {
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return text[i]
		}
	}
	return 0
}
