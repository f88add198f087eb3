package classifier

import (
	"crypto/sha256"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/brunobiangulo/golegis/article"
)

// DedupeConfig controls duplicate removal on the sequenced output. The
// zero value keeps every article.
type DedupeConfig struct {
	// Exact drops articles whose category and content match an earlier one.
	Exact bool `json:"exact" yaml:"exact"`
	// Similarity, when in (0,1], also drops articles whose content is at
	// least this similar (normalized edit distance) to an earlier article
	// of the same category.
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// Enabled reports whether any de-duplication is configured.
func (c DedupeConfig) Enabled() bool { return c.Exact || c.Similarity > 0 }

// Dedupe removes duplicates from an ordered slice, keeping the first
// occurrence. It returns the kept articles and the number dropped.
func Dedupe(articles []article.Article, cfg DedupeConfig) ([]article.Article, int) {
	if !cfg.Enabled() {
		return articles, 0
	}
	type key struct {
		category string
		sum      [sha256.Size]byte
	}
	seen := make(map[key]bool, len(articles))
	kept := make([]article.Article, 0, len(articles))
	byCategory := make(map[string][]string)
	dropped := 0

	for _, a := range articles {
		k := key{category: a.Category, sum: sha256.Sum256([]byte(a.Content))}
		if seen[k] {
			dropped++
			continue
		}
		if cfg.Similarity > 0 && nearDuplicate(a.Content, byCategory[a.Category], cfg.Similarity) {
			dropped++
			continue
		}
		seen[k] = true
		byCategory[a.Category] = append(byCategory[a.Category], a.Content)
		kept = append(kept, a)
	}
	return kept, dropped
}

func nearDuplicate(content string, previous []string, threshold float64) bool {
	n := utf8.RuneCountInString(content)
	for _, p := range previous {
		m := utf8.RuneCountInString(p)
		longest, shortest := n, m
		if m > n {
			longest, shortest = m, n
		}
		if longest == 0 {
			return true
		}
		// The length gap alone bounds the similarity.
		if float64(shortest)/float64(longest) < threshold {
			continue
		}
		dist := levenshtein.Distance(content, p, nil)
		if 1-float64(dist)/float64(longest) >= threshold {
			return true
		}
	}
	return false
}
