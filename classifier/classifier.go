// Package classifier assigns categories to articles and arranges them in
// their final order.
package classifier

import (
	"strings"

	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/textnorm"
)

// Classifier assigns a category to each article from a Table.
type Classifier struct {
	table Table
	rules []compiledRule
}

type compiledRule struct {
	category string
	keywords []string // normalized, space padded
}

// New returns a Classifier for table. An empty Default falls back to the
// default table's catch-all.
func New(table Table) *Classifier {
	if table.Default == "" {
		table.Default = DefaultTable().Default
	}
	c := &Classifier{table: table}
	for _, r := range table.Rules {
		cr := compiledRule{category: r.Category}
		for _, kw := range r.Keywords {
			if n := normalize(kw); n != "" {
				cr.keywords = append(cr.keywords, " "+n+" ")
			}
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

// Table returns the table the classifier was built from.
func (c *Classifier) Table() Table { return c.table }

// Classify returns a with its category set. A category declared on the
// document wins; otherwise the title and content are matched against the
// keyword rules, falling back to the table default.
//
// The category is also prepended to the article's tags.
func (c *Classifier) Classify(a article.Article, doc article.Document) article.Article {
	category := strings.TrimSpace(doc.Category)
	if category == "" {
		category, _ = c.Infer(a.Title + " " + a.Content)
	}
	a.Category = category
	a.Tags = withCategoryTag(a.Tags, category)
	return a
}

// Infer returns the category selected by the keyword rules for text. The
// bool is false when the default category was used.
func (c *Classifier) Infer(text string) (string, bool) {
	haystack := " " + normalize(text) + " "
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return r.category, true
			}
		}
	}
	return c.table.Default, false
}

// normalize folds accents and case and reduces text to single-space
// separated words, so keywords match on whole words only.
func normalize(text string) string {
	return textnorm.Slug(text, ' ')
}

func withCategoryTag(tags []string, category string) []string {
	tag := strings.ReplaceAll(category, "_", " ")
	if tag == "" {
		return tags
	}
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	out := make([]string, 0, len(tags)+1)
	out = append(out, tag)
	return append(out, tags...)
}
