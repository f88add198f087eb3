package detector

import (
	"regexp"

	"github.com/brunobiangulo/golegis/article"
)

// paragraphPattern matches "12. Des obligations du vendeur" at the start
// of a line. Group 1 is the marker ("12."); the capitalised sentence that
// follows belongs to the body.
var paragraphPattern = regexp.MustCompile(`(?m)^[ \t]*(\d{1,4}\.)[ \t]+\p{Lu}`)

// ParagraphStrategy is the last-resort ladder rung for texts that number
// their paragraphs without any "Article" keyword.
type ParagraphStrategy struct{}

func (s *ParagraphStrategy) Name() string { return StrategyParagraph }

func (s *ParagraphStrategy) Detect(text string) []article.Candidate {
	locs := paragraphPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]span, len(locs))
	for i, l := range locs {
		spans[i] = span{start: l[2], end: l[3]}
	}
	return cut(text, spans, article.KindParagraph, nil)
}
