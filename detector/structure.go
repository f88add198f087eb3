package detector

import (
	"regexp"
	"strings"

	"github.com/brunobiangulo/golegis/article"
)

// ---------------------------------------------------------------------------
// Structural header detection
// ---------------------------------------------------------------------------

// structuralPattern matches upper-case structural headers at the start of
// a line: "LIVRE I - DES INFRACTIONS", "TITRE II", "CHAPITRE PREMIER",
// "PREAMBULE", "BOOK 2", "PART III". Group 1 is a preamble keyword, group 2
// a numbered keyword.
var structuralPattern = regexp.MustCompile(
	`(?m)^[ \t]*(?:(PR[ÉE]AMBULE|PREAMBLE)\b|(LIVRE|TITRE|CHAPITRE|SECTION|PARTIE|BOOK|TITLE|CHAPTER|PART)[ \t]+(?:[IVXLC]+(?:er|ER)?\b|\d+(?:er|ER)?\b|PREMIER\b|UNIQUE\b|PR[ÉE]LIMINAIRE\b))[^\n]*`,
)

// structuralLevels maps structural keywords to their depth. Lower is
// higher in the hierarchy.
var structuralLevels = map[string]int{
	"PREAMBULE": 1,
	"PRÉAMBULE": 1,
	"PREAMBLE":  1,
	"LIVRE":     1,
	"BOOK":      1,
	"PARTIE":    1,
	"PART":      1,
	"TITRE":     2,
	"TITLE":     2,
	"CHAPITRE":  3,
	"CHAPTER":   3,
	"SECTION":   4,
}

// maxHeaderLen caps the header line kept as marker text.
const maxHeaderLen = 160

// StructuralHeaders returns the spans of all structural header lines in
// text order. Each span covers the header line (without the newline).
func StructuralHeaders(text string) []span {
	matches := structuralPattern.FindAllStringSubmatchIndex(text, -1)
	spans := make([]span, 0, len(matches))
	for _, m := range matches {
		var kw string
		leaf := false
		if m[2] >= 0 {
			kw = text[m[2]:m[3]]
			leaf = true
		} else {
			kw = text[m[4]:m[5]]
		}
		start := m[0]
		for start < m[1] && (text[start] == ' ' || text[start] == '\t') {
			start++
		}
		end := m[1]
		if end-start > maxHeaderLen {
			end = start + maxHeaderLen
			// Do not split a UTF-8 sequence.
			for end > start && end < len(text) && text[end]&0xC0 == 0x80 {
				end--
			}
		}
		spans = append(spans, span{start: start, end: end, level: structuralLevels[kw], leaf: leaf})
	}
	return spans
}

// HeaderLevel returns the structural level of a header line, or 0 when the
// line is not a structural header.
func HeaderLevel(line string) int {
	spans := StructuralHeaders(strings.TrimSpace(line))
	if len(spans) == 0 || spans[0].start != 0 {
		return 0
	}
	return spans[0].level
}

// ---------------------------------------------------------------------------
// Structural-section strategy
// ---------------------------------------------------------------------------

// StructuralStrategy treats each structural header as a section whose
// body runs to the next header of the same or a higher level. Sections
// therefore nest: a LIVRE body contains its TITRE children. A preamble
// ends at the next header of any level.
type StructuralStrategy struct{}

func (s *StructuralStrategy) Name() string { return StrategyStructural }

func (s *StructuralStrategy) Detect(text string) []article.Candidate {
	headers := StructuralHeaders(text)
	if len(headers) == 0 {
		return nil
	}

	cands := make([]article.Candidate, 0, len(headers))
	for i, h := range headers {
		bodyStart := lineEnd(text, h.end)
		end := len(text)
		for _, next := range headers[i+1:] {
			if h.leaf || next.level <= h.level {
				end = next.start
				break
			}
		}
		body := ""
		if bodyStart < end {
			body = strings.TrimSpace(text[bodyStart:end])
		}
		cands = append(cands, article.Candidate{
			MarkerText:  strings.TrimSpace(text[h.start:h.end]),
			Body:        body,
			StartOffset: h.start,
			Kind:        article.KindSection,
			Level:       h.level,
		})
	}
	return cands
}

// lineEnd returns the index just past the end of the line containing pos.
func lineEnd(text string, pos int) int {
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(text)
}
