package detector

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brunobiangulo/golegis/article"
)

// articlePattern matches "Article 12", "Art. 12.-", "ARTICLE 3-1 :",
// "Article premier", "Art. 1er", "Article 12 bis". Group 1 is the keyword,
// group 2 the number, group 3 the optional trailing separator.
var articlePattern = regexp.MustCompile(
	`(?i)\b(article|art\.)[ \t]*(premier|1er|\d+(?:[.\-]\d+)*(?:[ \t]*(?:bis|ter|quater|quinquies|sexies)\b)?)([ \t]*(?:\.[ \t]*-|–|-|:|\.))?`,
)

// ArticleStrategy detects numbered-article headers.
type ArticleStrategy struct {
	// Truncate ends an article body at the first structural header
	// (LIVRE, TITRE, ...) that appears before the next article.
	Truncate bool
}

func (s *ArticleStrategy) Name() string { return StrategyNumberedArticle }

// Detect returns one candidate per accepted article header, in text order.
func (s *ArticleStrategy) Detect(text string) []article.Candidate {
	spans := ArticleBoundaries(text)
	if len(spans) == 0 {
		return nil
	}

	var limit func(i int) int
	if s.Truncate {
		headers := StructuralHeaders(text)
		limit = func(i int) int {
			j := sort.Search(len(headers), func(k int) bool { return headers[k].start >= spans[i].end })
			if j < len(headers) {
				return headers[j].start
			}
			return len(text)
		}
	}
	for i := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		if limit != nil {
			end = min(end, limit(i))
		}
		spans[i].end = headingEnd(text, spans[i], end)
	}
	return cut(text, spans, article.KindArticle, limit)
}

// maxHeadingRunes bounds the inline title carried on a header line.
const maxHeadingRunes = 120

// headingEnd extends a marker ending in "-", "–" or ":" over the rest of
// its line when that line reads as a heading ("Article 5 – Du divorce")
// and the body starts on the next line, before bodyEnd. Otherwise it
// returns s.end unchanged.
func headingEnd(text string, s span, bodyEnd int) int {
	marker := strings.TrimSpace(text[s.start:s.end])
	if !strings.HasSuffix(marker, "-") && !strings.HasSuffix(marker, "–") && !strings.HasSuffix(marker, ":") {
		return s.end
	}
	eol := strings.IndexByte(text[s.end:], '\n')
	if eol < 0 {
		return s.end
	}
	eol += s.end
	if eol >= bodyEnd {
		return s.end
	}
	heading := strings.TrimSpace(text[s.end:eol])
	if !isHeading(heading) {
		return s.end
	}
	rest := strings.TrimSpace(text[eol:bodyEnd])
	if rest == "" {
		return s.end
	}
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsLower(r) {
		// A lower-case continuation means the line was wrapped mid-sentence.
		return s.end
	}
	return eol
}

func isHeading(line string) bool {
	if line == "" || utf8.RuneCountInString(line) > maxHeadingRunes {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(line); !unicode.IsUpper(r) {
		return false
	}
	return !strings.ContainsRune(".;:,", rune(line[len(line)-1]))
}

// ArticleBoundaries returns the header spans of all accepted article
// markers. A match is accepted as a header when it starts a line, when it
// carries an explicit separator ("-", "–", ":"), or when it follows the end
// of a sentence with a capitalised keyword. In-sentence references such as
// "l'article 12 du présent code" are rejected.
func ArticleBoundaries(text string) []span {
	matches := articlePattern.FindAllStringSubmatchIndex(text, -1)
	var spans []span
	for _, m := range matches {
		start, end := m[0], m[1]
		sep := ""
		if m[6] >= 0 {
			sep = strings.TrimSpace(text[m[6]:m[7]])
		}
		if !isHeader(text, start, sep) {
			continue
		}
		spans = append(spans, span{start: start, end: end})
	}
	return spans
}

func isHeader(text string, start int, sep string) bool {
	if atLineStart(text, start) {
		return true
	}
	if strings.ContainsAny(sep, "-–:") {
		return true
	}
	switch prevNonSpace(text, start) {
	case '.', ';', ':':
		return text[start] == 'A'
	}
	return false
}
