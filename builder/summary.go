package builder

import (
	"strings"

	"github.com/brunobiangulo/golegis/textnorm"
)

// summarize returns the lead sentences of content, up to maxLen bytes.
// A first sentence longer than maxLen is cut on a word boundary.
func summarize(content string, maxLen int) string {
	if content == "" || maxLen <= 0 {
		return ""
	}
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return ""
	}
	result := sentences[0]
	if len(result) > maxLen {
		return textnorm.Truncate(result, maxLen)
	}
	for _, s := range sentences[1:] {
		if len(result)+1+len(s) > maxLen {
			break
		}
		result += " " + s
	}
	return result
}

// splitSentences splits text at period/question/exclamation/semicolon
// boundaries followed by whitespace or end of string. Abbreviations such as
// "art." and "al." do not end a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		switch runes[i] {
		case '.', '?', '!', ';':
		default:
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' && runes[i+1] != '\t' {
			continue
		}
		if runes[i] == '.' && endsWithAbbreviation(cur.String()) {
			continue
		}
		if s := strings.TrimSpace(cur.String()); s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

var abbreviations = []string{"art.", "al.", "n°.", "cf.", "ex.", "etc.", "m.", "mme."}

func endsWithAbbreviation(s string) bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false
	}
	last := fields[len(fields)-1]
	for _, a := range abbreviations {
		if last == a {
			return true
		}
	}
	return false
}
