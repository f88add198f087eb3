package builder

import (
	"regexp"
	"strings"
)

// markerSeparators are tried in order; the first one present in the marker
// splits it into number and inline title.
var markerSeparators = []string{"–", "-", ":", ".-", ". -"}

// markerTrim is stripped from the end of the number and the start of the
// inline title after splitting.
const markerTrim = " \t.:-–"

// SplitMarker splits a marker like "Article 3.- Du mariage" into its number
// ("Article 3") and inline title ("Du mariage"). A marker without any
// separator is all number.
func SplitMarker(marker string) (number, inlineTitle string) {
	marker = strings.TrimSpace(marker)
	for _, sep := range markerSeparators {
		idx := separatorIndex(marker, sep)
		if idx < 0 {
			continue
		}
		number = strings.TrimRight(marker[:idx], markerTrim)
		inlineTitle = strings.TrimLeft(marker[idx+len(sep):], markerTrim)
		if number == "" {
			break
		}
		return number, strings.TrimSpace(inlineTitle)
	}
	return strings.TrimRight(marker, " \t.:"), ""
}

// separatorIndex finds sep in s, skipping occurrences wedged between two
// digits ("Art. 3-1" is a sub-number, not a separator).
func separatorIndex(s, sep string) int {
	from := 0
	for {
		i := strings.Index(s[from:], sep)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(sep)
		if !(i > 0 && isDigit(s[i-1]) && end < len(s) && isDigit(s[end])) {
			return i
		}
		from = end
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

var numberPattern = regexp.MustCompile(`(?i)(premier|1er|\d+(?:[.\-]\d+)*)(?:[ \t]*(bis|ter|quater|quinquies|sexies)\b)?`)

// NumberKey returns the identifier-safe form of an article number:
// "Article 12.3" gives "12-3", "Art. 1er" gives "1", "Article 4 bis" gives
// "4-bis". It returns "" when the number carries no numeral.
func NumberKey(number string) string {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return ""
	}
	key := strings.ToLower(m[1])
	if key == "premier" || key == "1er" {
		key = "1"
	}
	key = strings.ReplaceAll(key, ".", "-")
	if m[2] != "" {
		key += "-" + strings.ToLower(m[2])
	}
	return key
}
