package eval

import (
	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/textnorm"
)

// numberKey normalizes an article number for comparison, so "Article 1",
// "ARTICLE 1." and "article  1" all match.
func numberKey(n string) string { return textnorm.Slug(n, ' ') }

// computePrecision is the share of extracted numbers that were expected.
// Each expected number can be matched once.
func computePrecision(got, want []string) float64 {
	if len(got) == 0 {
		if len(want) == 0 {
			return 1
		}
		return 0
	}
	return clamp(float64(matches(got, want)) / float64(len(got)))
}

// computeRecall is the share of expected numbers that were extracted.
func computeRecall(got, want []string) float64 {
	if len(want) == 0 {
		return 1
	}
	return clamp(float64(matches(got, want)) / float64(len(want)))
}

func matches(got, want []string) int {
	remaining := make(map[string]int, len(want))
	for _, w := range want {
		remaining[numberKey(w)]++
	}
	n := 0
	for _, g := range got {
		k := numberKey(g)
		if remaining[k] > 0 {
			remaining[k]--
			n++
		}
	}
	return n
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// computeOrderAccuracy reports whether the extracted numbers appear in the
// expected order: 1 when they do, 0 otherwise.
func computeOrderAccuracy(got, want []string) float64 {
	if len(got) != len(want) {
		return 0
	}
	for i := range got {
		if numberKey(got[i]) != numberKey(want[i]) {
			return 0
		}
	}
	return 1
}

// computeCategoryAccuracy is the share of articles carrying the expected
// category. An empty expectation always scores 1.
func computeCategoryAccuracy(arts []article.Article, want string) float64 {
	if want == "" {
		return 1
	}
	if len(arts) == 0 {
		return 0
	}
	ok := 0
	for _, a := range arts {
		if a.Category == want {
			ok++
		}
	}
	return float64(ok) / float64(len(arts))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
