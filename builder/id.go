package builder

import (
	"strconv"

	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/textnorm"
)

// idAllocator hands out article ids that are unique within one run.
// Colliding ids are disambiguated with "_2", "_3", ... in the order they
// are requested.
type idAllocator struct {
	used map[string]bool
	next map[string]int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]bool), next: make(map[string]int)}
}

// allocate reserves base, or the first free "base_N". renamed reports
// whether a suffix was needed.
func (a *idAllocator) allocate(base string) (id string, renamed bool) {
	if !a.used[base] {
		a.used[base] = true
		return base, false
	}
	n := a.next[base]
	if n < 2 {
		n = 2
	}
	for {
		id = base + "_" + strconv.Itoa(n)
		n++
		if !a.used[id] {
			break
		}
	}
	a.next[base] = n
	a.used[id] = true
	return id, true
}

// baseID derives "{source}_{number}" for a candidate. Articles and
// paragraphs use their parsed numeral; sections use the slug of their
// heading number. index (1-based) stands in when neither yields anything.
func baseID(sourceID, number string, kind article.Kind, index int) string {
	prefix := textnorm.Slug(sourceID, '_')
	if prefix == "" {
		prefix = "doc"
	}
	var key string
	if kind == article.KindSection {
		key = textnorm.Slug(number, '-')
	} else {
		key = NumberKey(number)
	}
	if key == "" {
		key = strconv.Itoa(index)
	}
	return prefix + "_" + key
}
