package classifier

import (
	"sort"

	"github.com/brunobiangulo/golegis/article"
)

// Sequencer orders classified articles by category priority, then by their
// position in the source corpus.
type Sequencer struct {
	prio map[string]int
}

// NewSequencer returns a Sequencer using table's priority list.
func NewSequencer(table Table) *Sequencer {
	prio := make(map[string]int, len(table.Priorities))
	for i, c := range table.Priorities {
		if _, dup := prio[c]; !dup {
			prio[c] = i + 1
		}
	}
	return &Sequencer{prio: prio}
}

// Key returns the sort key of a.
func (s *Sequencer) Key(a article.Article) article.OrderKey {
	p, ok := s.prio[a.Category]
	if !ok {
		p = UnknownPriority
	}
	return article.OrderKey{CategoryPriority: p, SourcePosition: a.Position}
}

// Sequence returns a sorted copy of articles. Ties on the order key are
// broken by id so the result does not depend on the input order.
func (s *Sequencer) Sequence(articles []article.Article) []article.Article {
	out := make([]article.Article, len(articles))
	copy(out, articles)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := s.Key(out[i]), s.Key(out[j])
		if ki != kj {
			return ki.Less(kj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
