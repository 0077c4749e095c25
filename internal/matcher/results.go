package matcher

import (
	"iter"

	"github.com/dshills/kwindex/pkg/types"
)

// Results maps keywords to their hits. Keywords keep the order of the
// keyword lists and hits keep the order they were found in.
type Results struct {
	keywords []types.Keyword
	index    map[types.KeywordKey]int
	hits     [][]types.Hit
	total    int
}

func newResults(keywords []types.Keyword, index map[types.KeywordKey]int) *Results {
	return &Results{
		keywords: keywords,
		index:    index,
		hits:     make([][]types.Hit, len(keywords)),
	}
}

func (r *Results) add(i int, hits ...types.Hit) {
	r.hits[i] = append(r.hits[i], hits...)
	r.total += len(hits)
}

// Keywords returns the keywords with at least one hit
func (r *Results) Keywords() []types.Keyword {
	var out []types.Keyword
	for i, hits := range r.hits {
		if len(hits) > 0 {
			out = append(out, r.keywords[i])
		}
	}
	return out
}

// Hits returns the hits for kw
func (r *Results) Hits(kw types.Keyword) []types.Hit {
	i, ok := r.index[kw.Key()]
	if !ok {
		return nil
	}
	return r.hits[i]
}

// Len returns the total number of hits
func (r *Results) Len() int {
	return r.total
}

// Empty reports whether no keyword was found
func (r *Results) Empty() bool {
	return r.total == 0
}

// All iterates over the keywords with hits, in keyword order
func (r *Results) All() iter.Seq2[types.Keyword, []types.Hit] {
	return func(yield func(types.Keyword, []types.Hit) bool) {
		for i, hits := range r.hits {
			if len(hits) == 0 {
				continue
			}
			if !yield(r.keywords[i], hits) {
				return
			}
		}
	}
}
