package domain

import (
	"sort"
	"strings"
	"unicode/utf8"

	pairing "flavorlab/internal/modules/pairing/domain"
)

const DefaultMaxResults = 10

type nameEntry struct {
	lower string
	node  int
}

type suffixEntry struct {
	suffix string
	// rank is the owning node's position in the sorted name table.
	rank int
}

// Resolver maps free text to ingredients in three tiers: exact name, name
// prefix, then name substring. Within a tier results are alphabetical by
// lowercased name, then id. It is immutable after construction.
type Resolver struct {
	max      int
	nodes    []Node
	exact    map[string]int
	names    []nameEntry
	suffixes []suffixEntry
}

func NewResolver(index *Index, maxResults int) *Resolver {
	if maxResults < 1 {
		maxResults = DefaultMaxResults
	}
	nodes := index.Nodes()
	r := &Resolver{
		max:   maxResults,
		nodes: nodes,
		exact: make(map[string]int, len(nodes)),
		names: make([]nameEntry, len(nodes)),
	}
	for i, n := range nodes {
		lower := pairing.NormalizeName(n.Name)
		r.exact[lower] = i
		r.names[i] = nameEntry{lower: lower, node: i}
	}
	sort.Slice(r.names, func(i, j int) bool {
		a, b := r.names[i], r.names[j]
		if a.lower != b.lower {
			return a.lower < b.lower
		}
		return nodes[a.node].ID < nodes[b.node].ID
	})
	for rank, e := range r.names {
		for off := 0; off < len(e.lower); {
			r.suffixes = append(r.suffixes, suffixEntry{suffix: e.lower[off:], rank: rank})
			_, size := utf8.DecodeRuneInString(e.lower[off:])
			off += size
		}
	}
	sort.Slice(r.suffixes, func(i, j int) bool {
		a, b := r.suffixes[i], r.suffixes[j]
		if a.suffix != b.suffix {
			return a.suffix < b.suffix
		}
		return a.rank < b.rank
	})
	return r
}

func (r *Resolver) MaxResults() int { return r.max }

// Resolve returns at most MaxResults candidates for query. A blank query
// yields an empty slice.
func (r *Resolver) Resolve(query string) []Node {
	q := pairing.NormalizeName(query)
	out := make([]Node, 0, r.max)
	if q == "" {
		return out
	}
	seen := make(map[int]struct{}, r.max)
	add := func(node int) bool {
		if _, dup := seen[node]; !dup {
			seen[node] = struct{}{}
			out = append(out, r.nodes[node])
		}
		return len(out) < r.max
	}

	if i, ok := r.exact[q]; ok {
		add(i)
	}

	start := sort.Search(len(r.names), func(i int) bool { return r.names[i].lower >= q })
	for i := start; i < len(r.names) && len(out) < r.max && strings.HasPrefix(r.names[i].lower, q); i++ {
		add(r.names[i].node)
	}
	if len(out) >= r.max {
		return out
	}

	ranks := make(map[int]struct{})
	start = sort.Search(len(r.suffixes), func(i int) bool { return r.suffixes[i].suffix >= q })
	for i := start; i < len(r.suffixes) && strings.HasPrefix(r.suffixes[i].suffix, q); i++ {
		ranks[r.suffixes[i].rank] = struct{}{}
	}
	ordered := make([]int, 0, len(ranks))
	for rank := range ranks {
		ordered = append(ordered, rank)
	}
	sort.Ints(ordered)
	for _, rank := range ordered {
		if !add(r.names[rank].node) {
			break
		}
	}
	return out
}
