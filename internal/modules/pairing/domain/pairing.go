package domain

import "strings"

const DefaultK = 3

// Node is an ingredient. Names are unique case-insensitively.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Edge is an unordered pairing between two node ids.
type Edge struct {
	A     string
	B     string
	Score float64
}

// Neighbor is one entry of a reduced neighbor list.
type Neighbor struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Artifact is the reduced graph consumed at runtime. Nodes are sorted by id
// and every node has an entry in Neighbors, possibly empty.
type Artifact struct {
	K         int                   `json:"k"`
	Nodes     []Node                `json:"nodes"`
	Neighbors map[string][]Neighbor `json:"neighbors"`
}

func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// less orders neighbors by score descending, then id ascending.
func less(a, b Neighbor) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// Ordered reports whether list respects the neighbor ordering with no
// repeated ids.
func Ordered(list []Neighbor) bool {
	seen := make(map[string]struct{}, len(list))
	for i, n := range list {
		if _, dup := seen[n.ID]; dup {
			return false
		}
		seen[n.ID] = struct{}{}
		if i > 0 && !less(list[i-1], n) {
			return false
		}
	}
	return true
}
