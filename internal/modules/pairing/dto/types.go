package dto

import "time"

type ReduceInput struct {
	K int
}

type ReduceOutput struct {
	ArtifactPath string    `json:"artifact_path"`
	K            int       `json:"k"`
	Nodes        int       `json:"nodes"`
	SkippedNodes int       `json:"skipped_nodes"`
	Edges        int       `json:"edges"`
	Accepted     int       `json:"accepted"`
	Duplicates   int       `json:"duplicates"`
	Malformed    int       `json:"malformed"`
	InvalidScore int       `json:"invalid_score"`
	SkippedEdges int       `json:"skipped_edges"`
	Examples     []string  `json:"examples,omitempty"`
	ReducedAt    time.Time `json:"reduced_at"`
}
