package out

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"flavorlab/internal/modules/pairing/domain"
	pairingout "flavorlab/internal/modules/pairing/port/out"
	apperrors "flavorlab/internal/platform/errors"
)

const hubMarker = "hub"

// CSVEdgeSource reads the ingredient node table and the pairing edge table.
// Edges whose edge_type differs from EdgeType are dropped when EdgeType is set.
// With HubOnly, non-hub nodes and every edge touching them are dropped
// silently; such edges never reach the reducer.
type CSVEdgeSource struct {
	NodesPath string
	EdgesPath string
	EdgeType  string
	HubOnly   bool
}

func NewCSVEdgeSource(nodesPath, edgesPath, edgeType string, hubOnly bool) pairingout.EdgeSource {
	return &CSVEdgeSource{NodesPath: nodesPath, EdgesPath: edgesPath, EdgeType: edgeType, HubOnly: hubOnly}
}

type nodeRow struct {
	node  domain.Node
	isHub bool
	// hasHub is false when the table has no is_hub column.
	hasHub bool
}

type edgeRow struct {
	edge     domain.Edge
	edgeType string
}

func (s *CSVEdgeSource) Load(ctx context.Context) ([]domain.Node, []domain.Edge, error) {
	var (
		nodeRows []nodeRow
		edgeRows []edgeRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := readNodes(gctx, s.NodesPath)
		nodeRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := readEdges(gctx, s.EdgesPath)
		edgeRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	dropped := make(map[string]struct{})
	nodes := make([]domain.Node, 0, len(nodeRows))
	for _, row := range nodeRows {
		if s.HubOnly && row.hasHub && !row.isHub {
			dropped[strings.TrimSpace(row.node.ID)] = struct{}{}
			continue
		}
		nodes = append(nodes, row.node)
	}

	edges := make([]domain.Edge, 0, len(edgeRows))
	for _, row := range edgeRows {
		if s.EdgeType != "" && row.edgeType != "" && row.edgeType != s.EdgeType {
			continue
		}
		if _, ok := dropped[row.edge.A]; ok {
			continue
		}
		if _, ok := dropped[row.edge.B]; ok {
			continue
		}
		edges = append(edges, row.edge)
	}
	return nodes, edges, nil
}

type table struct {
	path   string
	header map[string]int
	reader *csv.Reader
	closer io.Closer
}

func openTable(path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	head, err := r.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", apperrors.ErrInvalidInput, path)
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	header := make(map[string]int, len(head))
	for i, col := range head {
		col = strings.TrimPrefix(col, "\ufeff")
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s: missing column %q", apperrors.ErrInvalidInput, path, col)
		}
	}
	return &table{path: path, header: header, reader: r, closer: f}, nil
}

// each calls fn for every data row until EOF or ctx is done.
func (t *table) each(ctx context.Context, fn func(get func(col string) string)) error {
	defer t.closer.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := t.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", t.path, err)
		}
		fn(func(col string) string {
			i, ok := t.header[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		})
	}
}

func (t *table) has(col string) bool {
	_, ok := t.header[col]
	return ok
}

func readNodes(ctx context.Context, path string) ([]nodeRow, error) {
	t, err := openTable(path, "node_id", "name")
	if err != nil {
		return nil, err
	}
	hasHub := t.has("is_hub")
	var rows []nodeRow
	err = t.each(ctx, func(get func(string) string) {
		rows = append(rows, nodeRow{
			node: domain.Node{
				ID:       get("node_id"),
				Name:     get("name"),
				Category: get("category"),
			},
			isHub:  strings.EqualFold(get("is_hub"), hubMarker),
			hasHub: hasHub,
		})
	})
	return rows, err
}

func readEdges(ctx context.Context, path string) ([]edgeRow, error) {
	t, err := openTable(path, "id_1", "id_2", "score")
	if err != nil {
		return nil, err
	}
	var rows []edgeRow
	err = t.each(ctx, func(get func(string) string) {
		rows = append(rows, edgeRow{
			edge: domain.Edge{
				A:     get("id_1"),
				B:     get("id_2"),
				Score: parseScore(get("score")),
			},
			edgeType: get("edge_type"),
		})
	})
	return rows, err
}

// parseScore maps unparsable scores to NaN so the reducer reports them as
// invalid scores instead of failing the whole load.
func parseScore(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
