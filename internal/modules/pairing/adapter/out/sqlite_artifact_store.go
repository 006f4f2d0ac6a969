package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"flavorlab/internal/modules/pairing/domain"
	pairingout "flavorlab/internal/modules/pairing/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteArtifactStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteArtifactStore(dbPath string) (pairingout.ArtifactStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteArtifactStore{path: dbPath, db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteArtifactStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS artifact_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ingredients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS pairings (
  node_id TEXT NOT NULL,
  rank INTEGER NOT NULL,
  neighbor_id TEXT NOT NULL,
  score REAL NOT NULL,
  PRIMARY KEY (node_id, rank)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create artifact tables: %w", err)
	}
	return nil
}

// Save replaces the stored artifact in one transaction.
func (s *SQLiteArtifactStore) Save(ctx context.Context, artifact domain.Artifact) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin artifact tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM pairings`, `DELETE FROM ingredients`, `DELETE FROM artifact_meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("clear artifact: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO artifact_meta (key, value) VALUES ('k', ?)`, strconv.Itoa(artifact.K)); err != nil {
		return "", fmt.Errorf("insert meta: %w", err)
	}
	for _, n := range artifact.Nodes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ingredients (id, name, category) VALUES (?, ?, ?)`, n.ID, n.Name, n.Category); err != nil {
			return "", fmt.Errorf("insert ingredient %s: %w", n.ID, err)
		}
		for rank, nb := range artifact.Neighbors[n.ID] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pairings (node_id, rank, neighbor_id, score) VALUES (?, ?, ?, ?)`,
				n.ID, rank, nb.ID, nb.Score); err != nil {
				return "", fmt.Errorf("insert pairing %s/%d: %w", n.ID, rank, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit artifact: %w", err)
	}
	return s.path, nil
}

func (s *SQLiteArtifactStore) Load(ctx context.Context) (domain.Artifact, error) {
	artifact := domain.Artifact{Nodes: []domain.Node{}, Neighbors: map[string][]domain.Neighbor{}}

	var rawK string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM artifact_meta WHERE key = 'k'`).Scan(&rawK)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return domain.Artifact{}, fmt.Errorf("read meta: %w", err)
	default:
		if artifact.K, err = strconv.Atoi(rawK); err != nil {
			return domain.Artifact{}, fmt.Errorf("parse k: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, category FROM ingredients ORDER BY id`)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("query ingredients: %w", err)
	}
	nodes, err := scanIngredients(rows)
	if err != nil {
		return domain.Artifact{}, err
	}
	for _, n := range nodes {
		artifact.Nodes = append(artifact.Nodes, n)
		artifact.Neighbors[n.ID] = []domain.Neighbor{}
	}

	rows, err = s.db.QueryContext(ctx, `SELECT node_id, neighbor_id, score FROM pairings ORDER BY node_id, rank`)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("query pairings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			nodeID string
			nb     domain.Neighbor
		)
		if err := rows.Scan(&nodeID, &nb.ID, &nb.Score); err != nil {
			return domain.Artifact{}, fmt.Errorf("scan pairing: %w", err)
		}
		artifact.Neighbors[nodeID] = append(artifact.Neighbors[nodeID], nb)
	}
	return artifact, rows.Err()
}

// rowIterator is the part of *sql.Rows the scanners need.
type rowIterator interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// scanIngredients drains rows and closes them. An iteration error fails the
// whole read.
func scanIngredients(rows rowIterator) ([]domain.Node, error) {
	defer rows.Close()
	var nodes []domain.Node
	for rows.Next() {
		var n domain.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Category); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ingredients: %w", err)
	}
	return nodes, nil
}

func (s *SQLiteArtifactStore) Close() error {
	return s.db.Close()
}
