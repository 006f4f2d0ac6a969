package out

import (
	"path/filepath"
	"strings"

	pairingout "flavorlab/internal/modules/pairing/port/out"
)

// NewArtifactStore picks the SQLite store for .db/.sqlite paths and the JSON
// store otherwise.
func NewArtifactStore(path string) (pairingout.ArtifactStore, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteArtifactStore(path)
	default:
		return NewJSONArtifactStore(path), nil
	}
}
