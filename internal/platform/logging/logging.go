package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	hclog "github.com/hashicorp/go-hclog"

	"flavorlab/internal/platform/config"
)

// New builds the root logger. Output goes to cfg.File when set, otherwise to
// fallback; a nil fallback with no file discards everything.
func New(cfg config.LogConfig, fallback io.Writer) (hclog.Logger, func() error, error) {
	out := fallback
	closeFn := func() error { return nil }
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}
	if out == nil {
		return hclog.NewNullLogger(), closeFn, nil
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "flavorlab",
		Level:      hclog.LevelFromString(cfg.Level),
		Output:     out,
		JSONFormat: cfg.JSON,
	})
	return logger, closeFn, nil
}
