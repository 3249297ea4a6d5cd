package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antiarchy/antiarchy/internal/config"
)

// Open builds the store selected by cfg. For sqlite the parent directory of
// the database file is created when missing.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		st, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
