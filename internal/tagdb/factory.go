package tagdb

import (
	"fmt"

	"cpt-go/internal/config"
	"cpt-go/internal/cpt"
)

// NewIndexFromConfig creates a tag index from an IndexConfig.
func NewIndexFromConfig(cfg config.IndexConfig) (cpt.TagIndex, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite index requires a path")
		}
		return NewSQLiteIndex(cfg.Path)
	case "memory":
		return NewMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}
