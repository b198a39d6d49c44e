package main

import (
	"fmt"
	"strings"

	"map18xx.dev/internal/config"
	"map18xx.dev/internal/indexdb"
)

func openRuntimeIndex(cfg config.Config, disableDB bool) (*indexdb.Index, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.IndexBackend))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.Open(cfg.IndexPath)
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", backend)
	}
}
