package store

import (
	"github.com/aleksaelezovic/trigo/internal/store/badgerkv"
	"github.com/aleksaelezovic/trigo/internal/store/kv"
	"github.com/aleksaelezovic/trigo/internal/store/memkv"
)

func newEngine(path string, cfg *openConfig) (kv.Engine, error) {
	if cfg.inMemory || path == "" {
		return memkv.New(), nil
	}
	return badgerkv.Open(path)
}
