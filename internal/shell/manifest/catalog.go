package manifest

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	core "github.com/artpar/kitchen/internal/core/manifest"
)

// Catalog holds the index currently in use. Readers never block: a reload
// builds a new index and swaps it in whole, so a request sees either the old
// index or the new one.
type Catalog struct {
	paths  Paths
	logger *slog.Logger

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

type snapshot struct {
	index    *core.Index
	loadedAt time.Time
}

// NewCatalog loads the manifests once. It fails if the first load fails.
func NewCatalog(paths Paths, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		paths:  paths,
		logger: logger.With("component", "manifest_catalog"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Index returns the current index.
func (c *Catalog) Index() *core.Index {
	return c.current.Load().index
}

// LoadedAt returns when the current index was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.current.Load().loadedAt
}

// Paths returns the documents the catalog reads.
func (c *Catalog) Paths() Paths {
	return c.paths
}

// Reload re-reads every document. On failure the previous index stays in use.
func (c *Catalog) Reload() error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := time.Now()
	idx, err := Load(c.paths)
	if err != nil {
		c.logger.Error("manifest load failed", "error", err)
		return err
	}

	c.current.Store(&snapshot{index: idx, loadedAt: time.Now()})

	counts := idx.Counts()
	c.logger.Info("manifests loaded",
		"services", counts[core.KindService],
		"combos", counts[core.KindCombo],
		"bentos", counts[core.KindBento],
		"platters", counts[core.KindPlatter],
		"capabilities", counts[core.KindCapability],
		"duration", time.Since(start),
	)
	return nil
}
