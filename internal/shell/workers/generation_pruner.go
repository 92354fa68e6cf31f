package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artpar/kitchen/internal/shell/store"
)

// GenerationPrunerConfig configures the generation pruner worker.
type GenerationPrunerConfig struct {
	// Interval is the time between prune cycles.
	// Default: 1 hour.
	Interval time.Duration

	// MaxAge is how long a generation record is kept.
	// Default: 30 days.
	MaxAge time.Duration

	// Keep is the number of most recent records that are never pruned.
	// Default: 100.
	Keep int
}

// DefaultGenerationPrunerConfig returns the default configuration.
func DefaultGenerationPrunerConfig() GenerationPrunerConfig {
	return GenerationPrunerConfig{
		Interval: time.Hour,
		MaxAge:   30 * 24 * time.Hour,
		Keep:     100,
	}
}

// GenerationPruner periodically removes old generation records.
type GenerationPruner struct {
	store  store.Store
	config GenerationPrunerConfig
	logger *slog.Logger
	now    func() time.Time

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGenerationPruner creates a new generation pruner worker.
func NewGenerationPruner(s store.Store, config GenerationPrunerConfig, logger *slog.Logger) *GenerationPruner {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.MaxAge == 0 {
		config.MaxAge = 30 * 24 * time.Hour
	}
	if config.Keep == 0 {
		config.Keep = 100
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &GenerationPruner{
		store:  s,
		config: config,
		logger: logger.With("component", "generation_pruner"),
		now:    time.Now,
	}
}

// Start begins the pruner background goroutine.
func (p *GenerationPruner) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go p.run()

	p.logger.Info("generation pruner started",
		"interval", p.config.Interval,
		"max_age", p.config.MaxAge,
		"keep", p.config.Keep,
	)
}

// Stop gracefully stops the pruner.
func (p *GenerationPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("generation pruner stopped")
}

// run is the main loop that prunes periodically.
func (p *GenerationPruner) run() {
	defer p.wg.Done()

	// Run immediately on start
	p.runCycle()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runCycle()
		}
	}
}

// runCycle deletes records older than MaxAge, sparing the newest Keep.
func (p *GenerationPruner) runCycle() {
	ctx, cancel := context.WithTimeout(p.ctx, p.config.Interval)
	defer cancel()

	cutoff := p.now().Add(-p.config.MaxAge)
	deleted, err := p.store.PruneGenerations(ctx, cutoff, p.config.Keep)
	if err != nil {
		p.logger.Error("failed to prune generations", "error", err)
		return
	}
	if deleted > 0 {
		p.logger.Info("pruned generations", "deleted", deleted, "cutoff", cutoff)
	}
}
