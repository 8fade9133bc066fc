package feed

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry keeps one Aggregator per viewer so that a viewer's newer refresh
// supersedes their older one.
type Registry struct {
	builder *Builder
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	aggregators map[string]*registryEntry
}

type registryEntry struct {
	agg      *Aggregator
	lastSeen time.Time
}

func NewRegistry(builder *Builder, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		builder:     builder,
		logger:      logger,
		now:         time.Now,
		aggregators: make(map[string]*registryEntry),
	}
}

// For returns the aggregator of viewerID, creating it on first use.
func (r *Registry) For(viewerID string) *Aggregator {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.aggregators[viewerID]
	if !ok {
		e = &registryEntry{agg: NewAggregator(r.builder, r.logger.With(zap.String("viewer", viewerID)))}
		r.aggregators[viewerID] = e
	}
	e.lastSeen = r.now()
	return e.agg
}

// Forget drops the aggregator of viewerID.
func (r *Registry) Forget(viewerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.aggregators, viewerID)
}

// Cleanup drops aggregators not asked for in maxIdle, together with their
// snapshots. Aggregators with a refresh in flight are kept. It returns the
// number dropped.
func (r *Registry) Cleanup(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var dropped int
	for id, e := range r.aggregators {
		if now.Sub(e.lastSeen) <= maxIdle || e.agg.Loading() {
			continue
		}
		delete(r.aggregators, id)
		dropped++
	}
	if dropped > 0 {
		r.logger.Debug("Evicted idle feed aggregators", zap.Int("count", dropped), zap.Int("remaining", len(r.aggregators)))
	}
	return dropped
}

// Len returns the number of live aggregators.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.aggregators)
}

// Builder returns the builder shared by every aggregator.
func (r *Registry) Builder() *Builder {
	return r.builder
}
