package feed

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/echoo/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FeedResult is one feed of a snapshot. Err is set when the read failed, in
// which case Posts is empty.
type FeedResult struct {
	Kind    Kind
	Posts   []models.Post
	Skipped int
	Err     error
}

// OK reports whether the feed was fetched.
func (r FeedResult) OK() bool {
	return r.Err == nil
}

// Snapshot is the immutable result of one aggregate refresh.
type Snapshot struct {
	Generation  uint64
	RefreshedAt time.Time
	Recent      FeedResult
	Popular     FeedResult
	ForYou      FeedResult
}

// Feed returns the result for kind.
func (s *Snapshot) Feed(kind Kind) FeedResult {
	switch kind {
	case KindRecent:
		return s.Recent
	case KindPopular:
		return s.Popular
	case KindForYou:
		return s.ForYou
	}
	return FeedResult{Kind: kind, Err: ErrUnknownKind}
}

// AllFailed reports whether no feed could be fetched.
func (s *Snapshot) AllFailed() bool {
	return !s.Recent.OK() && !s.Popular.OK() && !s.ForYou.OK()
}

func (s *Snapshot) slot(kind Kind) *FeedResult {
	switch kind {
	case KindRecent:
		return &s.Recent
	case KindPopular:
		return &s.Popular
	default:
		return &s.ForYou
	}
}

// Aggregator refreshes the three feeds of one viewer together.
//
// Refreshes are ordered by issue: starting a refresh cancels the reads of the
// one before it, and a refresh that is no longer the newest never replaces
// the latest snapshot.
type Aggregator struct {
	builder *Builder
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	loading bool
	issued  uint64
	cancel  context.CancelFunc
	latest  *Snapshot
}

// NewAggregator creates an Aggregator over builder.
func NewAggregator(builder *Builder, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{builder: builder, logger: logger, now: time.Now}
}

// Loading reports whether a refresh is in flight.
func (a *Aggregator) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Latest returns the most recently applied snapshot, or nil.
func (a *Aggregator) Latest() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Refresh fetches all feeds concurrently and waits for all of them. A failed
// feed is reported in its FeedResult and does not stop the others.
//
// It returns ErrSuperseded when a newer refresh was issued meanwhile, and the
// context error when ctx ended; the latest snapshot is left untouched in both cases.
func (a *Aggregator) Refresh(ctx context.Context, viewer Viewer) (*Snapshot, error) {
	a.mu.Lock()
	a.issued++
	gen := a.issued
	if a.cancel != nil {
		a.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.loading = true
	a.mu.Unlock()
	defer cancel()

	snap := &Snapshot{Generation: gen}

	// Every branch returns nil so a failed feed never cancels its siblings.
	var g errgroup.Group
	for _, kind := range Kinds {
		kind := kind
		slot := snap.slot(kind)
		g.Go(func() error {
			res, err := a.builder.Build(runCtx, kind, viewer)
			*slot = FeedResult{Kind: kind, Posts: res.Posts, Skipped: res.Skipped, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	snap.RefreshedAt = a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.issued {
		a.logger.Debug("Discarding superseded refresh", zap.Uint64("generation", gen), zap.Uint64("newest", a.issued))
		return nil, ErrSuperseded
	}
	a.loading = false
	a.cancel = nil
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, kind := range Kinds {
		if r := snap.Feed(kind); !r.OK() {
			a.logger.Warn("Feed refresh failed", zap.String("feed", string(kind)), zap.Error(r.Err))
		}
	}
	a.latest = snap
	return snap, nil
}
