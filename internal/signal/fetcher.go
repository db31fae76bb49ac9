package signal

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EngineResult holds one engine's contribution to a cycle
type EngineResult struct {
	Engine string
	Picks  []RawPick
	Err    error
}

// FanOutResult aggregates all engine results for one cycle
type FanOutResult struct {
	Results []EngineResult
}

// Responded returns the number of engines that contributed picks
func (r *FanOutResult) Responded() int {
	count := 0
	for _, res := range r.Results {
		if res.Err == nil {
			count++
		}
	}
	return count
}

// Failed returns the number of engines that errored or timed out
func (r *FanOutResult) Failed() int {
	return len(r.Results) - r.Responded()
}

// Fetcher fans out to all engines concurrently and joins before aggregation
type Fetcher struct {
	engines       []Engine
	cache         *FeedCache
	engineTimeout time.Duration
	logger        *logrus.Logger
}

// NewFetcher creates a new concurrent signal fetcher
func NewFetcher(engines []Engine, cache *FeedCache, engineTimeout time.Duration, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		engines:       engines,
		cache:         cache,
		engineTimeout: engineTimeout,
		logger:        logger,
	}
}

// FetchAll fetches from every enabled engine concurrently. A failed or
// timed-out engine contributes nothing for the cycle and is never retried
// within it; each goroutine writes only its own pre-allocated slot, so no
// shared state is mutated during the fan-out.
func (f *Fetcher) FetchAll(ctx context.Context) *FanOutResult {
	result := &FanOutResult{Results: make([]EngineResult, len(f.engines))}

	g, gctx := errgroup.WithContext(ctx)
	for i, engine := range f.engines {
		i, engine := i, engine
		g.Go(func() error {
			result.Results[i] = f.fetchOne(gctx, engine)
			// Engine failures are absorbed, not propagated; the cycle
			// proceeds with whatever sources responded.
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range result.Results {
		if res.Err != nil {
			f.logger.WithError(res.Err).WithField("engine", res.Engine).
				Warn("Signal engine unavailable for this cycle")
		}
	}

	return result
}

func (f *Fetcher) fetchOne(ctx context.Context, engine Engine) EngineResult {
	if f.cache != nil {
		if picks, ok := f.cache.Get(engine.Name()); ok {
			f.logger.WithField("engine", engine.Name()).Debug("Using cached picks")
			return EngineResult{Engine: engine.Name(), Picks: picks}
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.engineTimeout)
	defer cancel()

	picks, err := engine.Fetch(fetchCtx)
	if err != nil {
		return EngineResult{Engine: engine.Name(), Err: err}
	}

	if f.cache != nil {
		f.cache.Set(engine.Name(), picks)
	}

	return EngineResult{Engine: engine.Name(), Picks: picks}
}
