package service

import (
	"context"
	"strings"

	"github.com/yourusername/slipsmith/internal/models"
	"github.com/yourusername/slipsmith/internal/signal"
)

// FetcherSlateSource derives the slate snapshot for regime detection from
// a live engine fan-out. Event keys take the form "sport:date:matchup", so
// sport counts come from the key prefix.
type FetcherSlateSource struct {
	fetcher *signal.Fetcher
}

// NewFetcherSlateSource creates a slate source backed by the engine fan-out
func NewFetcherSlateSource(fetcher *signal.Fetcher) *FetcherSlateSource {
	return &FetcherSlateSource{fetcher: fetcher}
}

// Snapshot counts distinct events and sports across whatever engines
// respond. Trailing win rate is filled in by the calibration loop.
func (s *FetcherSlateSource) Snapshot(ctx context.Context) (models.SlateSnapshot, error) {
	fanOut := s.fetcher.FetchAll(ctx)

	events := make(map[string]struct{})
	sports := make(map[string]struct{})
	for _, res := range fanOut.Results {
		if res.Err != nil {
			continue
		}
		for i := range res.Picks {
			key := res.Picks[i].EventKey
			if key == "" {
				continue
			}
			events[key] = struct{}{}
			if idx := strings.IndexByte(key, ':'); idx > 0 {
				sports[key[:idx]] = struct{}{}
			}
		}
	}

	return models.SlateSnapshot{
		EventCount: len(events),
		SportCount: len(sports),
	}, nil
}
