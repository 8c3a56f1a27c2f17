package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fan_hub/internal/domain"
)

// Domain names used for cache keys, published events and logging.
const (
	DomainMatches = "matches"
	DomainNews    = "news"
)

// Refresher orchestrates the two data domains: it paints from cache on
// startup and then refreshes both live, reconciling success and failure
// per domain independently. It owns the in-memory last-known-good
// snapshots; rendering collaborators read them through the snapshot
// accessors and never reach back into fetch or normalisation logic.
type Refresher struct {
	matches   MatchSource
	news      NewsSource
	cache     CacheStore
	publisher Publisher
	logger    *slog.Logger

	mu        sync.RWMutex
	matchSnap domain.Snapshot[domain.Match]
	newsSnap  domain.Snapshot[domain.NewsItem]
}

// NewRefresher creates a Refresher. publisher may be nil to disable
// data-updated events.
func NewRefresher(
	matches MatchSource,
	news NewsSource,
	cache CacheStore,
	publisher Publisher,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		matches:   matches,
		news:      news,
		cache:     cache,
		publisher: publisher,
		logger:    logger.With("component", "refresher"),
		matchSnap: domain.Snapshot[domain.Match]{State: domain.StateEmpty},
		newsSnap:  domain.Snapshot[domain.NewsItem]{State: domain.StateEmpty},
	}
}

// LoadCache installs cached payloads as the initial snapshots so the
// first render happens before any network round trip.
func (r *Refresher) LoadCache(ctx context.Context) {
	if payload := r.cache.LoadMatches(ctx); payload != nil && len(payload.Data) > 0 {
		r.setMatches(domain.Snapshot[domain.Match]{
			Data:      payload.Data,
			UpdatedAt: payload.UpdatedAt,
			Source:    domain.SourceCache,
			State:     domain.StateOK,
		})
		r.logger.Info("restored matches from cache",
			"count", len(payload.Data), "updated_at", payload.UpdatedAt)
	}

	if payload := r.cache.LoadNews(ctx); payload != nil && len(payload.Data) > 0 {
		r.setNews(domain.Snapshot[domain.NewsItem]{
			Data:      payload.Data,
			UpdatedAt: payload.UpdatedAt,
			Source:    domain.SourceCache,
			State:     domain.StateOK,
		})
		r.logger.Info("restored news from cache",
			"count", len(payload.Data), "updated_at", payload.UpdatedAt)
	}
}

// Refresh refreshes both domains concurrently. The join waits for both
// outcomes regardless of individual failure; one domain's error never
// blocks or degrades the other's success path.
func (r *Refresher) Refresh(ctx context.Context) *domain.RefreshStats {
	start := time.Now()
	stats := &domain.RefreshStats{}

	var wg sync.WaitGroup
	var statsMu sync.Mutex

	wg.Add(2)
	go func() {
		defer wg.Done()
		count, published, failed := r.refreshMatches(ctx)
		statsMu.Lock()
		defer statsMu.Unlock()
		stats.Matches = count
		if published {
			stats.Published++
		}
		if failed {
			stats.Errors++
		}
	}()
	go func() {
		defer wg.Done()
		count, published, failed := r.refreshNews(ctx)
		statsMu.Lock()
		defer statsMu.Unlock()
		stats.News = count
		if published {
			stats.Published++
		}
		if failed {
			stats.Errors++
		}
	}()
	wg.Wait()

	stats.Duration = time.Since(start)
	r.logger.Info("refresh completed",
		"matches", stats.Matches,
		"news", stats.News,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)
	return stats
}

func (r *Refresher) refreshMatches(ctx context.Context) (count int, published, failed bool) {
	matches, err := r.matches.FetchMatches(ctx)
	if err != nil {
		r.logger.Error("match refresh failed", "error", err)
		r.degradeMatches()
		return 0, false, true
	}

	if len(matches) == 0 {
		// Distinct from failure: the fetch worked, the league just has
		// nothing published.
		r.setMatches(domain.Snapshot[domain.Match]{
			Data:   []domain.Match{},
			Source: domain.SourceLive,
			State:  domain.StateEmpty,
		})
		return 0, false, false
	}

	updatedAt := r.cache.SaveMatches(ctx, matches)
	r.setMatches(domain.Snapshot[domain.Match]{
		Data:      matches,
		UpdatedAt: updatedAt,
		Source:    domain.SourceLive,
		State:     domain.StateOK,
	})

	return len(matches), r.publish(ctx, DomainMatches, len(matches), updatedAt), false
}

func (r *Refresher) refreshNews(ctx context.Context) (count int, published, failed bool) {
	items, err := r.news.FetchNews(ctx)
	if err != nil {
		r.logger.Error("news refresh failed", "error", err)
		r.degradeNews()
		return 0, false, true
	}

	if len(items) == 0 {
		r.setNews(domain.Snapshot[domain.NewsItem]{
			Data:   []domain.NewsItem{},
			Source: domain.SourceLive,
			State:  domain.StateEmpty,
		})
		return 0, false, false
	}

	updatedAt := r.cache.SaveNews(ctx, items)
	r.setNews(domain.Snapshot[domain.NewsItem]{
		Data:      items,
		UpdatedAt: updatedAt,
		Source:    domain.SourceLive,
		State:     domain.StateOK,
	})

	return len(items), r.publish(ctx, DomainNews, len(items), updatedAt), false
}

// degradeMatches keeps a data-bearing snapshot untouched; stale but
// present beats an error screen. Only a domain with nothing to show
// surfaces the failure.
func (r *Refresher) degradeMatches() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.matchSnap.Data) == 0 {
		r.matchSnap = domain.Snapshot[domain.Match]{
			Source: domain.SourceLive,
			State:  domain.StateError,
		}
	}
}

func (r *Refresher) degradeNews() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.newsSnap.Data) == 0 {
		r.newsSnap = domain.Snapshot[domain.NewsItem]{
			Source: domain.SourceLive,
			State:  domain.StateError,
		}
	}
}

func (r *Refresher) publish(ctx context.Context, dataDomain string, count int, updatedAt time.Time) bool {
	if r.publisher == nil {
		return false
	}
	if err := r.publisher.Publish(ctx, dataDomain, count, updatedAt); err != nil {
		r.logger.Warn("publish failed", "domain", dataDomain, "error", err)
		return false
	}
	return true
}

// MatchesSnapshot returns the current match snapshot. The returned
// value is consistent: its slice is never mutated after installation.
func (r *Refresher) MatchesSnapshot() domain.Snapshot[domain.Match] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matchSnap
}

// NewsSnapshot returns the current news snapshot.
func (r *Refresher) NewsSnapshot() domain.Snapshot[domain.NewsItem] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newsSnap
}

// NextMatch returns the earliest match after now, relying on the
// normaliser's ascending date order.
func (r *Refresher) NextMatch(now time.Time) (domain.Match, bool) {
	snap := r.MatchesSnapshot()
	for _, m := range snap.Data {
		if m.Date.After(now) {
			return m, true
		}
	}
	return domain.Match{}, false
}

// MatchByID looks a match up in the current snapshot.
func (r *Refresher) MatchByID(id string) (domain.Match, bool) {
	snap := r.MatchesSnapshot()
	for _, m := range snap.Data {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Match{}, false
}

func (r *Refresher) setMatches(snap domain.Snapshot[domain.Match]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matchSnap = snap
}

func (r *Refresher) setNews(snap domain.Snapshot[domain.NewsItem]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newsSnap = snap
}
