package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
	lru "github.com/hashicorp/golang-lru/v2"
)

// SearchOptions tunes a Searcher.
type SearchOptions struct {
	CacheSize int
	CacheTTL  time.Duration
	Debounce  time.Duration
}

type cachedResult struct {
	articles []news.Article
	expires  time.Time
}

// Searcher runs article searches with a per-instance TTL result cache and
// records searched keywords in the user's history. Entries expire lazily on
// lookup, so a Searcher owns no background goroutine.
type Searcher struct {
	fetcher  news.Fetcher
	history  atomic.Pointer[store.History]
	cache    *lru.Cache[string, cachedResult]
	ttl      time.Duration
	debounce *Debouncer
}

// NewSearcher creates a Searcher. history may be built on a nil session, in
// which case keywords are simply not remembered.
func NewSearcher(fetcher news.Fetcher, history *store.History, opts SearchOptions) *Searcher {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	cache, _ := lru.New[string, cachedResult](opts.CacheSize) // size is positive
	s := &Searcher{
		fetcher:  fetcher,
		cache:    cache,
		ttl:      opts.CacheTTL,
		debounce: NewDebouncer(opts.Debounce),
	}
	s.history.Store(history)
	return s
}

// SetHistory rebinds the searcher to another history, typically after the
// user logged in again. The result cache is kept.
func (s *Searcher) SetHistory(history *store.History) {
	s.history.Store(history)
}

// Search returns articles matching query. A blank query yields no results
// and no network call.
func (s *Searcher) Search(ctx context.Context, query string) ([]news.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if cached, ok := s.cache.Get(query); ok {
		if time.Now().Before(cached.expires) {
			s.remember(ctx, query)
			return slices.Clone(cached.articles), nil
		}
		s.cache.Remove(query)
	}

	articles, err := s.fetcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Add(query, cachedResult{articles: slices.Clone(articles), expires: time.Now().Add(s.ttl)})
	s.remember(ctx, query)
	return articles, nil
}

// Type debounces keystrokes: only the last query typed within the debounce
// window is searched, and fn receives its result.
func (s *Searcher) Type(ctx context.Context, query string, fn func([]news.Article, error)) {
	s.debounce.Trigger(func() {
		fn(s.Search(ctx, query))
	})
}

// Stop cancels a pending debounced search.
func (s *Searcher) Stop() {
	s.debounce.Stop()
}

func (s *Searcher) remember(ctx context.Context, query string) {
	history := s.history.Load()
	if history == nil {
		return
	}
	if err := history.Record(ctx, query); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, store.ErrNotInitialized) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "Search history not recorded", "query", query, "error", err)
	}
}
