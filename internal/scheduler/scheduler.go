package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/elonfeng/newsdesk/internal/feed"
	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
)

// SessionSource yields the session of the logged-in user, or nil.
type SessionSource interface {
	Current() *store.Session
}

// Scheduler periodically refreshes the current user's offline articles.
type Scheduler struct {
	sessions SessionSource
	fetcher  news.Fetcher
	category news.Category
	limit    int
	interval time.Duration
}

// New creates a new scheduler.
func New(sessions SessionSource, fetcher news.Fetcher, category news.Category, limit int, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = time.Hour
	}
	if limit == 0 {
		limit = 20
	}
	if category == "" {
		category = news.CategoryGeneral
	}
	return &Scheduler{
		sessions: sessions,
		fetcher:  fetcher,
		category: category,
		limit:    limit,
		interval: interval,
	}
}

// Run starts the refresh loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	s.RefreshOnce(ctx)
	slog.Info("Scheduler running", "category", s.category, "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce refreshes the offline set of the current user. Ticks without
// a logged-in user are skipped.
func (s *Scheduler) RefreshOnce(ctx context.Context) (feed.RefreshResult, error) {
	session := s.sessions.Current()
	if !session.Live() {
		slog.Debug("Offline refresh skipped, no user session")
		return feed.RefreshResult{}, store.ErrNotInitialized
	}

	res, err := feed.NewLibrary(session).RefreshOffline(ctx, s.fetcher, s.category, s.limit)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("Offline refresh failed", "user", session.UserID, "error", err)
	}
	return res, err
}
