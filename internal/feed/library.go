// Package feed holds the reading features built on a user's store and a
// news fetcher: search, Your News and offline refresh.
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
)

// Library groups the collection managers of one session.
type Library struct {
	Session   *store.Session
	Bookmarks *store.Bookmarks
	Offline   *store.Offline
	Favorites *store.Favorites
	History   *store.History
	Profiles  *store.Profiles
	Snapshots *store.Snapshots
	gc        *store.GarbageCollector
}

// NewLibrary wires the managers of s. A nil s gives a library whose
// operations all report store.NotInitialized.
func NewLibrary(s *store.Session) *Library {
	return &Library{
		Session:   s,
		Bookmarks: store.NewBookmarks(s),
		Offline:   store.NewOffline(s),
		Favorites: store.NewFavorites(s),
		History:   store.NewHistory(s),
		Profiles:  store.NewProfiles(s),
		Snapshots: store.NewSnapshots(s),
		gc:        store.NewGarbageCollector(s),
	}
}

// RefreshResult reports what an offline refresh did.
type RefreshResult struct {
	Saved     int `json:"saved"`
	Reclaimed int `json:"reclaimed"`
}

// RefreshOffline replaces the offline set with the latest articles of
// category and reclaims snapshots the old set left behind. A failed or empty
// fetch leaves the current offline set untouched.
func (l *Library) RefreshOffline(ctx context.Context, fetcher news.Fetcher, category news.Category, limit int) (RefreshResult, error) {
	var res RefreshResult
	if !l.Session.Live() {
		return res, store.ErrNotInitialized
	}

	articles, err := fetcher.FetchArticles(ctx, category, limit)
	if err != nil {
		return res, fmt.Errorf("fetch %s: %w", category, err)
	}
	if len(articles) == 0 {
		return res, nil
	}

	if res.Saved, err = l.Offline.SaveMany(ctx, articles); err != nil {
		return res, err
	}
	if res.Reclaimed, err = l.gc.CleanupUnusedArticles(ctx); err != nil {
		return res, err
	}
	slog.Info("Offline refresh complete",
		"user", l.Session.UserID, "category", category, "saved", res.Saved, "reclaimed", res.Reclaimed)
	return res, nil
}

// RemoveBookmark deletes the bookmark of link and reclaims its snapshot if
// nothing else uses it.
func (l *Library) RemoveBookmark(ctx context.Context, link string) error {
	if err := l.Bookmarks.Delete(ctx, link); err != nil {
		return err
	}
	_, err := l.gc.CleanupUnusedArticles(ctx)
	return err
}

// ClearOffline drops every offline article and reclaims unused snapshots.
func (l *Library) ClearOffline(ctx context.Context) (int, error) {
	n, err := l.Offline.Clear(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := l.gc.CleanupUnusedArticles(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Cleanup runs the garbage collector.
func (l *Library) Cleanup(ctx context.Context) (int, error) {
	return l.gc.CleanupUnusedArticles(ctx)
}

// YourNews aggregates the user's favorite categories.
func (l *Library) YourNews(ctx context.Context, fetcher news.Fetcher, perCategory int) ([]news.Article, error) {
	favorites, err := l.Favorites.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return YourNews(ctx, fetcher, favorites, perCategory)
}
