package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/elonfeng/newsdesk/pkg/news"
	"golang.org/x/sync/errgroup"
)

// YourNews fetches every category in parallel and merges the results once
// all fetches are done. Articles appear in completion order, deduplicated by
// link. It fails only when every category failed.
func YourNews(ctx context.Context, fetcher news.Fetcher, categories []news.Category, perCategory int) ([]news.Article, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		merged []news.Article
		seen   = make(map[string]bool)
		errs   []error
	)

	for _, c := range categories {
		g.Go(func() error {
			items, err := fetcher.FetchArticles(ctx, c, perCategory)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("Category fetch failed", "category", c, "error", err)
				errs = append(errs, err)
				return nil
			}
			for _, a := range items {
				if seen[a.Link] {
					continue
				}
				seen[a.Link] = true
				merged = append(merged, a)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == len(categories) {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}
