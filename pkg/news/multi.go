package news

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Multi merges several fetchers. Results are concatenated in fetcher order
// and deduplicated by link.
type Multi []Fetcher

// FetchArticles asks every fetcher for category. It fails only when no
// fetcher returned articles and at least one failed.
func (m Multi) FetchArticles(ctx context.Context, category Category, limit int) ([]Article, error) {
	articles, err := m.gather(ctx, func(f Fetcher) ([]Article, error) {
		return f.FetchArticles(ctx, category, limit)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, err
}

// Search runs query on every fetcher.
func (m Multi) Search(ctx context.Context, query string) ([]Article, error) {
	return m.gather(ctx, func(f Fetcher) ([]Article, error) {
		return f.Search(ctx, query)
	})
}

func (m Multi) gather(ctx context.Context, call func(Fetcher) ([]Article, error)) ([]Article, error) {
	if len(m) == 1 {
		return call(m[0])
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make([][]Article, len(m))
		errs    []error
	)
	for i, f := range m {
		g.Go(func() error {
			items, err := call(f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	var merged []Article
	for _, items := range results {
		for _, a := range items {
			if seen[a.Link] {
				continue
			}
			seen[a.Link] = true
			merged = append(merged, a)
		}
	}
	if len(merged) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return merged, nil
}
