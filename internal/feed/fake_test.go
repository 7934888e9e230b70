package feed

import (
	"context"
	"sync"

	"github.com/elonfeng/newsdesk/pkg/news"
)

type fakeFetcher struct {
	mu         sync.Mutex
	byCategory map[news.Category][]news.Article
	failing    map[news.Category]error
	results    []news.Article
	searchErr  error
	searches   []string
}

func (f *fakeFetcher) FetchArticles(ctx context.Context, category news.Category, limit int) ([]news.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing[category]; err != nil {
		return nil, err
	}
	items := f.byCategory[category]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeFetcher) Search(ctx context.Context, query string) ([]news.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeFetcher) searchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}
