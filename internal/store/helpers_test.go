package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock advancing one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// frozenClock returns a clock that never advances.
func frozenClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func openTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithClock(stepClock())}, opts...)
	s, err := Open(context.Background(), t.TempDir(), "reader@example.com", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func article(link string) news.Article {
	return news.Article{
		Link:        link,
		Title:       "Title " + link,
		Description: "Description " + link,
		Author:      "Author",
		PublishedAt: "2024-01-01T00:00:00Z",
		SourceName:  "Example",
	}
}

func links(articles []news.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Link
	}
	return out
}
