package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSession(t *testing.T) *store.Session {
	t.Helper()
	s, err := store.Open(context.Background(), t.TempDir(), "reader")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSearcher_CachesResults(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{results: []news.Article{{Link: "https://a", Title: "A"}}}
	s := NewSearcher(f, nil, SearchOptions{CacheTTL: time.Minute})

	first, err := s.Search(ctx, " golang ")
	require.NoError(t, err)
	first[0].Title = "mutated"
	second, err := s.Search(ctx, "golang")
	require.NoError(t, err)

	assert.Equal(t, []string{"golang"}, f.searchCalls())
	assert.Equal(t, "A", second[0].Title)
}

func TestSearcher_CacheIsPerInstanceAndExpires(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{results: []news.Article{{Link: "https://a"}}}

	short := NewSearcher(f, nil, SearchOptions{CacheTTL: 20 * time.Millisecond})
	other := NewSearcher(f, nil, SearchOptions{})

	_, err := short.Search(ctx, "go")
	require.NoError(t, err)
	_, err = other.Search(ctx, "go")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = short.Search(ctx, "go")
	require.NoError(t, err)

	assert.Len(t, f.searchCalls(), 3)
}

func TestSearcher_BlankQueryAndErrors(t *testing.T) {
	ctx := context.Background()
	boom := &news.FetchError{Kind: news.Transport, Source: "test"}
	f := &fakeFetcher{searchErr: boom}
	s := NewSearcher(f, nil, SearchOptions{})

	got, err := s.Search(ctx, "   ")
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, f.searchCalls())

	_, err = s.Search(ctx, "go")
	assert.True(t, errors.Is(err, boom))
	_, err = s.Search(ctx, "go")
	assert.Error(t, err)
	assert.Len(t, f.searchCalls(), 2, "failures are not cached")
}

func TestSearcher_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	session := openSession(t)
	history := store.NewHistory(session)
	f := &fakeFetcher{results: []news.Article{{Link: "https://a"}}}
	s := NewSearcher(f, history, SearchOptions{})

	_, err := s.Search(ctx, "go")
	require.NoError(t, err)
	_, err = s.Search(ctx, "rust")
	require.NoError(t, err)

	entries, err := history.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rust", entries[0].Keyword)
}

func TestSearcher_WorksWithoutSession(t *testing.T) {
	f := &fakeFetcher{results: []news.Article{{Link: "https://a"}}}
	s := NewSearcher(f, store.NewHistory(nil), SearchOptions{})

	got, err := s.Search(context.Background(), "go")

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearcher_TypeDebounces(t *testing.T) {
	f := &fakeFetcher{results: []news.Article{{Link: "https://a"}}}
	s := NewSearcher(f, nil, SearchOptions{Debounce: 30 * time.Millisecond})
	defer s.Stop()

	var calls atomic.Int32
	done := make(chan []news.Article, 1)
	for _, q := range []string{"g", "go", "gol", "golang"} {
		s.Type(context.Background(), q, func(a []news.Article, err error) {
			calls.Add(1)
			done <- a
		})
	}

	select {
	case got := <-done:
		assert.Len(t, got, 1)
	case <-time.After(time.Second):
		t.Fatal("debounced search never ran")
	}
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"golang"}, f.searchCalls())
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var ran atomic.Bool

	d.Trigger(func() { ran.Store(true) })
	d.Stop()
	time.Sleep(50 * time.Millisecond)

	assert.False(t, ran.Load())
}

func TestSearcher_SetHistoryRebinds(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{results: []news.Article{{Link: "https://a"}}}
	first := store.NewHistory(openSession(t))
	second := store.NewHistory(openSession(t))
	s := NewSearcher(f, first, SearchOptions{})

	_, err := s.Search(ctx, "go")
	require.NoError(t, err)
	s.SetHistory(second)
	_, err = s.Search(ctx, "go")
	require.NoError(t, err)

	assert.Len(t, f.searchCalls(), 1)
	entries, err := second.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "go", entries[0].Keyword)
}
