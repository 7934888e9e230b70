package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHNServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[3, 1, 2]")
	})
	mux.HandleFunc("/item/1.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hnStory{ID: 1, Title: "Show HN: newsdesk", URL: "https://newsdesk.example.com", By: "pg", Time: 1700000000, Type: "story"})
	})
	mux.HandleFunc("/item/2.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hnStory{ID: 2, Title: "a comment", Type: "comment"})
	})
	mux.HandleFunc("/item/3.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hnStory{ID: 3, Title: "Ask HN: Go or Rust?", Type: "story"})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang tips", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"hits":[{"objectID":"9","title":"Golang tips","url":"https://go.example.com/tips","author":"rob"}]}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestHackerNews_FetchArticles(t *testing.T) {
	ts := newHNServer(t)
	hn := NewHackerNews(HackerNewsOptions{BaseURL: ts.URL, SearchURL: ts.URL})

	got, err := hn.FetchArticles(context.Background(), CategoryTechnology, 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://news.ycombinator.com/item?id=3", got[0].Link)
	assert.Equal(t, "https://newsdesk.example.com", got[1].Link)
	assert.Equal(t, "Hacker News", got[1].SourceName)

	other, err := hn.FetchArticles(context.Background(), CategorySports, 10)
	assert.NoError(t, err)
	assert.Empty(t, other)
}

func TestHackerNews_Search(t *testing.T) {
	ts := newHNServer(t)
	hn := NewHackerNews(HackerNewsOptions{BaseURL: ts.URL, SearchURL: ts.URL})

	got, err := hn.Search(context.Background(), "golang tips")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://go.example.com/tips", got[0].Link)
}

func TestHackerNews_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	hn := NewHackerNews(HackerNewsOptions{BaseURL: ts.URL, SearchURL: ts.URL})

	_, err := hn.FetchArticles(context.Background(), CategoryTechnology, 5)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, InvalidStatusCode, fe.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
}

type staticFetcher struct {
	articles []Article
	err      error
}

func (s staticFetcher) FetchArticles(context.Context, Category, int) ([]Article, error) {
	return s.articles, s.err
}

func (s staticFetcher) Search(context.Context, string) ([]Article, error) {
	return s.articles, s.err
}

func TestMulti(t *testing.T) {
	down := &FetchError{Kind: Transport, Source: "down"}
	m := Multi{
		staticFetcher{articles: []Article{{Link: "a"}, {Link: "b"}}},
		staticFetcher{err: down},
		staticFetcher{articles: []Article{{Link: "b"}, {Link: "c"}}},
	}

	got, err := m.FetchArticles(context.Background(), CategoryGeneral, 0)
	require.NoError(t, err)
	assert.Equal(t, []Article{{Link: "a"}, {Link: "b"}, {Link: "c"}}, got)

	got, err = m.FetchArticles(context.Background(), CategoryGeneral, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = Multi{staticFetcher{err: down}, staticFetcher{}}.Search(context.Background(), "x")
	assert.ErrorIs(t, err, &FetchError{Kind: Transport})
}
