package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	hnBaseURL     = "https://hacker-news.firebaseio.com/v0"
	hnSearchURL   = "https://hn.algolia.com/api/v1"
	hnSource      = "hackernews"
	hnSourceName  = "Hacker News"
	hnConcurrency = 10
)

// HackerNewsOptions tunes the Hacker News fetcher. The URLs are overridable
// for tests.
type HackerNewsOptions struct {
	Timeout   time.Duration
	Limit     int
	BaseURL   string
	SearchURL string
}

// HackerNews serves top stories as technology articles and searches stories
// through the Algolia HN API.
type HackerNews struct {
	client    *http.Client
	limit     int
	baseURL   string
	searchURL string
}

// NewHackerNews creates a new Hacker News fetcher.
func NewHackerNews(opts HackerNewsOptions) *HackerNews {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Limit <= 0 {
		opts.Limit = 30
	}
	if opts.BaseURL == "" {
		opts.BaseURL = hnBaseURL
	}
	if opts.SearchURL == "" {
		opts.SearchURL = hnSearchURL
	}
	return &HackerNews{
		client:    &http.Client{Timeout: opts.Timeout},
		limit:     opts.Limit,
		baseURL:   opts.BaseURL,
		searchURL: opts.SearchURL,
	}
}

// FetchArticles returns top stories for the technology category and nothing
// for any other.
func (h *HackerNews) FetchArticles(ctx context.Context, category Category, limit int) ([]Article, error) {
	if category != CategoryTechnology {
		return nil, nil
	}
	if limit <= 0 || limit > h.limit {
		limit = h.limit
	}

	var ids []int
	if err := h.getJSON(ctx, h.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &FetchError{Kind: NoData, Source: hnSource}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	var (
		mu      sync.Mutex
		stories = make(map[int]hnStory, len(ids))
		g       errgroup.Group
	)
	g.SetLimit(hnConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			var story hnStory
			if err := h.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", h.baseURL, id), &story); err != nil {
				return nil
			}
			if story.Type != "story" {
				return nil
			}
			mu.Lock()
			stories[id] = story
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Keep the ranking of the top stories list.
	articles := make([]Article, 0, len(stories))
	for _, id := range ids {
		if s, ok := stories[id]; ok {
			articles = append(articles, s.article())
		}
	}
	if len(articles) == 0 {
		return nil, &FetchError{Kind: NoData, Source: hnSource}
	}
	return articles, nil
}

// Search returns stories matching query.
func (h *HackerNews) Search(ctx context.Context, query string) ([]Article, error) {
	if NewMatcher(query).Empty() {
		return nil, nil
	}

	u := fmt.Sprintf("%s/search?tags=story&hitsPerPage=%d&query=%s", h.searchURL, h.limit, url.QueryEscape(query))
	var resp struct {
		Hits []hnHit `json:"hits"`
	}
	if err := h.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		articles = append(articles, hit.article())
	}
	return articles, nil
}

func (h *HackerNews) getJSON(ctx context.Context, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Kind: Transport, Source: hnSource, Err: err}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &FetchError{Kind: Transport, Source: hnSource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &FetchError{Kind: InvalidStatusCode, Source: hnSource, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &FetchError{Kind: DecodingError, Source: hnSource, Err: err}
	}
	return nil
}

type hnStory struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

func (s hnStory) article() Article {
	return Article{
		Link:        storyLink(s.URL, fmt.Sprint(s.ID)),
		Title:       s.Title,
		Description: truncate(s.Text, 500),
		Author:      s.By,
		PublishedAt: time.Unix(s.Time, 0).UTC().Format(time.RFC3339),
		SourceID:    hnSource,
		SourceName:  hnSourceName,
	}
}

type hnHit struct {
	ObjectID  string `json:"objectID"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
	StoryText string `json:"story_text"`
}

func (h hnHit) article() Article {
	return Article{
		Link:        storyLink(h.URL, h.ObjectID),
		Title:       h.Title,
		Description: truncate(h.StoryText, 500),
		Author:      h.Author,
		PublishedAt: h.CreatedAt,
		SourceID:    hnSource,
		SourceName:  hnSourceName,
	}
}

// storyLink falls back to the discussion page for text posts.
func storyLink(u, id string) string {
	if u != "" {
		return u
	}
	return "https://news.ycombinator.com/item?id=" + id
}
