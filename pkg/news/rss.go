package news

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// RSSOptions tunes the RSS fetcher.
type RSSOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
}

// RSS serves articles from RSS/Atom feeds grouped by category.
type RSS struct {
	client    *http.Client
	parser    *gofeed.Parser
	limiter   *rate.Limiter
	feeds     map[Category][]string
	userAgent string
}

// NewRSS creates a fetcher over the given category feeds.
func NewRSS(feeds map[Category][]string, opts RSSOptions) *RSS {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "newsdesk/1.0"
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &RSS{
		client:    &http.Client{Timeout: opts.Timeout},
		parser:    gofeed.NewParser(),
		limiter:   rate.NewLimiter(limit, 1),
		feeds:     feeds,
		userAgent: opts.UserAgent,
	}
}

// FetchArticles returns up to limit articles from every feed of category.
// A failing feed is skipped as long as another feed of the category answers.
func (r *RSS) FetchArticles(ctx context.Context, category Category, limit int) ([]Article, error) {
	urls := r.feeds[category]
	if len(urls) == 0 {
		return nil, &FetchError{Kind: NoData, Source: string(category)}
	}

	var (
		articles []Article
		firstErr error
	)
	for _, u := range urls {
		items, err := r.fetchFeed(ctx, u)
		if err != nil {
			slog.Warn("Feed fetch failed", "category", category, "url", u, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		articles = append(articles, items...)
	}

	if len(articles) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, &FetchError{Kind: NoData, Source: string(category)}
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// Search fetches every configured category and keeps articles matching all
// terms of query.
func (r *RSS) Search(ctx context.Context, query string) ([]Article, error) {
	m := NewMatcher(query)
	if m.Empty() {
		return nil, nil
	}

	var (
		all  []Article
		errs []error
	)
	for _, c := range Categories() {
		if len(r.feeds[c]) == 0 {
			continue
		}
		items, err := r.FetchArticles(ctx, c, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, items...)
	}
	if len(all) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m.Filter(all), nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]Article, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: Transport, Source: feedURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: Transport, Source: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: Transport, Source: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: InvalidStatusCode, Source: feedURL, Status: resp.StatusCode}
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: DecodingError, Source: feedURL, Err: err}
	}
	if len(parsed.Items) == 0 {
		return nil, &FetchError{Kind: NoData, Source: feedURL}
	}

	sourceID := feedURL
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		sourceID = u.Host
	}

	articles := make([]Article, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		a := fromItem(entry)
		if !a.Valid() {
			continue
		}
		a.SourceID = sourceID
		a.SourceName = parsed.Title
		articles = append(articles, a)
	}
	return articles, nil
}

func fromItem(entry *gofeed.Item) Article {
	link := entry.Link
	if link == "" && len(entry.Links) > 0 {
		link = entry.Links[0]
	}

	author := ""
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	image := ""
	if entry.Image != nil {
		image = entry.Image.URL
	}
	if image == "" {
		for _, enc := range entry.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				image = enc.URL
				break
			}
		}
	}

	published := entry.Published
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC().Format(time.RFC3339)
	} else if published == "" && entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	return Article{
		Link:        strings.TrimSpace(link),
		Title:       entry.Title,
		Description: truncate(entry.Description, 500),
		Author:      author,
		ImageURL:    image,
		PublishedAt: published,
		Content:     entry.Content,
	}
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
