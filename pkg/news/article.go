package news

import (
	"context"
	"fmt"
	"strings"
)

// Category identifies a news section.
type Category string

const (
	CategoryBusiness      Category = "business"
	CategoryEntertainment Category = "entertainment"
	CategoryGeneral       Category = "general"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategorySports        Category = "sports"
	CategoryTechnology    Category = "technology"
)

// Categories returns all known categories.
func Categories() []Category {
	return []Category{
		CategoryBusiness,
		CategoryEntertainment,
		CategoryGeneral,
		CategoryHealth,
		CategoryScience,
		CategorySports,
		CategoryTechnology,
	}
}

// ParseCategory maps a user-supplied name to a known Category.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Article is the denormalized article shape shared by fetchers and the store.
// The link is the article's identity.
type Article struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Content     string `json:"content,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
	SourceName  string `json:"source_name,omitempty"`
}

// Valid reports whether the article can be persisted.
func (a Article) Valid() bool {
	return strings.TrimSpace(a.Link) != ""
}

// Fetcher is the boundary to whatever serves articles over the network.
type Fetcher interface {
	FetchArticles(ctx context.Context, category Category, limit int) ([]Article, error)
	Search(ctx context.Context, query string) ([]Article, error)
}
