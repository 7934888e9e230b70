package store

import (
	"context"

	"github.com/elonfeng/newsdesk/pkg/news"
)

// Bookmarks is the set of articles the user bookmarked.
type Bookmarks struct {
	m markers
}

// NewBookmarks creates the bookmark manager of s.
func NewBookmarks(s *Session) *Bookmarks {
	return &Bookmarks{m: markers{s: s, table: "bookmarks", noun: "bookmark"}}
}

// Save stores a snapshot of a and marks it bookmarked. Saving twice only
// refreshes the snapshot.
func (b *Bookmarks) Save(ctx context.Context, a news.Article) error {
	return b.m.save(ctx, a)
}

// IsSaved reports whether link is bookmarked.
func (b *Bookmarks) IsSaved(ctx context.Context, link string) (bool, error) {
	return b.m.contains(ctx, link)
}

// Delete removes the bookmark of link. The snapshot is left for the garbage
// collector since an offline marker may still use it.
func (b *Bookmarks) Delete(ctx context.Context, link string) error {
	return b.m.delete(ctx, link)
}

// GetAll returns bookmarked articles, most recently saved first.
func (b *Bookmarks) GetAll(ctx context.Context) ([]news.Article, error) {
	return b.m.all(ctx)
}

// Clear removes every bookmark and returns how many there were.
func (b *Bookmarks) Clear(ctx context.Context) (int, error) {
	return b.m.clear(ctx)
}
