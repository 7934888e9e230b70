package store

import (
	"context"
	"time"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/jmoiron/sqlx"
)

// articleRecord is the stored ArticleSnapshot.
type articleRecord struct {
	Link        string `db:"link"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Author      string `db:"author"`
	ImageURL    string `db:"image_url"`
	PublishedAt string `db:"published_at"`
	Content     string `db:"content"`
	SourceID    string `db:"source_id"`
	SourceName  string `db:"source_name"`
	SavedAt     int64  `db:"saved_at"`
}

func toRecord(a news.Article, savedAt int64) articleRecord {
	return articleRecord{
		Link:        a.Link,
		Title:       a.Title,
		Description: a.Description,
		Author:      a.Author,
		ImageURL:    a.ImageURL,
		PublishedAt: a.PublishedAt,
		Content:     a.Content,
		SourceID:    a.SourceID,
		SourceName:  a.SourceName,
		SavedAt:     savedAt,
	}
}

func (r articleRecord) article() news.Article {
	return news.Article{
		Link:        r.Link,
		Title:       r.Title,
		Description: r.Description,
		Author:      r.Author,
		ImageURL:    r.ImageURL,
		PublishedAt: r.PublishedAt,
		Content:     r.Content,
		SourceID:    r.SourceID,
		SourceName:  r.SourceName,
	}
}

func articles(recs []articleRecord) []news.Article {
	out := make([]news.Article, len(recs))
	for i, r := range recs {
		out[i] = r.article()
	}
	return out
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// upsertArticle writes the snapshot of a, replacing any previous content.
func upsertArticle(ctx context.Context, tx *sqlx.Tx, a news.Article, savedAt int64) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO articles (link, title, description, author, image_url, published_at, content, source_id, source_name, saved_at)
		VALUES (:link, :title, :description, :author, :image_url, :published_at, :content, :source_id, :source_name, :saved_at)
		ON CONFLICT(link) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			author = excluded.author,
			image_url = excluded.image_url,
			published_at = excluded.published_at,
			content = excluded.content,
			source_id = excluded.source_id,
			source_name = excluded.source_name,
			saved_at = excluded.saved_at
	`, toRecord(a, savedAt))
	return err
}

// Snapshots gives read access to stored article snapshots regardless of
// which marker keeps them alive.
type Snapshots struct {
	s *Session
}

// NewSnapshots creates a snapshot reader for s.
func NewSnapshots(s *Session) *Snapshots {
	return &Snapshots{s: s}
}

// Get returns the snapshot stored for link.
func (m *Snapshots) Get(ctx context.Context, link string) (news.Article, error) {
	var rec articleRecord
	err := m.s.Read(ctx, "get snapshot", func(ctx context.Context, q sqlx.QueryerContext) error {
		return getOne(ctx, q, &rec, "SELECT * FROM articles WHERE link = ?", link)
	})
	if err != nil {
		return news.Article{}, err
	}
	return rec.article(), nil
}

// Count returns the number of stored snapshots.
func (m *Snapshots) Count(ctx context.Context) (int, error) {
	var n int
	err := m.s.Read(ctx, "count snapshots", func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM articles")
	})
	return n, err
}
