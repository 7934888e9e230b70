package store

import (
	"context"
	"strings"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/jmoiron/sqlx"
)

// Offline is the set of articles kept for offline reading.
type Offline struct {
	m markers
}

// NewOffline creates the offline-article manager of s.
func NewOffline(s *Session) *Offline {
	return &Offline{m: markers{s: s, table: "offline_articles", noun: "offline article"}}
}

func (o *Offline) Save(ctx context.Context, a news.Article) error {
	return o.m.save(ctx, a)
}

func (o *Offline) IsSaved(ctx context.Context, link string) (bool, error) {
	return o.m.contains(ctx, link)
}

func (o *Offline) Delete(ctx context.Context, link string) error {
	return o.m.delete(ctx, link)
}

// GetAll returns offline articles, most recently saved first.
func (o *Offline) GetAll(ctx context.Context) ([]news.Article, error) {
	return o.m.all(ctx)
}

func (o *Offline) Clear(ctx context.Context) (int, error) {
	return o.m.clear(ctx)
}

// Get returns the offline copy of link.
func (o *Offline) Get(ctx context.Context, link string) (news.Article, error) {
	var rec articleRecord
	err := o.m.s.Read(ctx, "get offline article", func(ctx context.Context, q sqlx.QueryerContext) error {
		return getOne(ctx, q, &rec, `
			SELECT a.* FROM offline_articles m
			JOIN articles a ON a.link = m.link
			WHERE m.link = ?
		`, strings.TrimSpace(link))
	})
	if err != nil {
		return news.Article{}, err
	}
	return rec.article(), nil
}

// SaveMany replaces the whole offline set with articles in one transaction.
// The previous set stays visible until the new one commits. Articles without
// a link are skipped and a link listed twice counts once.
func (o *Offline) SaveMany(ctx context.Context, articles []news.Article) (int, error) {
	saved := 0
	err := o.m.s.Write(ctx, "save offline articles", func(ctx context.Context, tx *sqlx.Tx) error {
		saved = 0
		if _, err := tx.ExecContext(ctx, "DELETE FROM offline_articles"); err != nil {
			return err
		}
		now := o.m.s.timestamp()
		seen := make(map[string]bool, len(articles))
		// Earlier input gets the later timestamp so GetAll keeps input order.
		for i, a := range articles {
			a.Link = strings.TrimSpace(a.Link)
			if !a.Valid() || seen[a.Link] {
				continue
			}
			seen[a.Link] = true
			if err := o.m.put(ctx, tx, a, now-int64(i)); err != nil {
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}
