package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/jmoiron/sqlx"
)

// markers implements a set of articles keyed by link, backed by a marker
// table joined to the shared articles table.
type markers struct {
	s     *Session
	table string
	noun  string
}

func (m markers) save(ctx context.Context, a news.Article) error {
	op := "save " + m.noun
	if !a.Valid() {
		return newError(InvalidArticle, op, nil)
	}
	return m.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		now, err := nextStamp(ctx, tx, m.table, "saved_at", m.s.timestamp())
		if err != nil {
			return err
		}
		return m.put(ctx, tx, a, now)
	})
}

// put stores a under its trimmed link.
func (m markers) put(ctx context.Context, tx *sqlx.Tx, a news.Article, now int64) error {
	a.Link = strings.TrimSpace(a.Link)
	if err := upsertArticle(ctx, tx, a, now); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", a.Link, err)
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (link, saved_at) VALUES (?, ?)
		ON CONFLICT(link) DO UPDATE SET saved_at = excluded.saved_at
	`, m.table), a.Link, now)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", m.noun, a.Link, err)
	}
	return nil
}

func (m markers) contains(ctx context.Context, link string) (bool, error) {
	var n int
	err := m.s.Read(ctx, "check "+m.noun, func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.GetContext(ctx, q, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE link = ?", m.table),
			strings.TrimSpace(link))
	})
	return n > 0, err
}

func (m markers) delete(ctx context.Context, link string) error {
	op := "delete " + m.noun
	link = strings.TrimSpace(link)
	return m.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE link = ?", m.table), link)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return newError(NotFound, op, fmt.Errorf("no %s for %q", m.noun, link))
		}
		return nil
	})
}

func (m markers) all(ctx context.Context) ([]news.Article, error) {
	var recs []articleRecord
	err := m.s.Read(ctx, "list "+m.noun, func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &recs, fmt.Sprintf(`
			SELECT a.* FROM %s m
			JOIN articles a ON a.link = m.link
			ORDER BY m.saved_at DESC, m.rowid DESC
		`, m.table))
	})
	if err != nil {
		return nil, err
	}
	return articles(recs), nil
}

func (m markers) clear(ctx context.Context) (int, error) {
	var n int64
	err := m.s.Write(ctx, "clear "+m.noun, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+m.table)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return int(n), err
}

// nextStamp returns now, or one past the newest value of column in table
// when the clock has not moved beyond it, so a fresh write always sorts first.
func nextStamp(ctx context.Context, tx *sqlx.Tx, table, column string, now int64) (int64, error) {
	var newest sql.NullInt64
	if err := tx.GetContext(ctx, &newest, fmt.Sprintf("SELECT MAX(%s) FROM %s", column, table)); err != nil {
		return 0, err
	}
	if newest.Valid && newest.Int64 >= now {
		return newest.Int64 + 1, nil
	}
	return now, nil
}

// getOne is sqlx.GetContext with sql.ErrNoRows mapped to NotFound.
func getOne(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return newError(NotFound, "", fmt.Errorf("no row for %s", strings.Join(toStrings(args), ", ")))
	}
	return err
}

func toStrings(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = fmt.Sprint(a)
	}
	return out
}
