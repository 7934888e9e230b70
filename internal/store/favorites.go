package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/jmoiron/sqlx"
)

// MaxFavoriteCategories is the number of favorite categories a user may hold.
const MaxFavoriteCategories = 3

// Favorites manages the user's favorite categories.
type Favorites struct {
	s *Session
}

// NewFavorites creates the favorite-category manager of s.
func NewFavorites(s *Session) *Favorites {
	return &Favorites{s: s}
}

// Save marks c as favorite. Re-saving an existing favorite refreshes it; a
// new one fails with MaxLimitReached once MaxFavoriteCategories exist.
func (f *Favorites) Save(ctx context.Context, c news.Category) error {
	const op = "save favorite category"
	if strings.TrimSpace(string(c)) == "" {
		return invalidArgument(op, "empty category")
	}
	return f.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		return f.put(ctx, tx, c)
	})
}

func (f *Favorites) put(ctx context.Context, tx *sqlx.Tx, c news.Category) error {
	const op = "save favorite category"
	now, err := nextStamp(ctx, tx, "favorite_categories", "saved_at", f.s.timestamp())
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE favorite_categories SET saved_at = ? WHERE category = ?", now, string(c))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM favorite_categories"); err != nil {
		return err
	}
	if count >= MaxFavoriteCategories {
		return newError(MaxLimitReached, op, fmt.Errorf("already %d favorite categories", count))
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO favorite_categories (category, saved_at) VALUES (?, ?)", string(c), now)
	return err
}

// Remove unmarks c.
func (f *Favorites) Remove(ctx context.Context, c news.Category) error {
	const op = "remove favorite category"
	return f.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM favorite_categories WHERE category = ?", string(c))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return newError(NotFound, op, fmt.Errorf("%q is not a favorite", c))
		}
		return nil
	})
}

// Toggle flips c and reports whether it is a favorite afterwards.
func (f *Favorites) Toggle(ctx context.Context, c news.Category) (bool, error) {
	const op = "toggle favorite category"
	if strings.TrimSpace(string(c)) == "" {
		return false, invalidArgument(op, "empty category")
	}
	var favorite bool
	err := f.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM favorite_categories WHERE category = ?", string(c))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			favorite = false
			return nil
		}
		if err := f.put(ctx, tx, c); err != nil {
			return err
		}
		favorite = true
		return nil
	})
	return favorite, err
}

// GetAll returns favorite categories, most recently saved first.
func (f *Favorites) GetAll(ctx context.Context) ([]news.Category, error) {
	var names []string
	err := f.s.Read(ctx, "list favorite categories", func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &names,
			"SELECT category FROM favorite_categories ORDER BY saved_at DESC, rowid DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]news.Category, len(names))
	for i, n := range names {
		out[i] = news.Category(n)
	}
	return out, nil
}

func (f *Favorites) Count(ctx context.Context) (int, error) {
	var n int
	err := f.s.Read(ctx, "count favorite categories", func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM favorite_categories")
	})
	return n, err
}

func (f *Favorites) IsFavorite(ctx context.Context, c news.Category) (bool, error) {
	var n int
	err := f.s.Read(ctx, "check favorite category", func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.GetContext(ctx, q, &n,
			"SELECT COUNT(*) FROM favorite_categories WHERE category = ?", string(c))
	})
	return n > 0, err
}
