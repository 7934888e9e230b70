package store

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// SearchEntry is one remembered search keyword.
type SearchEntry struct {
	Keyword    string    `json:"keyword"`
	SearchedAt time.Time `json:"searched_at"`
}

type searchRecord struct {
	Keyword    string `db:"keyword"`
	SearchedAt int64  `db:"searched_at"`
}

// History manages the user's search history. Keywords match exactly,
// case included.
type History struct {
	s *Session
}

// NewHistory creates the search history manager of s.
func NewHistory(s *Session) *History {
	return &History{s: s}
}

// Record stores keyword, or refreshes its timestamp if already present,
// then drops the oldest entries beyond the session's history limit.
func (h *History) Record(ctx context.Context, keyword string) error {
	const op = "record search"
	if strings.TrimSpace(keyword) == "" {
		return invalidArgument(op, "empty keyword")
	}
	return h.s.Write(ctx, op, func(ctx context.Context, tx *sqlx.Tx) error {
		now, err := nextStamp(ctx, tx, "search_history", "searched_at", h.s.timestamp())
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO search_history (keyword, searched_at) VALUES (?, ?)
			ON CONFLICT(keyword) DO UPDATE SET searched_at = excluded.searched_at
		`, keyword, now)
		if err != nil {
			return err
		}
		if h.s.historyLimit <= 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM search_history WHERE keyword NOT IN (
				SELECT keyword FROM search_history ORDER BY searched_at DESC, rowid DESC LIMIT ?
			)
		`, h.s.historyLimit)
		return err
	})
}

// GetAll returns history entries, most recent first.
func (h *History) GetAll(ctx context.Context) ([]SearchEntry, error) {
	var recs []searchRecord
	err := h.s.Read(ctx, "list search history", func(ctx context.Context, q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &recs,
			"SELECT keyword, searched_at FROM search_history ORDER BY searched_at DESC, rowid DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]SearchEntry, len(recs))
	for i, r := range recs {
		out[i] = SearchEntry{Keyword: r.Keyword, SearchedAt: fromNanos(r.SearchedAt)}
	}
	return out, nil
}

// Delete removes keyword. Deleting an absent keyword is not an error.
func (h *History) Delete(ctx context.Context, keyword string) error {
	return h.s.Write(ctx, "delete search", func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM search_history WHERE keyword = ?", keyword)
		return err
	})
}

// Clear removes all history.
func (h *History) Clear(ctx context.Context) error {
	return h.s.Write(ctx, "clear search history", func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM search_history")
		return err
	})
}
