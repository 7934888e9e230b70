package store

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// deleteBatch keeps IN lists well below SQLite's bound-variable limit.
const deleteBatch = 500

// GarbageCollector reclaims article snapshots no marker refers to.
type GarbageCollector struct {
	s *Session
}

// NewGarbageCollector creates a collector for s.
func NewGarbageCollector(s *Session) *GarbageCollector {
	return &GarbageCollector{s: s}
}

// CleanupUnusedArticles deletes every snapshot whose link is neither
// bookmarked nor saved offline, and returns how many were deleted.
func (g *GarbageCollector) CleanupUnusedArticles(ctx context.Context) (int, error) {
	reclaimed := 0
	err := g.s.Write(ctx, "cleanup unused articles", func(ctx context.Context, tx *sqlx.Tx) error {
		reclaimed = 0

		var live []string
		if err := tx.SelectContext(ctx, &live,
			"SELECT link FROM bookmarks UNION SELECT link FROM offline_articles"); err != nil {
			return err
		}
		reachable := make(map[string]struct{}, len(live))
		for _, l := range live {
			reachable[l] = struct{}{}
		}

		var stored []string
		if err := tx.SelectContext(ctx, &stored, "SELECT link FROM articles"); err != nil {
			return err
		}
		var orphans []string
		for _, l := range stored {
			if _, ok := reachable[l]; !ok {
				orphans = append(orphans, l)
			}
		}
		if len(orphans) == 0 {
			return nil
		}

		for start := 0; start < len(orphans); start += deleteBatch {
			end := min(start+deleteBatch, len(orphans))
			query, args, err := sqlx.In("DELETE FROM articles WHERE link IN (?)", orphans[start:end])
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			reclaimed += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		slog.Debug("Reclaimed unused articles", "user", g.s.UserID, "count", reclaimed)
	}
	return reclaimed, nil
}
