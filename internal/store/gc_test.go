package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupUnusedArticles(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	b := NewBookmarks(s)
	o := NewOffline(s)
	gc := NewGarbageCollector(s)

	reclaimed, err := gc.CleanupUnusedArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, reclaimed)

	require.NoError(t, b.Save(ctx, article("bookmarked")))
	require.NoError(t, b.Save(ctx, article("both")))
	require.NoError(t, b.Save(ctx, article("dropped-bookmark")))
	_, err = o.SaveMany(ctx, []news.Article{article("offline"), article("both"), article("stale")})
	require.NoError(t, err)
	_, err = o.SaveMany(ctx, []news.Article{article("offline"), article("both")})
	require.NoError(t, err)
	require.NoError(t, b.Delete(ctx, "dropped-bookmark"))

	reclaimed, err = gc.CleanupUnusedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reclaimed)

	snaps := NewSnapshots(s)
	for _, l := range []string{"bookmarked", "both", "offline"} {
		_, err := snaps.Get(ctx, l)
		assert.NoError(t, err, l)
	}
	for _, l := range []string{"stale", "dropped-bookmark"} {
		_, err := snaps.Get(ctx, l)
		assert.ErrorIs(t, err, ErrNotFound, l)
	}

	reclaimed, err = gc.CleanupUnusedArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, reclaimed)
}

func TestCleanupUnusedArticles_ManyOrphans(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	o := NewOffline(s)

	batch := make([]news.Article, 0, 1200)
	for i := range 1200 {
		batch = append(batch, article(fmt.Sprintf("https://example.com/%d", i)))
	}
	_, err := o.SaveMany(ctx, batch)
	require.NoError(t, err)
	_, err = o.Clear(ctx)
	require.NoError(t, err)

	reclaimed, err := NewGarbageCollector(s).CleanupUnusedArticles(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1200, reclaimed)
	n, err := NewSnapshots(s).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
