package store

import (
	"context"
	"testing"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarks_SaveRejectsMissingLink(t *testing.T) {
	s := openTestSession(t)

	err := NewBookmarks(s).Save(context.Background(), news.Article{Title: "no link"})

	assert.ErrorIs(t, err, ErrInvalidArticle)
}

func TestBookmarks_SaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	b := NewBookmarks(s)

	first := article("https://a")
	second := article("https://a")
	second.Title = "Updated title"

	require.NoError(t, b.Save(ctx, first))
	require.NoError(t, b.Save(ctx, second))

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Updated title", all[0].Title)

	n, err := NewSnapshots(s).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBookmarks_GetAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(openTestSession(t))

	for _, l := range []string{"https://a", "https://b", "https://c"} {
		require.NoError(t, b.Save(ctx, article(l)))
	}
	require.NoError(t, b.Save(ctx, article("https://a")))

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://c", "https://b"}, links(all))
}

func TestBookmarks_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	b := NewBookmarks(s)
	require.NoError(t, b.Save(ctx, article("https://a")))

	require.NoError(t, b.Delete(ctx, "https://a"))
	assert.ErrorIs(t, b.Delete(ctx, "https://a"), ErrNotFound)

	saved, err := b.IsSaved(ctx, "https://a")
	require.NoError(t, err)
	assert.False(t, saved)

	snap, err := NewSnapshots(s).Get(ctx, "https://a")
	require.NoError(t, err, "snapshot stays until garbage collection")
	assert.Equal(t, "Title https://a", snap.Title)
}

func TestBookmarks_IndependentOfOffline(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	b := NewBookmarks(s)
	o := NewOffline(s)

	require.NoError(t, b.Save(ctx, article("https://a")))
	require.NoError(t, o.Save(ctx, article("https://a")))
	require.NoError(t, b.Delete(ctx, "https://a"))

	bookmarked, err := b.IsSaved(ctx, "https://a")
	require.NoError(t, err)
	offline, err := o.IsSaved(ctx, "https://a")
	require.NoError(t, err)
	assert.False(t, bookmarked)
	assert.True(t, offline)

	reclaimed, err := NewGarbageCollector(s).CleanupUnusedArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, reclaimed)

	got, err := o.Get(ctx, "https://a")
	require.NoError(t, err)
	assert.Equal(t, "https://a", got.Link)
}

func TestBookmarks_Clear(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(openTestSession(t))
	require.NoError(t, b.Save(ctx, article("https://a")))
	require.NoError(t, b.Save(ctx, article("https://b")))

	n, err := b.Clear(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBookmarks_GetAllReturnsDetachedCopies(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(openTestSession(t))
	require.NoError(t, b.Save(ctx, article("https://a")))

	first, err := b.GetAll(ctx)
	require.NoError(t, err)
	first[0].Title = "mutated"

	second, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Title https://a", second[0].Title)
}

func TestBookmarks_ResaveOrdersFirstWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	b := NewBookmarks(openTestSession(t, WithClock(frozenClock())))

	require.NoError(t, b.Save(ctx, article("https://x")))
	require.NoError(t, b.Save(ctx, article("https://y")))
	require.NoError(t, b.Save(ctx, article("https://x")))

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x", "https://y"}, links(all))
}

func TestBookmarks_LinkIsTrimmed(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	b := NewBookmarks(s)

	require.NoError(t, b.Save(ctx, article(" https://x ")))

	saved, err := b.IsSaved(ctx, "https://x")
	require.NoError(t, err)
	assert.True(t, saved)

	all, err := b.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x"}, links(all))

	_, err = NewSnapshots(s).Get(ctx, "https://x")
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, " https://x"))
	saved, err = b.IsSaved(ctx, "https://x")
	require.NoError(t, err)
	assert.False(t, saved)
}
