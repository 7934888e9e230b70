package store

import (
	"context"
	"testing"

	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffline_SaveManySkipsMissingLinks(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	o := NewOffline(s)

	n, err := o.SaveMany(ctx, []news.Article{article("x"), {Link: ""}, article("y")})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	all, err := o.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, links(all))
	snapshots, err := NewSnapshots(s).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshots)
}

func TestOffline_SaveManyReplacesWholeSet(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	o := NewOffline(s)

	_, err := o.SaveMany(ctx, []news.Article{article("a"), article("b")})
	require.NoError(t, err)
	n, err := o.SaveMany(ctx, []news.Article{article("c"), article("c"), article("b")})
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	all, err := o.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, links(all))

	reclaimed, err := NewGarbageCollector(s).CleanupUnusedArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)
	_, err = NewSnapshots(s).Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOffline_SaveManyFailureKeepsPreviousSet(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	o := NewOffline(s)
	_, err := o.SaveMany(ctx, []news.Article{article("a")})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = o.SaveMany(cancelled, []news.Article{article("b")})
	require.Error(t, err)

	all, err := o.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, links(all))
}

func TestOffline_Get(t *testing.T) {
	ctx := context.Background()
	s := openTestSession(t)
	o := NewOffline(s)
	a := article("https://a")
	a.Content = "full body"
	require.NoError(t, o.Save(ctx, a))

	got, err := o.Get(ctx, "https://a")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	require.NoError(t, NewBookmarks(s).Save(ctx, article("https://b")))
	_, err = o.Get(ctx, "https://b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOffline_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	o := NewOffline(openTestSession(t))
	_, err := o.SaveMany(ctx, []news.Article{article("a"), article("b")})
	require.NoError(t, err)

	require.NoError(t, o.Delete(ctx, "a"))
	assert.ErrorIs(t, o.Delete(ctx, "a"), ErrNotFound)

	n, err := o.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOffline_SaveManyTrimsLinks(t *testing.T) {
	ctx := context.Background()
	o := NewOffline(openTestSession(t))

	n, err := o.SaveMany(ctx, []news.Article{article(" c "), article("c"), article("  ")})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := o.Get(ctx, " c")
	require.NoError(t, err)
	assert.Equal(t, "c", got.Link)
}

func TestOffline_ResaveOrdersFirstWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	o := NewOffline(openTestSession(t, WithClock(frozenClock())))

	for _, link := range []string{"x", "y", "x"} {
		require.NoError(t, o.Save(ctx, article(link)))
	}

	all, err := o.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, links(all))
}
