package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYourNews_MergesAllCategories(t *testing.T) {
	f := &fakeFetcher{byCategory: map[news.Category][]news.Article{
		news.CategorySports:   {{Link: "s1"}, {Link: "shared"}},
		news.CategoryBusiness: {{Link: "b1"}, {Link: "shared"}},
	}}

	got, err := YourNews(context.Background(), f, []news.Category{news.CategorySports, news.CategoryBusiness}, 0)

	require.NoError(t, err)
	var links []string
	for _, a := range got {
		links = append(links, a.Link)
	}
	assert.ElementsMatch(t, []string{"s1", "b1", "shared"}, links)
}

func TestYourNews_PartialFailure(t *testing.T) {
	f := &fakeFetcher{
		byCategory: map[news.Category][]news.Article{news.CategorySports: {{Link: "s1"}}},
		failing:    map[news.Category]error{news.CategoryBusiness: errors.New("down")},
	}

	got, err := YourNews(context.Background(), f, []news.Category{news.CategorySports, news.CategoryBusiness}, 0)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestYourNews_AllFail(t *testing.T) {
	down := errors.New("down")
	f := &fakeFetcher{failing: map[news.Category]error{
		news.CategorySports:   down,
		news.CategoryBusiness: down,
	}}

	_, err := YourNews(context.Background(), f, []news.Category{news.CategorySports, news.CategoryBusiness}, 0)

	assert.ErrorIs(t, err, down)

	got, err := YourNews(context.Background(), f, nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestLibrary_YourNewsUsesFavorites(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(openSession(t))
	require.NoError(t, lib.Favorites.Save(ctx, news.CategoryScience))
	f := &fakeFetcher{byCategory: map[news.Category][]news.Article{
		news.CategoryScience: {{Link: "sci"}},
		news.CategorySports:  {{Link: "sport"}},
	}}

	got, err := lib.YourNews(ctx, f, 10)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sci", got[0].Link)

	_, err = NewLibrary(nil).YourNews(ctx, f, 10)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}
