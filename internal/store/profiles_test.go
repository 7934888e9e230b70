package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	p := NewProfiles(openTestSession(t))

	require.NoError(t, p.Save(ctx, Profile{Email: "a@example.com", FirstName: "Ada", LastName: "L"}))
	require.NoError(t, p.Save(ctx, Profile{Email: "a@example.com", FirstName: "Ada", LastName: "Lovelace"}))

	got, err := p.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, p.Delete(ctx, "a@example.com"))
	_, err = p.Get(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, p.Delete(ctx, "a@example.com"), ErrNotFound)
	assert.ErrorIs(t, p.Save(ctx, Profile{}), ErrInvalidArgument)
}
