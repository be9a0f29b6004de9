package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"musicapi/internal/auth"
	"musicapi/internal/catalog"
	"musicapi/internal/testutil"
)

func TestPostgresRepo_Ratings(t *testing.T) {
	pool := testutil.TestDB(t)
	testutil.ResetTables(t, pool)
	ctx := t.Context()

	users := auth.NewPostgresRepo(pool, 5*time.Second)
	alice := &auth.User{Username: "alice", Password: "hash"}
	bob := &auth.User{Username: "bob", Password: "hash"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	engine := catalog.NewEngine(catalog.NewPostgresRepo(pool, 5*time.Second), zap.NewNop())
	_, err := engine.UpsertAlbum(ctx, catalog.AlbumRecord{
		ID: "302127", Title: "Discovery", ArtistID: "27", ArtistName: "Daft Punk",
	})
	require.NoError(t, err)

	repo := NewPostgresRepo(pool, 5*time.Second)

	summary, err := repo.GetAlbumSummary(ctx, 302127)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)

	require.NoError(t, repo.Upsert(ctx, Rating{UserID: alice.ID, AlbumID: 302127, Star: 3}))
	require.NoError(t, repo.Upsert(ctx, Rating{UserID: alice.ID, AlbumID: 302127, Star: 5}))
	require.NoError(t, repo.Upsert(ctx, Rating{UserID: bob.ID, AlbumID: 302127, Star: 4}))

	star, err := repo.GetUserRating(ctx, alice.ID, 302127)
	require.NoError(t, err)
	assert.Equal(t, 5, star)

	summary, err = repo.GetAlbumSummary(ctx, 302127)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 4.5, summary.Average, 0.001)

	summary, err = repo.GetUserSummary(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Average: 4, Count: 1}, summary)

	err = repo.Upsert(ctx, Rating{UserID: alice.ID, AlbumID: 1, Star: 2})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetUserRating(ctx, bob.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
