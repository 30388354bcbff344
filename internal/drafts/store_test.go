package drafts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-vitalpress/pkg/post"
	"github.com/goliatone/go-vitalpress/pkg/testsupport"
)

func openStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "drafts.db"), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, &now
}

func TestStore_SaveGetList(t *testing.T) {
	store, now := openStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, Draft{Post: testsupport.SamplePost()})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "p-1", first.PostID)

	*now = now.Add(time.Minute)
	second, err := store.Save(ctx, Draft{Post: post.Post{Title: "Untitled sleep piece"}})
	require.NoError(t, err)
	assert.Empty(t, second.PostID)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, testsupport.SamplePost(), got.Post)

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, "Untitled sleep piece", list[0].Title)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, Draft{Post: post.Post{Title: "v1"}})
	require.NoError(t, err)
	saved.Post.Title = "v2"
	_, err = store.Save(ctx, saved)
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	assert.NotNil(t, got.Post.Content.Body)

	require.NoError(t, store.Delete(ctx, saved.ID))
	_, err = store.Get(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, saved.ID), ErrNotFound)

	_, err = store.Save(ctx, Draft{ID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestStore_DeleteForPost(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, Draft{Post: testsupport.SamplePost()})
	require.NoError(t, err)
	_, err = store.Save(ctx, Draft{Post: post.Post{Title: "other"}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteForPost(ctx, "p-1"))
	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "other", list[0].Title)
}

func TestStore_SaveKeepsCallerPostID(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, Draft{PostID: "p-9", Title: "Pending edit"})
	require.NoError(t, err)
	assert.Equal(t, "p-9", saved.PostID)
	assert.Equal(t, "Pending edit", saved.Title)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "p-9", got.PostID)
	assert.Equal(t, "p-9", got.Post.ID)
	assert.Equal(t, "Pending edit", got.Title)

	require.NoError(t, store.DeleteForPost(ctx, "p-9"))
	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_SaveRejectsMismatchedPostID(t *testing.T) {
	store, _ := openStore(t)
	_, err := store.Save(context.Background(), Draft{PostID: "p-2", Post: testsupport.SamplePost()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}
