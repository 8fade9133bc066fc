package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMemoryRepo(t *testing.T, posts ...models.Post) *MemoryPostRepository {
	t.Helper()
	repo := NewMemoryPostRepository()
	for i := range posts {
		require.NoError(t, repo.CreatePost(context.Background(), &posts[i]))
	}
	return repo
}

func decodeAll(t *testing.T, docs []Document) []models.Post {
	t.Helper()
	out := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		var p models.Post
		require.NoError(t, d.Decode(&p))
		out = append(out, p)
	}
	return out
}

func TestMemoryCreateAndGet(t *testing.T) {
	repo := NewMemoryPostRepository()
	repo.now = func() time.Time { return t0 }

	post := &models.Post{AuthorID: "u1", Body: "hi"}
	require.NoError(t, repo.CreatePost(context.Background(), post))
	require.NotEmpty(t, post.ID)
	assert.Equal(t, t0, post.CreatedAt)

	got, err := repo.GetPostByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Body)
	assert.Equal(t, post.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = repo.GetPostByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidPostID)
	_, err = repo.GetPostByID(context.Background(), "0123456789abcdef01234567")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestMemoryQueryPosts(t *testing.T) {
	repo := newMemoryRepo(t,
		models.Post{AuthorID: "a", Body: "old", CreatedAt: t0, LikeCount: 5},
		models.Post{AuthorID: "b", Body: "new", CreatedAt: t0.Add(2 * time.Hour), LikeCount: 5},
		models.Post{AuthorID: "a", Body: "mid", CreatedAt: t0.Add(time.Hour), LikeCount: 9},
	)
	ctx := context.Background()

	docs, err := repo.QueryPosts(ctx, PostQuery{Sort: []SortField{{Field: models.FieldCreatedAt, Descending: true}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, postBodies(decodeAll(t, docs)))

	docs, err = repo.QueryPosts(ctx, PostQuery{Sort: []SortField{
		{Field: models.FieldLikeCount, Descending: true},
		{Field: models.FieldCreatedAt, Descending: true},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "new", "old"}, postBodies(decodeAll(t, docs)))

	docs, err = repo.QueryPosts(ctx, PostQuery{
		AuthorID: "a",
		Sort:     []SortField{{Field: models.FieldCreatedAt}},
		Limit:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, postBodies(decodeAll(t, docs)))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.QueryPosts(cancelled, PostQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueryKeepsMalformedDocuments(t *testing.T) {
	repo := newMemoryRepo(t, models.Post{AuthorID: "a", Body: "ok", CreatedAt: t0})
	require.NoError(t, repo.InsertRaw(bson.D{
		{Key: "_id", Value: "raw-1"},
		{Key: models.FieldCreatedAt, Value: t0.Add(time.Hour)},
		{Key: models.FieldLikeCount, Value: "lots"},
	}))

	docs, err := repo.QueryPosts(context.Background(), PostQuery{
		Sort: []SortField{{Field: models.FieldCreatedAt, Descending: true}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "raw-1", docs[0].ID())
	var p models.Post
	assert.Error(t, docs[0].Decode(&p))
}

func TestMemoryQueryBreaksTiesByID(t *testing.T) {
	repo := NewMemoryPostRepository()
	for _, id := range []string{"b", "d", "a", "c"} {
		require.NoError(t, repo.InsertRaw(bson.D{
			{Key: models.FieldID, Value: id},
			{Key: models.FieldCreatedAt, Value: t0},
			{Key: models.FieldLikeCount, Value: int64(1)},
		}))
	}

	docs, err := repo.QueryPosts(context.Background(), PostQuery{
		Sort: []SortField{
			{Field: models.FieldCreatedAt, Descending: true},
			{Field: models.FieldID, Descending: true},
		},
		Limit: 3,
	})
	require.NoError(t, err)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID()
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids)
}

func TestMemoryLikeCounts(t *testing.T) {
	repo := newMemoryRepo(t, models.Post{AuthorID: "a", Body: "x"})
	docs, err := repo.QueryPosts(context.Background(), PostQuery{})
	require.NoError(t, err)
	id := docs[0].ID()
	ctx := context.Background()

	require.NoError(t, repo.IncrementLikesCount(ctx, id))
	require.NoError(t, repo.IncrementLikesCount(ctx, id))
	require.NoError(t, repo.DecrementLikesCount(ctx, id))
	got, err := repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.LikeCount)

	require.NoError(t, repo.DecrementLikesCount(ctx, id))
	require.NoError(t, repo.DecrementLikesCount(ctx, id))
	got, err = repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.LikeCount)

	assert.ErrorIs(t, repo.IncrementLikesCount(ctx, "0123456789abcdef01234567"), ErrPostNotFound)
	assert.ErrorIs(t, repo.IncrementLikesCount(ctx, "bad"), ErrInvalidPostID)
}

func postBodies(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Body
	}
	return out
}
