package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const postsNS = "echoo.posts"

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: n},
		bson.E{Key: "nModified", Value: n},
	)
}

func TestMongoPostRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns hex id", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		post := &models.Post{AuthorID: "u1", Body: "hi"}
		require.NoError(mt, repo.CreatePost(context.Background(), post))
		assert.True(mt, primitive.IsValidObjectID(post.ID))
		assert.False(mt, post.CreatedAt.IsZero())
	})

	mt.Run("query returns every document including malformed ones", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "p1"}, {Key: models.FieldBody, Value: "first"}, {Key: models.FieldLikeCount, Value: int64(2)}},
			bson.D{{Key: "_id", Value: oid}, {Key: models.FieldBody, Value: "second"}},
			bson.D{{Key: "_id", Value: "p3"}, {Key: models.FieldLikeCount, Value: "lots"}},
		))

		docs, err := repo.QueryPosts(context.Background(), PostQuery{
			AuthorID: "u1",
			Sort:     []SortField{{Field: models.FieldCreatedAt, Descending: true}, {Field: models.FieldID, Descending: true}},
			Limit:    50,
		})
		require.NoError(mt, err)
		require.Len(mt, docs, 3)

		var first, second, third models.Post
		require.NoError(mt, docs[0].Decode(&first))
		require.NoError(mt, docs[1].Decode(&second))
		assert.Equal(mt, "p1", first.ID)
		assert.Equal(mt, "first", first.Body)
		assert.EqualValues(mt, 2, first.LikeCount)
		assert.Equal(mt, oid.Hex(), docs[1].ID())
		assert.Equal(mt, "second", second.Body)
		assert.Equal(mt, "p3", docs[2].ID())
		assert.Error(mt, docs[2].Decode(&third))
	})

	mt.Run("query passes server errors through", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Name:    "InterruptedAtShutdown",
			Message: "interrupted at shutdown",
		}))

		_, err := repo.QueryPosts(context.Background(), PostQuery{Limit: 50})
		require.Error(mt, err)
		var cmdErr mongo.CommandError
		require.True(mt, errors.As(err, &cmdErr), "got %T", err)
		assert.EqualValues(mt, 11600, cmdErr.Code)
	})

	mt.Run("get maps no documents to not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch))

		_, err := repo.GetPostByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrPostNotFound)

		_, err = repo.GetPostByID(context.Background(), "not-hex")
		assert.ErrorIs(mt, err, ErrInvalidPostID)
	})

	mt.Run("get decodes the post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id.Hex()}, {Key: models.FieldBody, Value: "hello"}},
		))

		post, err := repo.GetPostByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), post.ID)
		assert.Equal(mt, "hello", post.Body)
	})

	mt.Run("increment of a missing post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(updated(0))

		err := repo.IncrementLikesCount(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrPostNotFound)
	})

	mt.Run("increment", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(updated(1))

		assert.NoError(mt, repo.IncrementLikesCount(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("decrement at zero is a no-op", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id := primitive.NewObjectID().Hex()
		mt.AddMockResponses(
			updated(0),
			mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: id}}),
		)

		assert.NoError(mt, repo.DecrementLikesCount(context.Background(), id))
	})

	mt.Run("decrement of a missing post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(
			updated(0),
			mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch),
		)

		err := repo.DecrementLikesCount(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrPostNotFound)
	})
}
