package repositories

import (
	"testing"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoSort(t *testing.T) {
	got := mongoSort([]SortField{
		{Field: models.FieldLikeCount, Descending: true},
		{Field: models.FieldCreatedAt},
		{Field: models.FieldID, Descending: true},
	})
	assert.Equal(t, bson.D{
		{Key: models.FieldLikeCount, Value: -1},
		{Key: models.FieldCreatedAt, Value: 1},
		{Key: models.FieldID, Value: -1},
	}, got)
	assert.Empty(t, mongoSort(nil))
}

func TestIDFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	f := idFilter(oid.Hex())
	assert.Equal(t, bson.M{models.FieldID: bson.M{"$in": bson.A{oid.Hex(), oid}}}, f)

	f = idFilter("doc-1")
	assert.Equal(t, bson.M{models.FieldID: bson.M{"$in": bson.A{"doc-1"}}}, f)
}

func TestBSONDocumentID(t *testing.T) {
	oid := primitive.NewObjectID()
	for name, tc := range map[string]struct {
		doc  bson.D
		want string
	}{
		"string id":  {doc: bson.D{{Key: "_id", Value: "abc"}}, want: "abc"},
		"object id":  {doc: bson.D{{Key: "_id", Value: oid}}, want: oid.Hex()},
		"missing id": {doc: bson.D{{Key: "body", Value: "x"}}, want: ""},
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := bson.Marshal(tc.doc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bsonDocument{raw: raw}.ID())
		})
	}
}

func TestBSONDocumentDecodeObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: oid},
		{Key: models.FieldAuthorID, Value: "u1"},
		{Key: "body", Value: "written by another client"},
		{Key: models.FieldLikeCount, Value: int32(3)},
	})
	require.NoError(t, err)

	var p models.Post
	require.NoError(t, bsonDocument{raw: raw}.Decode(&p))
	assert.Equal(t, oid.Hex(), p.ID)
	assert.EqualValues(t, 3, p.LikeCount)
	assert.True(t, p.Untargeted())
}
