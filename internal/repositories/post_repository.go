package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/echoo/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidPostID = errors.New("invalid post ID format")
)

// SortField is one ordering key of a post query.
type SortField struct {
	Field      string
	Descending bool
}

// PostQuery describes a bounded, sorted read of the posts collection.
// An empty AuthorID means every author.
type PostQuery struct {
	AuthorID string
	Sort     []SortField
	Limit    int64
}

// Document is a raw post as returned by a store, decoded lazily so a single
// malformed record can be skipped by the caller.
type Document interface {
	ID() string
	Decode(post *models.Post) error
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	QueryPosts(ctx context.Context, q PostQuery) ([]Document, error)
	IncrementLikesCount(ctx context.Context, postID string) error
	DecrementLikesCount(ctx context.Context, postID string) error
}

// bsonDocument wraps a raw BSON post.
type bsonDocument struct {
	raw bson.Raw
}

func (d bsonDocument) ID() string {
	v, err := d.raw.LookupErr(models.FieldID)
	if err != nil {
		return ""
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return v.String()
}

func (d bsonDocument) Decode(post *models.Post) error {
	return bson.Unmarshal(d.raw, post)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID().Hex()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrInvalidPostID
	}

	var post models.Post
	err := r.collection.FindOne(ctx, idFilter(id)).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// QueryPosts runs a sorted, limited find and returns the raw documents
func (r *MongoPostRepository) QueryPosts(ctx context.Context, q PostQuery) ([]Document, error) {
	filter := bson.M{}
	if q.AuthorID != "" {
		filter[models.FieldAuthorID] = q.AuthorID
	}

	findOptions := options.Find().SetSort(mongoSort(q.Sort))
	if q.Limit > 0 {
		findOptions.SetLimit(q.Limit)
	}
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		// cursor.Current is only valid until the next call to Next
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		docs = append(docs, bsonDocument{raw: raw})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// IncrementLikesCount increments the like count of a post
func (r *MongoPostRepository) IncrementLikesCount(ctx context.Context, postID string) error {
	return r.addLikes(ctx, postID, 1, idFilter(postID))
}

// DecrementLikesCount decrements the like count of a post, never below zero
func (r *MongoPostRepository) DecrementLikesCount(ctx context.Context, postID string) error {
	filter := idFilter(postID)
	filter[models.FieldLikeCount] = bson.M{"$gt": 0}
	return r.addLikes(ctx, postID, -1, filter)
}

func (r *MongoPostRepository) addLikes(ctx context.Context, postID string, delta int64, filter bson.M) error {
	if !primitive.IsValidObjectID(postID) {
		return ErrInvalidPostID
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{models.FieldLikeCount: delta}})
	if err != nil {
		return fmt.Errorf("update like count: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if delta > 0 {
		return ErrPostNotFound
	}

	// nothing matched the decrement: the post is missing or already at zero
	err = r.collection.FindOne(ctx, idFilter(postID), options.FindOne().SetProjection(bson.M{models.FieldID: 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrPostNotFound
	}
	return err
}

// idFilter matches id stored either as a hex string or as an ObjectID.
func idFilter(id string) bson.M {
	ids := bson.A{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		ids = append(ids, oid)
	}
	return bson.M{models.FieldID: bson.M{"$in": ids}}
}

func mongoSort(fields []SortField) bson.D {
	sort := bson.D{}
	for _, f := range fields {
		dir := 1
		if f.Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}
