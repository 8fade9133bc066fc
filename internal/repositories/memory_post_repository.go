package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/echoo/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryPostRepository keeps raw BSON post documents in memory. It decodes the
// same way as the Mongo store, so malformed documents behave identically.
type MemoryPostRepository struct {
	mu   sync.RWMutex
	docs []bson.Raw
	now  func() time.Time
}

// NewMemoryPostRepository creates an empty in-memory post store
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{now: time.Now}
}

// CreatePost stores a new post and assigns its ID
func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID().Hex()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = r.now()
	}
	raw, err := bson.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, raw)
	return nil
}

// InsertRaw stores an arbitrary document as-is. Used to load fixtures and
// documents written by other clients.
func (r *MemoryPostRepository) InsertRaw(doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, raw)
	return nil
}

// GetPostByID retrieves a post by ID
func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, ErrInvalidPostID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	var post models.Post
	if err := bson.Unmarshal(r.docs[i], &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// QueryPosts filters, sorts and limits the stored documents
func (r *MemoryPostRepository) QueryPosts(ctx context.Context, q PostQuery) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]bson.Raw, 0, len(r.docs))
	for _, raw := range r.docs {
		if q.AuthorID != "" {
			author, ok := raw.Lookup(models.FieldAuthorID).StringValueOK()
			if !ok || author != q.AuthorID {
				continue
			}
		}
		matched = append(matched, raw)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		for _, f := range q.Sort {
			c := compareRaw(matched[i].Lookup(f.Field), matched[j].Lookup(f.Field))
			if c == 0 {
				continue
			}
			if f.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}
	docs := make([]Document, len(matched))
	for i, raw := range matched {
		docs[i] = bsonDocument{raw: raw}
	}
	return docs, nil
}

// IncrementLikesCount increments the like count of a post
func (r *MemoryPostRepository) IncrementLikesCount(_ context.Context, postID string) error {
	return r.addLikes(postID, 1)
}

// DecrementLikesCount decrements the like count of a post, never below zero
func (r *MemoryPostRepository) DecrementLikesCount(_ context.Context, postID string) error {
	return r.addLikes(postID, -1)
}

func (r *MemoryPostRepository) addLikes(postID string, delta int64) error {
	if !primitive.IsValidObjectID(postID) {
		return ErrInvalidPostID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(postID)
	if i < 0 {
		return ErrPostNotFound
	}
	var post models.Post
	if err := bson.Unmarshal(r.docs[i], &post); err != nil {
		return err
	}
	post.LikeCount += delta
	if post.LikeCount < 0 {
		post.LikeCount = 0
	}
	raw, err := bson.Marshal(&post)
	if err != nil {
		return err
	}
	r.docs[i] = raw
	return nil
}

func (r *MemoryPostRepository) indexOf(id string) int {
	for i, raw := range r.docs {
		if (bsonDocument{raw: raw}).ID() == id {
			return i
		}
	}
	return -1
}

// compareRaw orders two BSON values of the sort types used on posts.
// Missing or unsupported values sort lowest.
func compareRaw(a, b bson.RawValue) int {
	switch {
	case a.Type == bsontype.DateTime && b.Type == bsontype.DateTime:
		return compareInt(a.DateTime(), b.DateTime())
	case isNumber(a) && isNumber(b):
		return compareInt(asInt64(a), asInt64(b))
	case isID(a) && isID(b):
		return strings.Compare(idString(a), idString(b))
	case isNumber(a) || a.Type == bsontype.DateTime || isID(a):
		return 1
	case isNumber(b) || b.Type == bsontype.DateTime || isID(b):
		return -1
	}
	return 0
}

// isID reports whether v is a document ID; hex ObjectIDs and string IDs sort together.
func isID(v bson.RawValue) bool {
	return v.Type == bsontype.String || v.Type == bsontype.ObjectID
}

func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return v.StringValue()
}

func isNumber(v bson.RawValue) bool {
	return v.Type == bsontype.Int32 || v.Type == bsontype.Int64 || v.Type == bsontype.Double
}

func asInt64(v bson.RawValue) int64 {
	switch v.Type {
	case bsontype.Int32:
		return int64(v.Int32())
	case bsontype.Int64:
		return v.Int64()
	case bsontype.Double:
		return int64(v.Double())
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
