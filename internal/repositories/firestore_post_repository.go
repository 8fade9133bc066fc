package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/echoo/backend/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreDocument struct {
	snap *firestore.DocumentSnapshot
}

func (d firestoreDocument) ID() string {
	return d.snap.Ref.ID
}

func (d firestoreDocument) Decode(post *models.Post) error {
	if err := d.snap.DataTo(post); err != nil {
		return err
	}
	post.ID = d.snap.Ref.ID
	return nil
}

// FirestorePostRepository implements PostRepository on Cloud Firestore
type FirestorePostRepository struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

// NewFirestorePostRepository creates a new FirestorePostRepository
func NewFirestorePostRepository(client *firestore.Client) *FirestorePostRepository {
	return &FirestorePostRepository{client: client, collection: client.Collection("posts")}
}

// CreatePost adds a post document; Firestore assigns the ID
func (r *FirestorePostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	ref, _, err := r.collection.Add(ctx, post)
	if err != nil {
		return err
	}
	post.ID = ref.ID
	return nil
}

// GetPostByID retrieves a post document by ID
func (r *FirestorePostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, ErrInvalidPostID
	}
	snap, err := r.collection.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	var post models.Post
	if err := (firestoreDocument{snap: snap}).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// QueryPosts runs an ordered, limited query and returns the document snapshots
func (r *FirestorePostRepository) QueryPosts(ctx context.Context, q PostQuery) ([]Document, error) {
	query := r.collection.Query
	if q.AuthorID != "" {
		query = query.Where(models.FieldAuthorID, "==", q.AuthorID)
	}
	for _, f := range q.Sort {
		dir := firestore.Asc
		if f.Descending {
			dir = firestore.Desc
		}
		field := f.Field
		if field == models.FieldID {
			field = firestore.DocumentID
		}
		query = query.OrderBy(field, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(int(q.Limit))
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, firestoreDocument{snap: snap})
	}
	return docs, nil
}

// IncrementLikesCount increments the like count of a post
func (r *FirestorePostRepository) IncrementLikesCount(ctx context.Context, postID string) error {
	return r.addLikes(ctx, postID, 1)
}

// DecrementLikesCount decrements the like count of a post, never below zero
func (r *FirestorePostRepository) DecrementLikesCount(ctx context.Context, postID string) error {
	return r.addLikes(ctx, postID, -1)
}

func (r *FirestorePostRepository) addLikes(ctx context.Context, postID string, delta int64) error {
	if postID == "" {
		return ErrInvalidPostID
	}
	ref := r.collection.Doc(postID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if !likeCountApplies(snap, delta) {
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: models.FieldLikeCount, Value: firestore.Increment(delta)}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrPostNotFound
		}
		return fmt.Errorf("update like count: %w", err)
	}
	return nil
}

// fieldReader is the part of *firestore.DocumentSnapshot read by likeCountApplies.
type fieldReader interface {
	DataAt(path string) (interface{}, error)
}

// likeCountApplies reports whether adding delta keeps the like count of doc
// at zero or above. A document without a like count is at zero.
func likeCountApplies(doc fieldReader, delta int64) bool {
	var count int64
	if current, err := doc.DataAt(models.FieldLikeCount); err == nil {
		count, _ = current.(int64)
	}
	return count+delta >= 0
}
