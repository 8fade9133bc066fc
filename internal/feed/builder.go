// Package feed builds the recent, popular and for-you views of the post
// corpus and aggregates them for a viewer.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/anonto42/echoo/backend/internal/repositories"
	"go.uber.org/zap"
)

// Kind names one of the feeds.
type Kind string

const (
	KindRecent  Kind = "recent"
	KindPopular Kind = "popular"
	KindForYou  Kind = "for_you"

	// kindAuthor is the author's own posts; it is not part of a refresh.
	kindAuthor Kind = "author"
)

// Kinds lists the feeds of an aggregate refresh in presentation order.
var Kinds = []Kind{KindRecent, KindPopular, KindForYou}

const (
	RecentLimit      = 50
	PopularLimit     = 50
	ForYouFetchLimit = 100
	AuthorPostsLimit = 100

	DefaultTimeout = 5 * time.Second
)

// ParseKind validates a feed name coming from a request.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindRecent, KindPopular, KindForYou:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var (
	newestFirst = repositories.SortField{Field: models.FieldCreatedAt, Descending: true}
	mostLiked   = repositories.SortField{Field: models.FieldLikeCount, Descending: true}

	// byID is the last key of every feed so that equal timestamps and like
	// counts still sort the same way on every read.
	byID = repositories.SortField{Field: models.FieldID, Descending: true}
)

func queryFor(kind Kind) (repositories.PostQuery, error) {
	switch kind {
	case KindRecent:
		return repositories.PostQuery{Sort: []repositories.SortField{newestFirst, byID}, Limit: RecentLimit}, nil
	case KindPopular:
		return repositories.PostQuery{Sort: []repositories.SortField{mostLiked, newestFirst, byID}, Limit: PopularLimit}, nil
	case KindForYou:
		return repositories.PostQuery{Sort: []repositories.SortField{newestFirst, byID}, Limit: ForYouFetchLimit}, nil
	}
	return repositories.PostQuery{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// PostSource is the read side of the post repository used by the builder.
type PostSource interface {
	QueryPosts(ctx context.Context, q repositories.PostQuery) ([]repositories.Document, error)
}

// Result is the outcome of one successful feed read.
type Result struct {
	Posts   []models.Post
	Skipped int // malformed documents left out
}

// Builder runs one bounded repository read per feed.
type Builder struct {
	source  PostSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewBuilder creates a Builder. A zero timeout means DefaultTimeout.
func NewBuilder(source PostSource, timeout time.Duration, logger *zap.Logger) *Builder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{source: source, timeout: timeout, logger: logger}
}

// Build fetches the feed of the given kind. The viewer is only consulted for
// the for-you feed, which keeps the fetch order and is not re-limited.
func (b *Builder) Build(ctx context.Context, kind Kind, viewer Viewer) (Result, error) {
	q, err := queryFor(kind)
	if err != nil {
		return Result{}, err
	}
	res, err := b.fetch(ctx, kind, q)
	if err != nil {
		return Result{}, err
	}
	if kind != KindForYou {
		return res, nil
	}

	visible := res.Posts[:0]
	for i := range res.Posts {
		if viewer.Sees(&res.Posts[i]) {
			visible = append(visible, res.Posts[i])
		}
	}
	res.Posts = visible
	return res, nil
}

// Recent returns up to 50 posts, newest first.
func (b *Builder) Recent(ctx context.Context) (Result, error) {
	return b.Build(ctx, KindRecent, Viewer{})
}

// Popular returns up to 50 posts, most liked first, newest first among ties.
func (b *Builder) Popular(ctx context.Context) (Result, error) {
	return b.Build(ctx, KindPopular, Viewer{})
}

// ForYou returns the posts targeted at viewer among the 100 newest.
func (b *Builder) ForYou(ctx context.Context, viewer Viewer) (Result, error) {
	return b.Build(ctx, KindForYou, viewer)
}

// AuthorPosts returns the newest posts written by authorID.
func (b *Builder) AuthorPosts(ctx context.Context, authorID string) (Result, error) {
	return b.fetch(ctx, kindAuthor, repositories.PostQuery{
		AuthorID: authorID,
		Sort:     []repositories.SortField{newestFirst, byID},
		Limit:    AuthorPostsLimit,
	})
}

func (b *Builder) fetch(ctx context.Context, kind Kind, q repositories.PostQuery) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	docs, err := b.source.QueryPosts(ctx, q)
	if err != nil {
		return Result{}, &FetchError{Kind: kind, Err: err}
	}

	res := Result{Posts: make([]models.Post, 0, len(docs))}
	for _, doc := range docs {
		var post models.Post
		if err := doc.Decode(&post); err != nil {
			res.Skipped++
			b.logger.Warn("Skipping malformed post document",
				zap.String("feed", string(kind)),
				zap.Error(&DocumentParseError{DocumentID: doc.ID(), Err: err}))
			continue
		}
		if post.ID == "" {
			post.ID = doc.ID()
		}
		res.Posts = append(res.Posts, post)
	}
	return res, nil
}
