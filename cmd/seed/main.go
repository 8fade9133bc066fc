// Seed tool: fills the configured post store with a demo corpus.
// Roughly a third of the posts carry an age range or a gender target; the
// rest are visible to everyone.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/anonto42/echoo/backend/internal/models"
	"github.com/anonto42/echoo/backend/internal/repositories"
	"github.com/anonto42/echoo/backend/internal/router"
	"github.com/anonto42/echoo/backend/pkg/config"
	"github.com/anonto42/echoo/backend/pkg/firebase"
	"github.com/anonto42/echoo/backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var bodies = []string{
	"First coffee of the day and the build is green.",
	"Anyone else watching the meteor shower tonight?",
	"Hot take: tabs are fine.",
	"Just finished a 10k run, legs are jelly.",
	"Looking for book recommendations, preferably sci-fi.",
	"The new bakery on 5th is worth the queue.",
	"Weekend plans: absolutely nothing.",
	"Pushed my first open source PR today!",
}

func main() {
	var numPosts int
	var numAuthors int
	var store string
	var span time.Duration
	flag.IntVar(&numPosts, "posts", 200, "number of posts to insert")
	flag.IntVar(&numAuthors, "authors", 20, "number of distinct authors")
	flag.StringVar(&store, "store", "", "post store override: mongo | firestore")
	flag.DurationVar(&span, "span", 7*24*time.Hour, "spread creation times over this window")
	flag.Parse()

	cfg := config.Load()
	if store != "" {
		cfg.PostStore = store
	}
	if cfg.PostStore == config.PostStoreMemory {
		log.Fatalf("the memory post store does not outlive the seed process")
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	repo, closeFn, err := openPostStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to open post store", zap.Error(err))
	}
	defer closeFn()

	// Local RNG instance; no global seeding.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()
	if err := seed(ctx, repo, r, numPosts, numAuthors, span); err != nil {
		zl.Fatal("Seed failed", zap.Error(err))
	}
	zl.Info("Seed done",
		zap.Int("posts", numPosts),
		zap.String("store", cfg.PostStore),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))
}

func openPostStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (repositories.PostRepository, func(), error) {
	switch cfg.PostStore {
	case config.PostStoreMongo:
		db, err := config.InitMongo(cfg, zl)
		if err != nil {
			return nil, nil, err
		}
		repo, err := router.NewPostRepository(cfg, db, nil)
		if err != nil {
			db.CloseDB()
			return nil, nil, err
		}
		return repo, db.CloseDB, nil
	case config.PostStoreFirestore:
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, true, zl)
		if err != nil {
			return nil, nil, err
		}
		repo, err := router.NewPostRepository(cfg, nil, app)
		if err != nil {
			_ = app.Close()
			return nil, nil, err
		}
		return repo, func() { _ = app.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown post store %q", cfg.PostStore)
}

type author struct {
	id   string
	name string
}

func seed(ctx context.Context, repo repositories.PostRepository, r *rand.Rand, numPosts, numAuthors int, span time.Duration) error {
	if numAuthors < 1 {
		numAuthors = 1
	}
	if span <= 0 {
		span = time.Hour
	}
	authors := make([]author, numAuthors)
	for i := range authors {
		authors[i] = author{id: uuid.NewString(), name: fmt.Sprintf("demo_user_%02d", i+1)}
	}

	now := time.Now()
	for i := 0; i < numPosts; i++ {
		a := authors[r.Intn(len(authors))]
		post := &models.Post{
			AuthorID:          a.id,
			AuthorDisplayName: a.name,
			Body:              bodies[r.Intn(len(bodies))],
			LikeCount:         r.Int63n(100),
			CreatedAt:         now.Add(-time.Duration(r.Int63n(int64(span)))),
		}
		target(post, r)
		if err := repo.CreatePost(ctx, post); err != nil {
			return fmt.Errorf("insert post %d: %w", i, err)
		}
	}
	return nil
}

// target restricts about a third of the posts by age range or by gender.
func target(post *models.Post, r *rand.Rand) {
	switch r.Intn(6) {
	case 0:
		lo := 13 + r.Intn(20)
		hi := lo + 5 + r.Intn(30)
		post.TargetMinAge, post.TargetMaxAge = &lo, &hi
	case 1:
		g := models.GenderMale
		if r.Intn(2) == 0 {
			g = models.GenderFemale
		}
		post.TargetGender = &g
	}
}
