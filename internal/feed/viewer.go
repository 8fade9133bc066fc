package feed

import (
	"context"
	"fmt"

	"github.com/anonto42/echoo/backend/internal/models"
)

// Viewer holds the profile attributes used for targeting. Either may be nil.
type Viewer struct {
	Age    *int
	Gender *models.Gender
}

// Sees reports whether the post is visible to v.
func (v Viewer) Sees(post *models.Post) bool {
	return Matches(post, v.Age, v.Gender)
}

// ViewerFromUser copies the targeting attributes of a profile.
func ViewerFromUser(user *models.User) Viewer {
	if user == nil {
		return Viewer{}
	}
	return Viewer{Age: user.Age, Gender: user.Gender}
}

// ProfileLookup reads a user profile by UID.
type ProfileLookup interface {
	GetProfile(ctx context.Context, uid string) (*models.User, error)
}

// ResolveViewer loads the viewer for uid. The returned Viewer is always
// usable: on failure it is empty and the error wraps ErrProfileLookupFailed.
func ResolveViewer(ctx context.Context, lookup ProfileLookup, uid string) (Viewer, error) {
	user, err := lookup.GetProfile(ctx, uid)
	if err != nil {
		return Viewer{}, fmt.Errorf("%w: %v", ErrProfileLookupFailed, err)
	}
	return ViewerFromUser(user), nil
}
