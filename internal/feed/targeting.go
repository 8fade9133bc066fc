package feed

import "github.com/anonto42/echoo/backend/internal/models"

// Matches reports whether post is visible to a viewer with the given age and
// gender. Age bounds are inclusive. A missing viewer attribute skips the
// corresponding dimension instead of failing it.
func Matches(post *models.Post, age *int, gender *models.Gender) bool {
	if post.Untargeted() {
		return true
	}

	if age != nil {
		if post.TargetMinAge != nil && *age < *post.TargetMinAge {
			return false
		}
		if post.TargetMaxAge != nil && *age > *post.TargetMaxAge {
			return false
		}
	}

	if gender != nil && post.TargetGender != nil && *post.TargetGender != models.GenderAll {
		if *gender != *post.TargetGender {
			return false
		}
	}

	return true
}
