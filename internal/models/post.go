package models

import (
	"time"
)

// Gender is used both for a post's audience and for a user's profile.
// Posts accept male, female and all; profiles accept male, female and other.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
	GenderAll    Gender = "all"
)

// Document field names shared by every post store.
const (
	FieldID                = "_id"
	FieldAuthorID          = "authorId"
	FieldAuthorDisplayName = "authorDisplayName"
	FieldBody              = "body"
	FieldLikeCount         = "likeCount"
	FieldCreatedAt         = "createdAt"
	FieldTargetMinAge      = "targetMinAge"
	FieldTargetMaxAge      = "targetMaxAge"
	FieldTargetGender      = "targetGender"
)

// Post represents a short text post stored in the document store
type Post struct {
	ID                string    `json:"id" bson:"_id,omitempty" firestore:"-"`
	AuthorID          string    `json:"author_id" bson:"authorId" firestore:"authorId"` // UID of the user who created the post
	AuthorDisplayName string    `json:"author_display_name" bson:"authorDisplayName" firestore:"authorDisplayName"`
	Body              string    `json:"body" bson:"body" firestore:"body"`
	LikeCount         int64     `json:"like_count" bson:"likeCount" firestore:"likeCount"`
	CreatedAt         time.Time `json:"created_at" bson:"createdAt" firestore:"createdAt"`
	TargetMinAge      *int      `json:"target_min_age,omitempty" bson:"targetMinAge,omitempty" firestore:"targetMinAge,omitempty"`
	TargetMaxAge      *int      `json:"target_max_age,omitempty" bson:"targetMaxAge,omitempty" firestore:"targetMaxAge,omitempty"`
	TargetGender      *Gender   `json:"target_gender,omitempty" bson:"targetGender,omitempty" firestore:"targetGender,omitempty"`
}

// Untargeted reports whether the post declares no audience restriction at all.
func (p *Post) Untargeted() bool {
	return p.TargetMinAge == nil && p.TargetMaxAge == nil && p.TargetGender == nil
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Body         string  `json:"body" validate:"notblank,max=280"`
	TargetMinAge *int    `json:"target_min_age,omitempty" validate:"omitempty,min=0,max=150"`
	TargetMaxAge *int    `json:"target_max_age,omitempty" validate:"omitempty,min=0,max=150"`
	TargetGender *string `json:"target_gender,omitempty" validate:"omitempty,oneof=male female all"`
}
