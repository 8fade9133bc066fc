package models

import "gorm.io/gorm"

// Like represents a like on a post
type Like struct {
	gorm.Model
	PostID  string `json:"post_id" gorm:"uniqueIndex:idx_like_post_user"` // ID of the liked post in the document store
	UserUID string `json:"user_uid" gorm:"uniqueIndex:idx_like_post_user;index"`
}
