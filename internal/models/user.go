package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model `json:"-"`
	UID        string  `json:"uid" gorm:"uniqueIndex"` // Firebase UID, or a generated UUID for local accounts
	Name       string  `json:"name"`
	Email      *string `json:"email" gorm:"uniqueIndex"` // unique when set; phone and anonymous Firebase accounts have none
	Age        *int    `json:"age"`
	Gender     *Gender `json:"gender"`
	Password   string  `json:"-"` // Store hashed password, ignore for JSON serialization
}

// EmailAddress returns the user's email, or "" when they have none.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// OptionalEmail returns nil for an empty address.
func OptionalEmail(email string) *string {
	if email == "" {
		return nil
	}
	return &email
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest replaces the profile fields. A null age or gender clears it.
type UpdateUserRequest struct {
	Name   string  `json:"name" validate:"required,min=2,max=50"`
	Age    *int    `json:"age" validate:"omitempty,min=0,max=150"`
	Gender *string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}
