package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SubjectID string             `bson:"subject_id" json:"subjectId"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	AvatarKey string             `bson:"avatar_key,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Identity is what the external auth verifier vouches for.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
}

type LoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type LoginResponse struct {
	Success bool          `json:"success"`
	User    *UserProfile  `json:"user"`
	Session *SessionToken `json:"-"`
}

type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

type ProfileUpdateRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

// UserProfile is the externally visible user document.
type UserProfile struct {
	ID           string    `json:"_id"`
	SubjectID    string    `json:"subjectId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage *string   `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	User    *UserProfile `json:"user"`
}
