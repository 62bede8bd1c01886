package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID   `json:"id"`
	ExternalIdentityID string      `json:"-"`
	Username           string      `json:"username"`
	Email              string      `json:"email,omitempty"`
	ImageURL           string      `json:"imageUrl,omitempty"`
	Bio                string      `json:"bio,omitempty"`
	Karma              int         `json:"karma"`
	Following          []uuid.UUID `json:"following"`
	Followers          []uuid.UUID `json:"followers"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// ExternalIdentity is what the identity provider asserts about the caller.
type ExternalIdentity struct {
	ID       string
	Username string
	Email    string
	ImageURL string
}

func shortExternalID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DefaultUsername is used when the provider supplies no display name.
func DefaultUsername(externalID string) string {
	return "user_" + shortExternalID(externalID)
}

// SuffixedUsername is the n-th alternative for a username that is already taken.
func SuffixedUsername(base string, n int) string {
	return base + "_" + strconv.Itoa(n)
}

// NewUserFromIdentity builds the document created on first sight of an identity.
func NewUserFromIdentity(identity ExternalIdentity, now time.Time) *User {
	username := identity.Username
	if username == "" {
		username = DefaultUsername(identity.ID)
	}
	email := identity.Email
	if email == "" {
		email = "user_" + shortExternalID(identity.ID) + "@placeholder.com"
	}
	return &User{
		ID:                 uuid.New(),
		ExternalIdentityID: identity.ID,
		Username:           username,
		Email:              email,
		ImageURL:           identity.ImageURL,
		Following:          []uuid.UUID{},
		Followers:          []uuid.UUID{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// UserProfile is the public view of a user.
type UserProfile struct {
	User           *User       `json:"user"`
	FollowerCount  int         `json:"followerCount"`
	FollowingCount int         `json:"followingCount"`
	IsFollowing    bool        `json:"isFollowing"`
	RecentPosts    []*PostView `json:"recentPosts"`
}
