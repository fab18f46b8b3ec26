// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account holder. Rows are hard-deleted together with everything
// they own.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;not null" json:"-"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	Password  string    `gorm:"not null" json:"-"`
	Profile   *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaxBioLength bounds Profile.Bio.
const MaxBioLength = 280

// Profile holds the public face of a user. Exactly one exists per user.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Bio       string    `gorm:"size:280" json:"bio"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileView is a profile page: the user, edge counts and the viewer's
// relationship to them.
type ProfileView struct {
	User           *User  `json:"user"`
	AvatarURL      string `json:"avatar_url"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
	IsOwner        bool   `json:"is_owner"`
}

// UserListEntry is one row of the users directory.
type UserListEntry struct {
	User        *User `json:"user"`
	IsFollowing bool  `json:"is_following"`
}
