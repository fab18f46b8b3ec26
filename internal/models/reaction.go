package models

import "time"

// ReactionKind is either like or dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is a known kind.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// CounterColumn is the posts column mirroring this kind.
func (k ReactionKind) CounterColumn() string {
	if k == ReactionDislike {
		return "dislikes_count"
	}
	return "likes_count"
}

// Reaction is the source of truth for likes and dislikes.
// The combination of PostID, UserID and Kind must be unique.
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_reaction_post_user_kind,priority:1" json:"post_id"`
	Post      *Post        `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_reaction_post_user_kind,priority:2;index" json:"user_id"`
	User      *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Kind      ReactionKind `gorm:"size:10;not null;uniqueIndex:idx_reaction_post_user_kind,priority:3" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

// Share is an append-only record of a user sharing a post.
type Share struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
