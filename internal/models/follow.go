package models

import "time"

// Follow is a directed edge: Follower sees Following's posts in their feed.
// The combination of FollowerID and FollowingID must be unique.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follower_following,priority:1" json:"follower_id"`
	Follower    *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_following,priority:2;index" json:"following_id"`
	Following   *User     `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
