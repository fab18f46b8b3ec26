package models

import "time"

// Length limits for user-authored text.
const (
	MaxPostBodyLength  = 1000
	MaxReplyBodyLength = 500
)

// Post is a status update. The counters are denormalized from the reaction and
// share tables and only ever move inside the transaction that writes those rows.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AuthorID      uint      `gorm:"not null;index:idx_posts_author_created,priority:1" json:"author_id"`
	Author        User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	Image         string    `gorm:"size:255" json:"image"`
	LikesCount    int       `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int       `gorm:"not null;default:0" json:"dislikes_count"`
	SharesCount   int       `gorm:"not null;default:0" json:"shares_count"`
	CreatedAt     time.Time `gorm:"index:idx_posts_author_created,priority:2;index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Liked and Disliked describe the requesting viewer (computed)
	Liked    bool `gorm:"->;-:migration" json:"liked"`
	Disliked bool `gorm:"->;-:migration" json:"disliked"`
}

// Reply is a comment attached to a post.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Body      string    `gorm:"size:500;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
