package core

import (
	"time"

	"gorm.io/datatypes"
)

// PostRecord is the posts table row. Scope and moderation attributes are
// real columns so queries can filter on them; everything else lives in the
// Doc JSONB payload in whatever field spelling the writer used.
type PostRecord struct {
	ID          string `gorm:"primaryKey"`
	Collection  string
	BrandID     string
	CommunityID string
	Visibility  string

	IsBlocked   bool
	NeedsReview bool

	LikeCount    int
	CommentCount int

	CreatedAt time.Time
	UpdatedAt time.Time

	Doc datatypes.JSON
}

func (PostRecord) TableName() string {
	return "posts"
}

// LikeRecord is one member's like on one post.
type LikeRecord struct {
	PostID   string `gorm:"primaryKey"`
	MemberID string `gorm:"primaryKey"`

	CreatedAt time.Time
}

func (LikeRecord) TableName() string {
	return "likes"
}

// CommentRecord is a comment on a post. Only counted here, never rendered.
type CommentRecord struct {
	ID       string `gorm:"primaryKey"`
	PostID   string
	AuthorID string
	Body     string

	CreatedAt time.Time
}

func (CommentRecord) TableName() string {
	return "comments"
}

// ProfileRecord is a member directory row.
type ProfileRecord struct {
	ID       string `gorm:"primaryKey"`
	Name     string
	PhotoURL string
	Role     string
	Verified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProfileRecord) TableName() string {
	return "profiles"
}
