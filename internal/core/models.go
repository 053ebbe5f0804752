package core

import (
	"fmt"
	"time"
)

// Visibility of a post. Only public posts are served; other values are
// reserved for drafts and moderation queues.
type Visibility string

const (
	VisibilityPublic Visibility = "public"
)

// Collections a feed can subscribe to. Pro posts live in their own
// collection, everything else is in the shared posts collection.
const (
	CollectionPosts    = "posts"
	CollectionProPosts = "pro_posts"
)

// OpenCommunityID is the distinguished community that denotes the open
// "What's Good" feed.
const OpenCommunityID = "open"

// RawAuthor is the nested author object found on legacy post records.
type RawAuthor struct {
	Name         string `json:"name,omitempty"`
	PhotoURL     string `json:"photoURL,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	Image        string `json:"image,omitempty"`
}

// RawPost is a post record as stored, including every legacy field spelling
// that accumulated over the schema's lifetime. It is only ever read through
// feed.Normalize, which collapses the fallback chains into a Post.
type RawPost struct {
	ID          string `json:"id"`
	Collection  string `json:"collection,omitempty"`
	BrandID     string `json:"brandId,omitempty"`
	CommunityID string `json:"communityId,omitempty"`
	Visibility  string `json:"visibility,omitempty"`

	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Body    string `json:"body,omitempty"`

	ImageURLs []string `json:"imageUrls,omitempty"`
	Images    []string `json:"images,omitempty"`

	AuthorID       string     `json:"authorId,omitempty"`
	AuthorName     string     `json:"authorName,omitempty"`
	AuthorPhotoURL string     `json:"authorPhotoURL,omitempty"`
	Author         *RawAuthor `json:"author,omitempty"`

	BrandName string `json:"brandName,omitempty"`
	Company   string `json:"company,omitempty"`
	Brand     string `json:"brand,omitempty"`

	LikeCount    int `json:"likeCount,omitempty"`
	CommentCount int `json:"commentCount,omitempty"`

	IsBlocked   bool `json:"isBlocked,omitempty"`
	NeedsReview bool `json:"needsReview,omitempty"`

	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Post is the canonical display shape of a post. All legacy fallback chains
// are already resolved.
type Post struct {
	ID          string     `json:"id"`
	Collection  string     `json:"collection"`
	BrandID     string     `json:"brandId,omitempty"`
	CommunityID string     `json:"communityId,omitempty"`
	Visibility  Visibility `json:"visibility"`

	Title     string   `json:"title,omitempty"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls,omitempty"`

	AuthorID       string `json:"authorId,omitempty"`
	AuthorName     string `json:"authorName,omitempty"`
	AuthorPhotoURL string `json:"authorPhotoURL,omitempty"`

	Brand string `json:"brand,omitempty"`

	LikeCount    int `json:"likeCount"`
	CommentCount int `json:"commentCount"`

	IsBlocked   bool `json:"isBlocked,omitempty"`
	NeedsReview bool `json:"needsReview,omitempty"`

	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Raw re-exports the canonical shape as a raw record. Only canonical field
// spellings are populated, so normalizing the result is a fixpoint.
func (p Post) Raw() RawPost {
	return RawPost{
		ID:             p.ID,
		Collection:     p.Collection,
		BrandID:        p.BrandID,
		CommunityID:    p.CommunityID,
		Visibility:     string(p.Visibility),
		Title:          p.Title,
		Content:        p.Content,
		ImageURLs:      p.ImageURLs,
		AuthorID:       p.AuthorID,
		AuthorName:     p.AuthorName,
		AuthorPhotoURL: p.AuthorPhotoURL,
		BrandName:      p.Brand,
		LikeCount:      p.LikeCount,
		CommentCount:   p.CommentCount,
		IsBlocked:      p.IsBlocked,
		NeedsReview:    p.NeedsReview,
		Tags:           p.Tags,
		CreatedAt:      p.CreatedAt,
	}
}

// Visible reports whether the post may be rendered in a public feed.
func (p Post) Visible() bool {
	return p.Visibility == VisibilityPublic && !p.IsBlocked && !p.NeedsReview
}

// Profile is a member's directory record, used to backfill author photos.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
	Role     string `json:"role,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// Scope narrows which posts a feed subscribes to.
type Scope struct {
	Collection  string
	BrandID     string
	CommunityID string
}

// Key is the stable serialization of a scope. Two feed instances with the
// same key watch the same result set.
func (s Scope) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.Collection, s.BrandID, s.CommunityID)
}

// Query describes one live or one-shot read against the post store.
type Query struct {
	Scope      Scope
	Visibility Visibility

	// Ordered requests ORDER BY created_at DESC on the store side. The
	// fallback path clears it and sorts client-side instead.
	Ordered bool
}

// Snapshot is one full delivery of a live query. Successive snapshots
// replace each other, they are never merged.
type Snapshot struct {
	Posts   []RawPost
	Ordered bool

	// Rev is the store revision (event time in microseconds) that triggered
	// the snapshot, 0 for the initial load.
	Rev int64
}

// Change operations published to the change stream.
const (
	ChangeOpCreate  = "create"
	ChangeOpUpdate  = "update"
	ChangeOpDelete  = "delete"
	ChangeOpLike    = "like"
	ChangeOpUnlike  = "unlike"
	ChangeOpComment = "comment"
)

// PostChange is a single mutation event on the post change stream. Live
// subscriptions use it purely as an invalidation signal and re-query.
type PostChange struct {
	PostID      string `json:"postId"`
	Collection  string `json:"collection"`
	BrandID     string `json:"brandId,omitempty"`
	CommunityID string `json:"communityId,omitempty"`
	Op          string `json:"op"`
	TimeUS      int64  `json:"time_us"`
}

// Matches reports whether the change can affect the result set of the scope.
func (c PostChange) Matches(s Scope) bool {
	if c.Collection != s.Collection {
		return false
	}
	if s.BrandID != "" && c.BrandID != s.BrandID {
		return false
	}
	if s.CommunityID != "" && c.CommunityID != s.CommunityID {
		return false
	}
	return true
}
