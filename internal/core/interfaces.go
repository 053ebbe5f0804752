package core

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// DB is the shared database handle.
type DB interface {
	Model(a any) *gorm.DB
	DB() (*sql.DB, error)
	EstimatedCount(tableName string) (int64, error)
}

// Migrator manages the database schema.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Migrate(ctx context.Context, version uint) error
}

// PostRepository reads post records. Posts are created by the authoring
// flow outside this service; nothing here writes them.
type PostRepository interface {
	Fetch(ctx context.Context, q Query) ([]RawPost, error)
	Get(ctx context.Context, id string) (RawPost, error)
	AdjustLikeCount(ctx context.Context, id string, delta int) error
	SetCommentCount(ctx context.Context, id string, count int) error
}

// LikeRepository manages like rows and the authoritative like count.
type LikeRepository interface {
	// Set creates or removes the (postID, memberID) like row. It reports
	// whether anything changed, so double-taps don't double-count.
	Set(ctx context.Context, postID, memberID string, liked bool) (bool, error)
	Exists(ctx context.Context, postID, memberID string) (bool, error)
	Count(ctx context.Context, postID string) (int, error)
}

// CommentRepository counts comments per post.
type CommentRepository interface {
	Count(ctx context.Context, postID string) (int, error)
}

// ProfileRepository reads member directory rows.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (Profile, error)
}

// Subscription is one active live-query registration. Cancel is idempotent;
// after it returns no further snapshots or errors are delivered.
type Subscription interface {
	Snapshots() <-chan Snapshot
	Errors() <-chan error
	Cancel()
}

// LiveStore is the document-store surface the feed pipeline consumes:
// one-shot fetches, live queries, single-document loads, count queries and
// the like mutation.
type LiveStore interface {
	Fetch(ctx context.Context, q Query) ([]RawPost, error)
	Subscribe(ctx context.Context, q Query) (Subscription, error)

	Get(ctx context.Context, id string) (RawPost, error)
	Profile(ctx context.Context, memberID string) (Profile, error)

	LikeCount(ctx context.Context, postID string) (int, error)
	CommentCount(ctx context.Context, postID string) (int, error)

	Liked(ctx context.Context, postID, memberID string) (bool, error)
	SetLike(ctx context.Context, postID, memberID string, liked bool) error
}

// ChangePublisher pushes post mutation events onto the change stream.
type ChangePublisher interface {
	PublishChange(ctx context.Context, change PostChange) error
}

// MetricsServer exposes prometheus metrics over HTTP.
type MetricsServer interface{}

// MetricsCollector periodically samples table sizes.
type MetricsCollector interface{}
