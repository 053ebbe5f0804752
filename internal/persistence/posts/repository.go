package posts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"whatsgood/internal/core"

	"github.com/samber/lo"
)

type Repository struct {
	Logger *slog.Logger
	DB     core.DB
}

func (r *Repository) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "posts.Repository")
	return nil
}

func (r *Repository) Fetch(ctx context.Context, q core.Query) ([]core.RawPost, error) {
	tx := r.DB.Model(&core.PostRecord{}).WithContext(ctx)

	if q.Scope.Collection != "" {
		tx = tx.Where("collection = ?", q.Scope.Collection)
	}
	if q.Scope.BrandID != "" {
		tx = tx.Where("brand_id = ?", q.Scope.BrandID)
	}
	if q.Scope.CommunityID != "" {
		tx = tx.Where("community_id = ?", q.Scope.CommunityID)
	}
	if q.Visibility != "" {
		tx = tx.Where("visibility = ?", string(q.Visibility))
	}
	if q.Ordered {
		tx = tx.Order("created_at DESC")
	}

	var records []core.PostRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}

	return lo.Map(records, func(record core.PostRecord, _ int) core.RawPost {
		return r.toRaw(record)
	}), nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.RawPost, error) {
	var record core.PostRecord
	err := r.DB.Model(&core.PostRecord{}).
		WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.RawPost{}, core.ErrNotFound
		}
		return core.RawPost{}, err
	}
	return r.toRaw(record), nil
}

func (r *Repository) AdjustLikeCount(ctx context.Context, id string, delta int) error {
	tx := r.DB.Model(&core.PostRecord{}).
		WithContext(ctx).
		Where("id = ?", id).
		Update("like_count", gorm.Expr("GREATEST(like_count + ?, 0)", delta))

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) SetCommentCount(ctx context.Context, id string, count int) error {
	tx := r.DB.Model(&core.PostRecord{}).
		WithContext(ctx).
		Where("id = ?", id).
		Update("comment_count", count)

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// toRaw decodes the JSONB payload and overlays the indexed columns on top.
// The columns win: they are what the queries filtered on.
func (r *Repository) toRaw(record core.PostRecord) core.RawPost {
	var raw core.RawPost
	if err := json.Unmarshal(record.Doc, &raw); err != nil {
		r.Logger.Warn("undecodable post payload, serving columns only", "id", record.ID, "error", err)
	}

	raw.ID = record.ID
	raw.Collection = record.Collection
	raw.BrandID = record.BrandID
	raw.CommunityID = record.CommunityID
	raw.Visibility = record.Visibility
	raw.IsBlocked = record.IsBlocked
	raw.NeedsReview = record.NeedsReview
	raw.LikeCount = record.LikeCount
	raw.CommentCount = record.CommentCount
	raw.CreatedAt = record.CreatedAt

	return raw
}
