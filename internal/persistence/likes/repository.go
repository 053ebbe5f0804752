package likes

import (
	"context"

	"gorm.io/gorm/clause"

	"whatsgood/internal/core"
)

type Repository struct {
	DB core.DB
}

// Set inserts or deletes the like row. The reported bool is whether a row
// actually changed, so repeated taps in the same state are no-ops.
func (r *Repository) Set(ctx context.Context, postID, memberID string, liked bool) (bool, error) {
	if liked {
		tx := r.DB.Model(&core.LikeRecord{}).
			WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&core.LikeRecord{PostID: postID, MemberID: memberID})

		return tx.RowsAffected > 0, tx.Error
	}

	tx := r.DB.Model(&core.LikeRecord{}).
		WithContext(ctx).
		Where("post_id = ? AND member_id = ?", postID, memberID).
		Delete(&core.LikeRecord{})

	return tx.RowsAffected > 0, tx.Error
}

func (r *Repository) Exists(ctx context.Context, postID, memberID string) (bool, error) {
	var count int64
	err := r.DB.Model(&core.LikeRecord{}).
		WithContext(ctx).
		Where("post_id = ? AND member_id = ?", postID, memberID).
		Count(&count).Error

	return count > 0, err
}

func (r *Repository) Count(ctx context.Context, postID string) (int, error) {
	var count int64
	err := r.DB.Model(&core.LikeRecord{}).
		WithContext(ctx).
		Where("post_id = ?", postID).
		Count(&count).Error

	return int(count), err
}
