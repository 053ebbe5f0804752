package comments

import (
	"context"

	"whatsgood/internal/core"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Count(ctx context.Context, postID string) (int, error) {
	var count int64
	err := r.DB.Model(&core.CommentRecord{}).
		WithContext(ctx).
		Where("post_id = ?", postID).
		Count(&count).Error

	return int(count), err
}
