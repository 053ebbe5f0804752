package profiles

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"whatsgood/internal/core"
)

type Repository struct {
	DB core.DB
}

func (r *Repository) Get(ctx context.Context, id string) (core.Profile, error) {
	var record core.ProfileRecord
	err := r.DB.Model(&core.ProfileRecord{}).
		WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Profile{}, core.ErrNotFound
		}
		return core.Profile{}, err
	}

	return core.Profile{
		ID:       record.ID,
		Name:     record.Name,
		PhotoURL: record.PhotoURL,
		Role:     record.Role,
		Verified: record.Verified,
	}, nil
}
