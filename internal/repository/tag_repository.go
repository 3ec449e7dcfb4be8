package repository

import (
	"context"

	"forum_backend/internal/model"

	"gorm.io/gorm"
)

type GormTagRepository struct {
	DB *gorm.DB
}

func NewTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{DB: db}
}

func (r *GormTagRepository) GetAllForForum(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.DB.WithContext(ctx).Where("forum = ?", true).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *GormTagRepository) GetAllTagsBySlug(ctx context.Context, slugs []string) ([]model.Tag, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	err := r.DB.WithContext(ctx).Where("slug IN ?", slugs).Find(&tags).Error
	return tags, err
}

func (r *GormTagRepository) GetTagsByIDs(ctx context.Context, ids []uint) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error
	return tags, err
}
