package repository

import (
	"context"

	"forum_backend/internal/model"

	"gorm.io/gorm"
)

type GormReplyRepository struct {
	DB *gorm.DB
}

func NewReplyRepository(db *gorm.DB) *GormReplyRepository {
	return &GormReplyRepository{DB: db}
}

func (r *GormReplyRepository) RequireByID(ctx context.Context, id uint) (*model.Reply, error) {
	var reply model.Reply
	if err := r.DB.WithContext(ctx).First(&reply, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &reply, nil
}
