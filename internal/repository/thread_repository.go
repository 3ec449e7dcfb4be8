package repository

import (
	"context"
	"errors"

	"forum_backend/internal/model"

	"gorm.io/gorm"
)

type GormThreadRepository struct {
	DB *gorm.DB
}

func NewThreadRepository(db *gorm.DB) *GormThreadRepository {
	return &GormThreadRepository{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *GormThreadRepository) GetBySlug(ctx context.Context, slug string) (*model.Thread, error) {
	var thread model.Thread
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		First(&thread, "slug = ?", slug).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &thread, nil
}

func (r *GormThreadRepository) RequireByID(ctx context.Context, id uint) (*model.Thread, error) {
	var thread model.Thread
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		First(&thread, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &thread, nil
}

func (r *GormThreadRepository) GetByTagsAndStatusPaginated(ctx context.Context, filter ThreadFilter, offset, limit int) ([]model.Thread, int64, error) {
	var threads []model.Thread
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Thread{})

	if len(filter.TagIDs) > 0 {
		query = query.Where("id IN (?)",
			r.DB.Table("thread_tags").Select("thread_id").Where("tag_id IN ?", filter.TagIDs))
	}

	switch filter.Status {
	case StatusOpen:
		query = query.Where("is_question = ? AND solution_reply_id IS NULL", true)
	case StatusSolved:
		query = query.Where("is_question = ? AND solution_reply_id IS NOT NULL", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("updated_at DESC").
		Offset(offset).Limit(limit).
		Preload("Author").
		Preload("Tags").
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

func (r *GormThreadRepository) GetThreadRepliesPaginated(ctx context.Context, threadID uint, offset, limit int) ([]model.Reply, int64, error) {
	var replies []model.Reply
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Reply{}).Where("thread_id = ?", threadID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at ASC").
		Offset(offset).Limit(limit).
		Preload("Author").
		Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}

	return replies, total, nil
}

func (r *GormThreadRepository) Search(ctx context.Context, q string, offset, limit int) ([]model.Thread, int64, error) {
	var threads []model.Thread
	var total int64

	like := "%" + q + "%"
	query := r.DB.WithContext(ctx).Model(&model.Thread{}).
		Where("subject LIKE ? OR body LIKE ?", like, like)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Preload("Author").
		Preload("Tags").
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

// SlugExists 包含软删除的记录，因为唯一索引同样覆盖它们
func (r *GormThreadRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Unscoped().
		Model(&model.Thread{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *GormThreadRepository) Create(ctx context.Context, thread *model.Thread) error {
	return r.DB.WithContext(ctx).Create(thread).Error
}

func (r *GormThreadRepository) Save(ctx context.Context, thread *model.Thread, replaceTags bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Save(thread).Error; err != nil {
			return err
		}
		if !replaceTags {
			return nil
		}
		return tx.Model(thread).Association("Tags").Replace(thread.Tags)
	})
}

func (r *GormThreadRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 删除帖子下的所有回复
		if err := tx.Where("thread_id = ?", id).Delete(&model.Reply{}).Error; err != nil {
			return err
		}
		// 2. 删除标签关联
		if err := tx.Exec("DELETE FROM thread_tags WHERE thread_id = ?", id).Error; err != nil {
			return err
		}
		// 3. 删除帖子本身
		res := tx.Delete(&model.Thread{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
