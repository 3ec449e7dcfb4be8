package repository

import (
	"context"
	"errors"

	"forum_backend/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Thread list status filters
const (
	StatusAll    = ""
	StatusOpen   = "open"
	StatusSolved = "solved"
)

// ThreadFilter narrows the forum index
type ThreadFilter struct {
	TagIDs []uint
	Status string
}

// ThreadRepository defines the contract for thread data access
type ThreadRepository interface {
	GetBySlug(ctx context.Context, slug string) (*model.Thread, error)
	RequireByID(ctx context.Context, id uint) (*model.Thread, error)
	GetByTagsAndStatusPaginated(ctx context.Context, filter ThreadFilter, offset, limit int) ([]model.Thread, int64, error)
	GetThreadRepliesPaginated(ctx context.Context, threadID uint, offset, limit int) ([]model.Reply, int64, error)
	Search(ctx context.Context, query string, offset, limit int) ([]model.Thread, int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, thread *model.Thread) error
	Save(ctx context.Context, thread *model.Thread, replaceTags bool) error
	Delete(ctx context.Context, id uint) error
}

// ReplyRepository only resolves solution targets; reply authoring lives elsewhere
type ReplyRepository interface {
	RequireByID(ctx context.Context, id uint) (*model.Reply, error)
}

// TagRepository defines the contract for tag lookups
type TagRepository interface {
	GetAllForForum(ctx context.Context) ([]model.Tag, error)
	GetAllTagsBySlug(ctx context.Context, slugs []string) ([]model.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []uint) ([]model.Tag, error)
}
