package service

import (
	"context"
	"sort"
	"strings"

	"forum_backend/internal/config"
	"forum_backend/internal/model"
	"forum_backend/internal/repository"
)

type fakeThreadRepo struct {
	threads  map[uint]*model.Thread
	replies  map[uint]*model.Reply
	nextID   uint
	saves    int
	tagSaves int
	deleted  []uint
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		threads: map[uint]*model.Thread{},
		replies: map[uint]*model.Reply{},
		nextID:  100,
	}
}

func (r *fakeThreadRepo) put(t *model.Thread) *model.Thread {
	r.threads[t.ID] = t
	return t
}

func (r *fakeThreadRepo) putReply(id, threadID uint) {
	reply := &model.Reply{ThreadID: threadID, Body: "reply"}
	reply.ID = id
	r.replies[id] = reply
}

func (r *fakeThreadRepo) GetBySlug(_ context.Context, slug string) (*model.Thread, error) {
	for _, t := range r.threads {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeThreadRepo) RequireByID(_ context.Context, id uint) (*model.Thread, error) {
	t, ok := r.threads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeThreadRepo) GetByTagsAndStatusPaginated(_ context.Context, filter repository.ThreadFilter, offset, limit int) ([]model.Thread, int64, error) {
	var out []model.Thread
	for _, t := range r.sorted() {
		if filter.Status == repository.StatusSolved && !t.IsSolved() {
			continue
		}
		if filter.Status == repository.StatusOpen && t.IsSolved() {
			continue
		}
		if len(filter.TagIDs) > 0 && !hasAnyTag(t, filter.TagIDs) {
			continue
		}
		out = append(out, t)
	}
	return paginate(out, offset, limit), int64(len(out)), nil
}

func (r *fakeThreadRepo) GetThreadRepliesPaginated(_ context.Context, threadID uint, offset, limit int) ([]model.Reply, int64, error) {
	var out []model.Reply
	for _, reply := range r.replies {
		if reply.ThreadID == threadID {
			out = append(out, *reply)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return []model.Reply{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeThreadRepo) Search(_ context.Context, query string, offset, limit int) ([]model.Thread, int64, error) {
	var out []model.Thread
	for _, t := range r.sorted() {
		if strings.Contains(t.Subject, query) || strings.Contains(t.Body, query) {
			out = append(out, t)
		}
	}
	return paginate(out, offset, limit), int64(len(out)), nil
}

func (r *fakeThreadRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, t := range r.threads {
		if t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeThreadRepo) Create(_ context.Context, thread *model.Thread) error {
	r.nextID++
	thread.ID = r.nextID
	cp := *thread
	r.threads[thread.ID] = &cp
	return nil
}

func (r *fakeThreadRepo) Save(_ context.Context, thread *model.Thread, replaceTags bool) error {
	if _, ok := r.threads[thread.ID]; !ok {
		return repository.ErrNotFound
	}
	r.saves++
	if replaceTags {
		r.tagSaves++
	}
	cp := *thread
	r.threads[thread.ID] = &cp
	return nil
}

func (r *fakeThreadRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.threads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.threads, id)
	for rid, reply := range r.replies {
		if reply.ThreadID == id {
			delete(r.replies, rid)
		}
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeThreadRepo) sorted() []model.Thread {
	out := make([]model.Thread, 0, len(r.threads))
	for _, t := range r.threads {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type fakeReplyRepo struct {
	threads *fakeThreadRepo
}

func (r fakeReplyRepo) RequireByID(_ context.Context, id uint) (*model.Reply, error) {
	reply, ok := r.threads.replies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *reply
	return &cp, nil
}

type fakeTagRepo struct {
	tags []model.Tag
}

func newFakeTagRepo() *fakeTagRepo {
	mk := func(id uint, slug string, forum bool) model.Tag {
		t := model.Tag{Slug: slug, Name: slug, Forum: forum}
		t.ID = id
		return t
	}
	return &fakeTagRepo{tags: []model.Tag{
		mk(1, "eloquent", true),
		mk(2, "routing", true),
		mk(3, "testing", true),
		mk(4, "queues", true),
		mk(9, "internal", false),
	}}
}

func (r *fakeTagRepo) GetAllForForum(context.Context) ([]model.Tag, error) {
	var out []model.Tag
	for _, t := range r.tags {
		if t.Forum {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) GetAllTagsBySlug(_ context.Context, slugs []string) ([]model.Tag, error) {
	var out []model.Tag
	for _, t := range r.tags {
		for _, s := range slugs {
			if t.Slug == s {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *fakeTagRepo) GetTagsByIDs(_ context.Context, ids []uint) ([]model.Tag, error) {
	var out []model.Tag
	for _, t := range r.tags {
		for _, id := range ids {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func hasAnyTag(t model.Thread, ids []uint) bool {
	for _, tag := range t.Tags {
		for _, id := range ids {
			if tag.ID == id {
				return true
			}
		}
	}
	return false
}

func paginate(in []model.Thread, offset, limit int) []model.Thread {
	if offset >= len(in) {
		return []model.Thread{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}

func testForumConfig() config.ForumConfig {
	return config.ForumConfig{
		ThreadsPerPage:  2,
		RepliesPerPage:  2,
		Versions:        []string{"5.1", "5.2"},
		ThrottleMinutes: 5,
		Sections: []config.SectionConfig{
			{Title: "Database", Tags: []string{"eloquent", "queues"}},
			{Title: "Testing", Tags: []string{"testing"}},
		},
	}
}
