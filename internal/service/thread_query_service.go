package service

import (
	"context"
	"strings"
	"time"

	"forum_backend/internal/model"
	"forum_backend/internal/repository"
)

type ThreadResponse struct {
	ID              uint      `json:"id"`
	Slug            string    `json:"slug"`
	Subject         string    `json:"subject"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Author          string    `json:"author"`
	AuthorID        uint      `json:"authorId"`
	Avatar          string    `json:"avatar"`
	Tags            []string  `json:"tags"`
	Version         *string   `json:"version"`
	IsQuestion      bool      `json:"isQuestion"`
	IsSolved        bool      `json:"isSolved"`
	SolutionReplyID *uint     `json:"solutionReplyId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewThreadResponse(t *model.Thread) ThreadResponse {
	return ThreadResponse{
		ID:              t.ID,
		Slug:            t.Slug,
		Subject:         t.Subject,
		Title:           t.DisplayTitle(),
		Body:            t.Body,
		Author:          t.Author.Name,
		AuthorID:        t.AuthorID,
		Avatar:          t.Author.Avatar,
		Tags:            model.TagSlugs(t.Tags),
		Version:         t.FrameworkVersion,
		IsQuestion:      t.IsQuestion,
		IsSolved:        t.IsSolved(),
		SolutionReplyID: t.SolutionReplyID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type ReplyResponse struct {
	ID         uint      `json:"id"`
	Author     string    `json:"author"`
	AuthorID   uint      `json:"authorId"`
	Avatar     string    `json:"avatar"`
	Body       string    `json:"body"`
	IsSolution bool      `json:"isSolution"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ThreadIndex struct {
	Threads     []ThreadResponse
	Total       int64
	Page        int
	Limit       int
	Tags        []model.Tag
	Status      string
	QueryString string
}

type ThreadDetail struct {
	Thread  ThreadResponse
	Title   string
	Replies []ReplyResponse
	Total   int64
	Page    int
	Limit   int
	TagSlug []string
}

type SearchResult struct {
	Query   string
	Threads []ThreadResponse
	Total   int64
	Page    int
	Limit   int
}

type ThreadFormOptions struct {
	Tags     []model.Tag `json:"tags"`
	Versions []string    `json:"versions"`
}

// ThreadQueryService 论坛读取侧：列表、详情、搜索与表单选项
type ThreadQueryService struct {
	Threads  repository.ThreadRepository
	Tags     repository.TagRepository
	Settings *ForumSettings
}

func NewThreadQueryService(threads repository.ThreadRepository, tags repository.TagRepository, settings *ForumSettings) *ThreadQueryService {
	return &ThreadQueryService{Threads: threads, Tags: tags, Settings: settings}
}

func (s *ThreadQueryService) Index(ctx context.Context, tagSlugs []string, status string, page int) (*ThreadIndex, error) {
	limit := s.Settings.Get().ThreadsPerPage
	page = normalizePage(page)

	tags, err := s.Tags.GetAllTagsBySlug(ctx, tagSlugs)
	if err != nil {
		return nil, err
	}

	filter := repository.ThreadFilter{Status: normalizeStatus(status)}
	for _, t := range tags {
		filter.TagIDs = append(filter.TagIDs, t.ID)
	}
	// 请求了标签但一个都不存在时返回空列表，而不是全部帖子
	if len(tagSlugs) > 0 && len(tags) == 0 {
		return &ThreadIndex{Threads: []ThreadResponse{}, Page: page, Limit: limit, Status: filter.Status, QueryString: tagQueryString(tagSlugs)}, nil
	}

	threads, total, err := s.Threads.GetByTagsAndStatusPaginated(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	return &ThreadIndex{
		Threads:     toThreadResponses(threads),
		Total:       total,
		Page:        page,
		Limit:       limit,
		Tags:        tags,
		Status:      filter.Status,
		QueryString: tagQueryString(tagSlugs),
	}, nil
}

func (s *ThreadQueryService) Show(ctx context.Context, slug string, page int) (*ThreadDetail, error) {
	limit := s.Settings.Get().RepliesPerPage
	page = normalizePage(page)

	thread, err := s.Threads.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	replies, total, err := s.Threads.GetThreadRepliesPaginated(ctx, thread.ID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]ReplyResponse, len(replies))
	for i, r := range replies {
		resp[i] = ReplyResponse{
			ID:         r.ID,
			Author:     r.Author.Name,
			AuthorID:   r.AuthorID,
			Avatar:     r.Author.Avatar,
			Body:       r.Body,
			IsSolution: thread.SolutionReplyID != nil && *thread.SolutionReplyID == r.ID,
			CreatedAt:  r.CreatedAt,
		}
	}

	return &ThreadDetail{
		Thread:  NewThreadResponse(thread),
		Title:   thread.DisplayTitle(),
		Replies: resp,
		Total:   total,
		Page:    page,
		Limit:   limit,
		TagSlug: model.TagSlugs(thread.Tags),
	}, nil
}

func (s *ThreadQueryService) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	limit := s.Settings.Get().ThreadsPerPage
	page = normalizePage(page)
	query = strings.TrimSpace(query)

	result := &SearchResult{Query: query, Threads: []ThreadResponse{}, Page: page, Limit: limit}
	if query == "" {
		return result, nil
	}

	threads, total, err := s.Threads.Search(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	result.Threads = toThreadResponses(threads)
	result.Total = total
	return result, nil
}

func (s *ThreadQueryService) FormOptions(ctx context.Context) (*ThreadFormOptions, error) {
	tags, err := s.Tags.GetAllForForum(ctx)
	if err != nil {
		return nil, err
	}
	return &ThreadFormOptions{Tags: tags, Versions: s.Settings.Get().Versions}, nil
}

func toThreadResponses(threads []model.Thread) []ThreadResponse {
	out := make([]ThreadResponse, len(threads))
	for i := range threads {
		out[i] = NewThreadResponse(&threads[i])
	}
	return out
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeStatus(status string) string {
	switch status {
	case repository.StatusOpen, repository.StatusSolved:
		return status
	default:
		return repository.StatusAll
	}
}

func tagQueryString(tagSlugs []string) string {
	if len(tagSlugs) == 0 {
		return ""
	}
	return "?tags=" + strings.Join(tagSlugs, ",")
}
