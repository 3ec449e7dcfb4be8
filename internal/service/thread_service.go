package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"forum_backend/internal/model"
	"forum_backend/internal/repository"
	"forum_backend/internal/util"
	"forum_backend/pkg/logger"
	"forum_backend/pkg/monitoring"
	"forum_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxSlugAttempts = 1000

// CreateThreadInput 由控制器在请求边界构造一次
type CreateThreadInput struct {
	Subject    string
	Body       string
	Author     *model.Actor
	Version    *string
	IsQuestion bool
	TagIDs     []uint
	IP         string
}

// ThreadPatch 部分更新：nil 表示不修改。Version 指向空字符串表示清除版本号，
// TagIDs 指向空切片表示清除所有标签。
type ThreadPatch struct {
	Subject    *string
	Body       *string
	Version    *string
	IsQuestion *bool
	TagIDs     *[]uint
}

// ThreadService 执行单次帖子变更（创建、更新、删除、标记解决），
// 每次调用只产生一个结果：成功返回帖子，失败返回错误。
type ThreadService struct {
	Threads repository.ThreadRepository
	Replies repository.ReplyRepository
	Tags    repository.TagRepository
	Form    *ThreadForm
}

func NewThreadService(
	threads repository.ThreadRepository,
	replies repository.ReplyRepository,
	tags repository.TagRepository,
	form *ThreadForm,
) *ThreadService {
	return &ThreadService{
		Threads: threads,
		Replies: replies,
		Tags:    tags,
		Form:    form,
	}
}

func (s *ThreadService) Create(ctx context.Context, in CreateThreadInput) (thread *model.Thread, err error) {
	ctx, span := tracing.StartSpan(ctx, "ThreadService.Create")
	defer func() {
		observe("create", err)
		tracing.EndSpan(span, err)
	}()

	if in.Author == nil || in.Author.UserID == 0 {
		return nil, ErrAuthorRequired
	}

	verr := s.Form.ValidateCreate(in)
	tags, err := s.resolveTags(ctx, in.TagIDs, verr)
	if err != nil {
		return nil, err
	}
	if !verr.Empty() {
		return nil, verr
	}

	subject := strings.TrimSpace(in.Subject)
	slug, err := s.uniqueSlug(ctx, subject)
	if err != nil {
		return nil, err
	}

	thread = &model.Thread{
		Slug:             slug,
		Subject:          subject,
		Body:             strings.TrimSpace(in.Body),
		AuthorID:         in.Author.UserID,
		Tags:             tags,
		FrameworkVersion: normalizeVersion(in.Version),
		IsQuestion:       in.IsQuestion,
		IP:               in.IP,
	}

	if err := s.Threads.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	logger.Log.Info("Thread created",
		zap.Uint("thread_id", thread.ID),
		zap.String("slug", thread.Slug),
		zap.Uint("author_id", thread.AuthorID),
	)
	return thread, nil
}

func (s *ThreadService) Update(ctx context.Context, threadID uint, actor *model.Actor, patch ThreadPatch) (thread *model.Thread, err error) {
	ctx, span := tracing.StartSpan(ctx, "ThreadService.Update", attribute.Int64("thread.id", int64(threadID)))
	defer func() {
		observe("update", err)
		tracing.EndSpan(span, err)
	}()

	thread, err = s.requireManageable(ctx, threadID, actor)
	if err != nil {
		return nil, err
	}

	verr := s.Form.ValidatePatch(patch)
	var tags []model.Tag
	if patch.TagIDs != nil {
		tags, err = s.resolveTags(ctx, *patch.TagIDs, verr)
		if err != nil {
			return nil, err
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	if patch.Subject != nil {
		thread.Subject = strings.TrimSpace(*patch.Subject)
	}
	if patch.Body != nil {
		thread.Body = strings.TrimSpace(*patch.Body)
	}
	if patch.Version != nil {
		thread.FrameworkVersion = normalizeVersion(patch.Version)
	}
	if patch.IsQuestion != nil {
		thread.SetQuestion(*patch.IsQuestion)
	}
	if patch.TagIDs != nil {
		thread.Tags = tags
	}

	if err := s.Threads.Save(ctx, thread, patch.TagIDs != nil); err != nil {
		return nil, fmt.Errorf("update thread %d: %w", thread.ID, err)
	}

	logger.Log.Info("Thread updated", zap.Uint("thread_id", thread.ID), zap.Uint("actor_id", actor.UserID))
	return thread, nil
}

// MarkSolved 问题帖的解决方案更新，不经过标题和正文校验
func (s *ThreadService) MarkSolved(ctx context.Context, threadID, replyID uint, actor *model.Actor) (thread *model.Thread, err error) {
	ctx, span := tracing.StartSpan(ctx, "ThreadService.MarkSolved",
		attribute.Int64("thread.id", int64(threadID)),
		attribute.Int64("reply.id", int64(replyID)),
	)
	defer func() {
		observe("solve", err)
		tracing.EndSpan(span, err)
	}()

	thread, err = s.requireManageable(ctx, threadID, actor)
	if err != nil {
		return nil, err
	}
	if !thread.IsQuestion {
		return nil, model.ErrNotAQuestion
	}

	reply, err := s.Replies.RequireByID(ctx, replyID)
	if err != nil {
		return nil, err
	}

	if err := thread.MarkSolved(reply); err != nil {
		if errors.Is(err, model.ErrReplyNotInThread) {
			logger.Log.Warn("Solution reply belongs to another thread",
				zap.Uint("thread_id", thread.ID),
				zap.Uint("reply_id", reply.ID),
				zap.Uint("reply_thread_id", reply.ThreadID),
			)
		}
		return nil, err
	}

	if err := s.Threads.Save(ctx, thread, false); err != nil {
		return nil, fmt.Errorf("mark thread %d solved: %w", thread.ID, err)
	}
	return thread, nil
}

func (s *ThreadService) MarkUnsolved(ctx context.Context, threadID uint, actor *model.Actor) (thread *model.Thread, err error) {
	ctx, span := tracing.StartSpan(ctx, "ThreadService.MarkUnsolved", attribute.Int64("thread.id", int64(threadID)))
	defer func() {
		observe("unsolve", err)
		tracing.EndSpan(span, err)
	}()

	thread, err = s.requireManageable(ctx, threadID, actor)
	if err != nil {
		return nil, err
	}

	wasSolved := thread.IsSolved()
	if err := thread.MarkUnsolved(); err != nil {
		return nil, err
	}
	if !wasSolved {
		return thread, nil
	}

	if err := s.Threads.Save(ctx, thread, false); err != nil {
		return nil, fmt.Errorf("mark thread %d unsolved: %w", thread.ID, err)
	}
	return thread, nil
}

// Delete 删除帖子及其全部回复
func (s *ThreadService) Delete(ctx context.Context, threadID uint, actor *model.Actor) (err error) {
	ctx, span := tracing.StartSpan(ctx, "ThreadService.Delete", attribute.Int64("thread.id", int64(threadID)))
	defer func() {
		observe("delete", err)
		tracing.EndSpan(span, err)
	}()

	thread, err := s.requireManageable(ctx, threadID, actor)
	if err != nil {
		return err
	}

	if err := s.Threads.Delete(ctx, thread.ID); err != nil {
		return fmt.Errorf("delete thread %d: %w", thread.ID, err)
	}

	logger.Log.Info("Thread deleted", zap.Uint("thread_id", thread.ID), zap.Uint("actor_id", actor.UserID))
	return nil
}

// RequireManageable 编辑、删除确认页使用
func (s *ThreadService) RequireManageable(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error) {
	return s.requireManageable(ctx, threadID, actor)
}

func (s *ThreadService) requireManageable(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error) {
	thread, err := s.Threads.RequireByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.IsManageableBy(actor) {
		return nil, ErrNotManageable
	}
	return thread, nil
}

// resolveTags 未知或非论坛标签记为字段错误
func (s *ThreadService) resolveTags(ctx context.Context, ids []uint, verr *ValidationError) ([]model.Tag, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.Tag{}, nil
	}

	tags, err := s.Tags.GetTagsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}

	valid := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		if t.Forum {
			valid = append(valid, t)
		}
	}
	if len(valid) != len(ids) {
		verr.Add("tags", "The selected tags are invalid.")
	}
	return valid, nil
}

func (s *ThreadService) uniqueSlug(ctx context.Context, subject string) (string, error) {
	base, err := util.Slugify(subject, "thread")
	if err != nil {
		return "", err
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := util.SlugWithSuffix(base, n)
		exists, err := s.Threads.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

func normalizeVersion(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func observe(operation string, err error) {
	monitoring.ObserveThreadMutation(operation, outcome(err))
}

func outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrNotManageable):
		return "denied"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrNotAQuestion), errors.Is(err, model.ErrReplyNotInThread):
		return "rejected"
	default:
		return "error"
	}
}
