package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"forum_backend/internal/model"
	"forum_backend/internal/repository"
	"forum_backend/internal/service"
	"forum_backend/internal/util"
	"forum_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ThreadWorkflow 帖子变更，实现为 service.ThreadService
type ThreadWorkflow interface {
	Create(ctx context.Context, in service.CreateThreadInput) (*model.Thread, error)
	Update(ctx context.Context, threadID uint, actor *model.Actor, patch service.ThreadPatch) (*model.Thread, error)
	MarkSolved(ctx context.Context, threadID, replyID uint, actor *model.Actor) (*model.Thread, error)
	MarkUnsolved(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error)
	Delete(ctx context.Context, threadID uint, actor *model.Actor) error
	RequireManageable(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error)
}

type ThreadQueries interface {
	Index(ctx context.Context, tagSlugs []string, status string, page int) (*service.ThreadIndex, error)
	Show(ctx context.Context, slug string, page int) (*service.ThreadDetail, error)
	Search(ctx context.Context, query string, page int) (*service.SearchResult, error)
	FormOptions(ctx context.Context) (*service.ThreadFormOptions, error)
}

type CreationGuard interface {
	HasCreatedRecently(ctx context.Context, userID uint) (bool, error)
	MarkCreated(ctx context.Context, userID uint) error
}

type CaptchaVerifier interface {
	Consume(ctx context.Context, token string) (bool, error)
}

type SidebarCreator interface {
	CreateSidebar(current []string) []service.ForumSection
}

type CreateThreadRequest struct {
	Subject      string  `json:"subject"`
	Body         string  `json:"body"`
	Version      *string `json:"version"`
	IsQuestion   bool    `json:"isQuestion"`
	Tags         []uint  `json:"tags"`
	CaptchaToken string  `json:"captchaToken"`
}

// UpdateThreadRequest 缺省字段不修改；version 传空字符串清除，tags 传空数组清除
type UpdateThreadRequest struct {
	Subject    *string `json:"subject"`
	Body       *string `json:"body"`
	Version    *string `json:"version"`
	IsQuestion *bool   `json:"isQuestion"`
	Tags       *[]uint `json:"tags"`
}

type ForumThreadsController struct {
	Workflow ThreadWorkflow
	Queries  ThreadQueries
	Guard    CreationGuard
	Captcha  CaptchaVerifier
	Sidebar  SidebarCreator
	Settings *service.ForumSettings
}

func NewForumThreadsController(
	workflow ThreadWorkflow,
	queries ThreadQueries,
	guard CreationGuard,
	captcha CaptchaVerifier,
	sidebar SidebarCreator,
	settings *service.ForumSettings,
) *ForumThreadsController {
	return &ForumThreadsController{
		Workflow: workflow,
		Queries:  queries,
		Guard:    guard,
		Captcha:  captcha,
		Sidebar:  sidebar,
		Settings: settings,
	}
}

// @Summary 帖子列表
// @Description 按标签和状态筛选论坛帖子
// @Tags 论坛
// @Produce json
// @Param tags query string false "标签 slug，逗号分隔"
// @Param status query string false "状态" Enums(open, solved)
// @Param page query int false "页码" default(1)
// @Success 200 {object} util.Response
// @Router /api/forum/threads [get]
func (c *ForumThreadsController) Overview(ctx *gin.Context) {
	tags := util.SplitCSV(ctx.Query("tags"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	idx, err := c.Queries.Index(ctx.Request.Context(), tags, ctx.Query("status"), page)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"threads":       util.NewPageResponse(idx.Threads, idx.Total, idx.Page, idx.Limit),
		"tags":          idx.Tags,
		"status":        idx.Status,
		"queryString":   idx.QueryString,
		"forumSections": c.Sidebar.CreateSidebar(tags),
	})
}

// @Summary 帖子详情
// @Tags 论坛
// @Produce json
// @Param thread path string true "帖子 slug"
// @Param page query int false "回复页码" default(1)
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread} [get]
func (c *ForumThreadsController) Show(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	detail, err := c.Queries.Show(ctx.Request.Context(), ctx.Param("thread"), page)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"thread":        detail.Thread,
		"title":         detail.Title,
		"replies":       util.NewPageResponse(detail.Replies, detail.Total, detail.Page, detail.Limit),
		"forumSections": c.Sidebar.CreateSidebar(detail.TagSlug),
	})
}

// @Summary 搜索帖子
// @Tags 论坛
// @Produce json
// @Param query query string true "关键词"
// @Param page query int false "页码" default(1)
// @Success 200 {object} util.Response
// @Router /api/forum/search [get]
func (c *ForumThreadsController) Search(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	result, err := c.Queries.Search(ctx.Request.Context(), ctx.Query("query"), page)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"query":         result.Query,
		"threads":       util.NewPageResponse(result.Threads, result.Total, result.Page, result.Limit),
		"forumSections": c.Sidebar.CreateSidebar(nil),
	})
}

// @Summary 发帖表单
// @Tags 论坛
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/forum/threads/create [get]
func (c *ForumThreadsController) CreateForm(ctx *gin.Context) {
	actor := util.GetActorFromContext(ctx)
	if actor == nil {
		util.Unauthorized(ctx)
		return
	}

	if c.throttled(ctx, actor) {
		return
	}

	opts, err := c.Queries.FormOptions(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"tags":           opts.Tags,
		"versions":       opts.Versions,
		"requireCaptcha": c.Settings.Get().RequireCaptcha,
	})
}

// @Summary 发布帖子
// @Tags 论坛
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Captcha-Token header string false "人机验证令牌"
// @Param thread body CreateThreadRequest true "帖子内容"
// @Success 201 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/forum/threads [post]
func (c *ForumThreadsController) Store(ctx *gin.Context) {
	actor := util.GetActorFromContext(ctx)
	if actor == nil {
		util.Unauthorized(ctx)
		return
	}

	if c.throttled(ctx, actor) {
		return
	}

	var req CreateThreadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if c.Settings.Get().RequireCaptcha {
		token := req.CaptchaToken
		if token == "" {
			token = ctx.GetHeader("X-Captcha-Token")
		}
		ok, err := c.Captcha.Consume(ctx.Request.Context(), token)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		if !ok {
			c.respondError(ctx, service.ErrCaptchaInvalid)
			return
		}
	}

	thread, err := c.Workflow.Create(ctx.Request.Context(), service.CreateThreadInput{
		Subject:    req.Subject,
		Body:       req.Body,
		Author:     actor,
		Version:    req.Version,
		IsQuestion: req.IsQuestion,
		TagIDs:     req.Tags,
		IP:         ctx.ClientIP(),
	})
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	if err := c.Guard.MarkCreated(ctx.Request.Context(), actor.UserID); err != nil {
		logger.Log.Warn("Failed to record thread creation", zap.Uint("user_id", actor.UserID), zap.Error(err))
	}

	util.Navigate(ctx, http.StatusCreated, service.NewThreadResponse(thread), util.ThreadPath(thread.Slug))
}

// @Summary 编辑表单
// @Tags 论坛
// @Produce json
// @Security BearerAuth
// @Param thread path int true "帖子ID"
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread}/edit [get]
func (c *ForumThreadsController) Edit(ctx *gin.Context) {
	id, ok := threadID(ctx)
	if !ok {
		return
	}

	thread, err := c.Workflow.RequireManageable(ctx.Request.Context(), id, util.GetActorFromContext(ctx))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	opts, err := c.Queries.FormOptions(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"thread":   service.NewThreadResponse(thread),
		"tags":     opts.Tags,
		"versions": opts.Versions,
	})
}

// @Summary 更新帖子
// @Tags 论坛
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param thread path int true "帖子ID"
// @Param patch body UpdateThreadRequest true "修改内容"
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread} [put]
func (c *ForumThreadsController) Update(ctx *gin.Context) {
	id, ok := threadID(ctx)
	if !ok {
		return
	}

	var req UpdateThreadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	thread, err := c.Workflow.Update(ctx.Request.Context(), id, util.GetActorFromContext(ctx), service.ThreadPatch{
		Subject:    req.Subject,
		Body:       req.Body,
		Version:    req.Version,
		IsQuestion: req.IsQuestion,
		TagIDs:     req.Tags,
	})
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Navigate(ctx, http.StatusOK, service.NewThreadResponse(thread), util.ThreadPath(thread.Slug))
}

// @Summary 标记为已解决
// @Tags 论坛
// @Produce json
// @Security BearerAuth
// @Param thread path int true "帖子ID"
// @Param reply path int true "回复ID"
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread}/solve/{reply} [post]
func (c *ForumThreadsController) MarkSolution(ctx *gin.Context) {
	id, ok := threadID(ctx)
	if !ok {
		return
	}
	replyID := util.MustParseUint(ctx.Param("reply"))
	if replyID == 0 {
		util.BadRequest(ctx, util.ErrInvalidID.Error())
		return
	}

	thread, err := c.Workflow.MarkSolved(ctx.Request.Context(), id, replyID, util.GetActorFromContext(ctx))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Navigate(ctx, http.StatusOK, service.NewThreadResponse(thread), util.ThreadPath(thread.Slug))
}

// @Summary 取消已解决
// @Tags 论坛
// @Produce json
// @Security BearerAuth
// @Param thread path int true "帖子ID"
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread}/unsolve [post]
func (c *ForumThreadsController) UnmarkSolution(ctx *gin.Context) {
	id, ok := threadID(ctx)
	if !ok {
		return
	}

	thread, err := c.Workflow.MarkUnsolved(ctx.Request.Context(), id, util.GetActorFromContext(ctx))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Navigate(ctx, http.StatusOK, service.NewThreadResponse(thread), util.ThreadPath(thread.Slug))
}

// @Summary 删除确认
// @Tags 论坛
// @Produce json
// @Security BearerAuth
// @Param thread path int true "帖子ID"
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread}/delete [get]
func (c *ForumThreadsController) ConfirmDelete(ctx *gin.Context) {
	id, ok := threadID(ctx)
	if !ok {
		return
	}

	thread, err := c.Workflow.RequireManageable(ctx.Request.Context(), id, util.GetActorFromContext(ctx))
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"thread": service.NewThreadResponse(thread)})
}

// @Summary 删除帖子
// @Tags 论坛
// @Produce json
// @Security BearerAuth
// @Param thread path int true "帖子ID"
// @Success 200 {object} util.Response
// @Router /api/forum/threads/{thread} [delete]
func (c *ForumThreadsController) Delete(ctx *gin.Context) {
	id, ok := threadID(ctx)
	if !ok {
		return
	}

	if err := c.Workflow.Delete(ctx.Request.Context(), id, util.GetActorFromContext(ctx)); err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Navigate(ctx, http.StatusOK, nil, util.ForumIndexPath)
}

// throttled 已写入响应时返回 true
func (c *ForumThreadsController) throttled(ctx *gin.Context, actor *model.Actor) bool {
	recent, err := c.Guard.HasCreatedRecently(ctx.Request.Context(), actor.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return true
	}
	if recent {
		c.respondError(ctx, service.ErrThrottled)
		return true
	}
	return false
}

func (c *ForumThreadsController) respondError(ctx *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		util.ValidationFailed(ctx, verr.Fields)
	case errors.Is(err, repository.ErrNotFound):
		util.NotFound(ctx)
	case errors.Is(err, service.ErrNotManageable):
		util.ErrorWithRedirect(ctx, http.StatusForbidden, err.Error(), util.HomePath)
	case errors.Is(err, service.ErrAuthorRequired):
		util.Unauthorized(ctx)
	case errors.Is(err, model.ErrNotAQuestion):
		logger.Log.Warn("Solution change on non-question thread", zap.String("path", ctx.Request.URL.Path))
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrReplyNotInThread):
		util.Error(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrThrottled):
		util.ErrorWithRedirect(ctx, http.StatusTooManyRequests, err.Error(), util.ForumIndexPath)
	case errors.Is(err, service.ErrCaptchaInvalid):
		util.ErrorWithRedirect(ctx, http.StatusBadRequest, err.Error(), util.ForumCreatePath)
	default:
		util.LogInternalError(ctx, err)
	}
}

func threadID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("thread"))
	if id == 0 {
		util.BadRequest(ctx, util.ErrInvalidID.Error())
		return 0, false
	}
	return id, true
}
