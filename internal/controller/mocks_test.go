package controller_test

import (
	"context"

	"forum_backend/internal/model"
	"forum_backend/internal/service"
)

type mockThreadWorkflow struct {
	createFn            func(ctx context.Context, in service.CreateThreadInput) (*model.Thread, error)
	updateFn            func(ctx context.Context, threadID uint, actor *model.Actor, patch service.ThreadPatch) (*model.Thread, error)
	markSolvedFn        func(ctx context.Context, threadID, replyID uint, actor *model.Actor) (*model.Thread, error)
	markUnsolvedFn      func(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error)
	deleteFn            func(ctx context.Context, threadID uint, actor *model.Actor) error
	requireManageableFn func(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error)
}

func (m *mockThreadWorkflow) Create(ctx context.Context, in service.CreateThreadInput) (*model.Thread, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockThreadWorkflow) Update(ctx context.Context, threadID uint, actor *model.Actor, patch service.ThreadPatch) (*model.Thread, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, threadID, actor, patch)
	}
	return nil, nil
}

func (m *mockThreadWorkflow) MarkSolved(ctx context.Context, threadID, replyID uint, actor *model.Actor) (*model.Thread, error) {
	if m.markSolvedFn != nil {
		return m.markSolvedFn(ctx, threadID, replyID, actor)
	}
	return nil, nil
}

func (m *mockThreadWorkflow) MarkUnsolved(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error) {
	if m.markUnsolvedFn != nil {
		return m.markUnsolvedFn(ctx, threadID, actor)
	}
	return nil, nil
}

func (m *mockThreadWorkflow) Delete(ctx context.Context, threadID uint, actor *model.Actor) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, threadID, actor)
	}
	return nil
}

func (m *mockThreadWorkflow) RequireManageable(ctx context.Context, threadID uint, actor *model.Actor) (*model.Thread, error) {
	if m.requireManageableFn != nil {
		return m.requireManageableFn(ctx, threadID, actor)
	}
	return nil, nil
}

type mockThreadQueries struct {
	indexFn       func(ctx context.Context, tagSlugs []string, status string, page int) (*service.ThreadIndex, error)
	showFn        func(ctx context.Context, slug string, page int) (*service.ThreadDetail, error)
	searchFn      func(ctx context.Context, query string, page int) (*service.SearchResult, error)
	formOptionsFn func(ctx context.Context) (*service.ThreadFormOptions, error)
}

func (m *mockThreadQueries) Index(ctx context.Context, tagSlugs []string, status string, page int) (*service.ThreadIndex, error) {
	if m.indexFn != nil {
		return m.indexFn(ctx, tagSlugs, status, page)
	}
	return &service.ThreadIndex{Page: 1, Limit: 50}, nil
}

func (m *mockThreadQueries) Show(ctx context.Context, slug string, page int) (*service.ThreadDetail, error) {
	if m.showFn != nil {
		return m.showFn(ctx, slug, page)
	}
	return &service.ThreadDetail{Page: 1, Limit: 20}, nil
}

func (m *mockThreadQueries) Search(ctx context.Context, query string, page int) (*service.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, page)
	}
	return &service.SearchResult{Query: query, Page: 1, Limit: 50}, nil
}

func (m *mockThreadQueries) FormOptions(ctx context.Context) (*service.ThreadFormOptions, error) {
	if m.formOptionsFn != nil {
		return m.formOptionsFn(ctx)
	}
	return &service.ThreadFormOptions{Tags: []model.Tag{}, Versions: []string{"5.2"}}, nil
}

type mockCreationGuard struct {
	recent      bool
	err         error
	markedUsers []uint
}

func (m *mockCreationGuard) HasCreatedRecently(_ context.Context, _ uint) (bool, error) {
	return m.recent, m.err
}

func (m *mockCreationGuard) MarkCreated(_ context.Context, userID uint) error {
	m.markedUsers = append(m.markedUsers, userID)
	return nil
}

type mockCaptchaVerifier struct {
	consumeFn func(ctx context.Context, token string) (bool, error)
}

func (m *mockCaptchaVerifier) Consume(ctx context.Context, token string) (bool, error) {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, token)
	}
	return true, nil
}

type mockTrajectoryVerifier struct {
	verifyFn func(ctx context.Context, trajectory []service.TrajectoryPoint, duration int) (string, error)
}

func (m *mockTrajectoryVerifier) VerifyTrajectory(ctx context.Context, trajectory []service.TrajectoryPoint, duration int) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, trajectory, duration)
	}
	return "token", nil
}

type stubSidebar struct {
	lastCurrent []string
}

func (s *stubSidebar) CreateSidebar(current []string) []service.ForumSection {
	s.lastCurrent = current
	return []service.ForumSection{{Title: "All Threads", Tags: []string{}, Active: len(current) == 0}}
}
