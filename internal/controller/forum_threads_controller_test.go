package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"forum_backend/internal/config"
	"forum_backend/internal/controller"
	"forum_backend/internal/model"
	"forum_backend/internal/repository"
	"forum_backend/internal/service"
	"forum_backend/internal/util"
)

func solvedThread() *model.Thread {
	solution := uint(7)
	t := &model.Thread{Slug: "queue-workers-stall", Subject: "Queue workers stall", IsQuestion: true, SolutionReplyID: &solution}
	t.ID = 42
	return t
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp
}

var _ = Describe("ForumThreadsController", func() {
	var (
		router   *gin.Engine
		workflow *mockThreadWorkflow
		queries  *mockThreadQueries
		guard    *mockCreationGuard
		captcha  *mockCaptchaVerifier
		sidebar  *stubSidebar
		settings *service.ForumSettings
		actor    *util.Claims
	)

	send := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			buf.Write(raw)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		workflow = &mockThreadWorkflow{}
		queries = &mockThreadQueries{}
		guard = &mockCreationGuard{}
		captcha = &mockCaptchaVerifier{}
		sidebar = &stubSidebar{}
		settings = service.NewForumSettings(config.ForumConfig{ThreadsPerPage: 50, RepliesPerPage: 20})
		actor = &util.Claims{UserID: 1, Role: model.Member}

		h := controller.NewForumThreadsController(workflow, queries, guard, captcha, sidebar, settings)

		router.Use(func(c *gin.Context) {
			if actor != nil {
				c.Set("user", actor)
			}
			c.Next()
		})
		forum := router.Group("/api/forum")
		forum.GET("/threads", h.Overview)
		forum.GET("/search", h.Search)
		forum.GET("/threads/create", h.CreateForm)
		forum.POST("/threads", h.Store)
		forum.GET("/threads/:thread", h.Show)
		forum.GET("/threads/:thread/edit", h.Edit)
		forum.PUT("/threads/:thread", h.Update)
		forum.POST("/threads/:thread/solve/:reply", h.MarkSolution)
		forum.POST("/threads/:thread/unsolve", h.UnmarkSolution)
		forum.GET("/threads/:thread/delete", h.ConfirmDelete)
		forum.DELETE("/threads/:thread", h.Delete)
	})

	Describe("Overview", func() {
		It("passes tag and status filters and returns the sidebar", func() {
			var gotTags []string
			var gotStatus string
			queries.indexFn = func(_ context.Context, tags []string, status string, page int) (*service.ThreadIndex, error) {
				gotTags, gotStatus = tags, status
				Expect(page).To(Equal(2))
				return &service.ThreadIndex{Threads: []service.ThreadResponse{}, Total: 0, Page: 2, Limit: 50, QueryString: "?tags=eloquent,queues"}, nil
			}

			w := send(http.MethodGet, "/api/forum/threads?tags=eloquent,queues&status=solved&page=2", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotTags).To(Equal([]string{"eloquent", "queues"}))
			Expect(gotStatus).To(Equal("solved"))
			Expect(sidebar.lastCurrent).To(Equal([]string{"eloquent", "queues"}))
			data := decode(w)["data"].(map[string]any)
			Expect(data["queryString"]).To(Equal("?tags=eloquent,queues"))
			Expect(data).To(HaveKey("forumSections"))
		})
	})

	Describe("Show", func() {
		It("returns 404 for an unknown slug", func() {
			queries.showFn = func(context.Context, string, int) (*service.ThreadDetail, error) {
				return nil, repository.ErrNotFound
			}

			w := send(http.MethodGet, "/api/forum/threads/missing", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Store", func() {
		payload := map[string]any{
			"subject":    "How do I test queued jobs?",
			"body":       "Details",
			"isQuestion": true,
			"tags":       []uint{1, 3},
		}

		It("creates the thread and redirects to it", func() {
			var got service.CreateThreadInput
			workflow.createFn = func(_ context.Context, in service.CreateThreadInput) (*model.Thread, error) {
				got = in
				t := &model.Thread{Slug: "how-do-i-test-queued-jobs", Subject: in.Subject, AuthorID: in.Author.UserID}
				t.ID = 101
				return t, nil
			}

			w := send(http.MethodPost, "/api/forum/threads", payload)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(got.Author.UserID).To(Equal(uint(1)))
			Expect(got.TagIDs).To(Equal([]uint{1, 3}))
			Expect(got.IsQuestion).To(BeTrue())
			Expect(decode(w)["redirect"]).To(Equal("/forum/how-do-i-test-queued-jobs"))
			Expect(guard.markedUsers).To(Equal([]uint{1}))
		})

		It("returns field errors on validation failure", func() {
			workflow.createFn = func(context.Context, service.CreateThreadInput) (*model.Thread, error) {
				return nil, &service.ValidationError{Fields: map[string][]string{"subject": {"The subject field is required."}}}
			}

			w := send(http.MethodPost, "/api/forum/threads", payload)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
			errs := decode(w)["errors"].(map[string]any)
			Expect(errs).To(HaveKey("subject"))
			Expect(guard.markedUsers).To(BeEmpty())
		})

		It("requires authentication", func() {
			actor = nil
			w := send(http.MethodPost, "/api/forum/threads", payload)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects authors who posted recently", func() {
			guard.recent = true
			called := false
			workflow.createFn = func(context.Context, service.CreateThreadInput) (*model.Thread, error) {
				called = true
				return nil, nil
			}

			w := send(http.MethodPost, "/api/forum/threads", payload)

			Expect(w.Code).To(Equal(http.StatusTooManyRequests))
			Expect(decode(w)["redirect"]).To(Equal("/forum"))
			Expect(called).To(BeFalse())
		})

		It("consumes the captcha token when required", func() {
			cfg := settings.Get()
			cfg.RequireCaptcha = true
			settings.Update(cfg)

			var consumed string
			captcha.consumeFn = func(_ context.Context, token string) (bool, error) {
				consumed = token
				return false, nil
			}

			body := map[string]any{"subject": "How do I test queued jobs?", "body": "Details", "captchaToken": "abc"}
			w := send(http.MethodPost, "/api/forum/threads", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(consumed).To(Equal("abc"))
		})
	})

	Describe("Update", func() {
		It("passes only the present fields", func() {
			var got service.ThreadPatch
			workflow.updateFn = func(_ context.Context, id uint, _ *model.Actor, patch service.ThreadPatch) (*model.Thread, error) {
				Expect(id).To(Equal(uint(42)))
				got = patch
				return solvedThread(), nil
			}

			w := send(http.MethodPut, "/api/forum/threads/42", map[string]any{"body": "New body", "tags": []uint{}})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got.Subject).To(BeNil())
			Expect(*got.Body).To(Equal("New body"))
			Expect(got.TagIDs).NotTo(BeNil())
			Expect(*got.TagIDs).To(BeEmpty())
			Expect(decode(w)["redirect"]).To(Equal("/forum/queue-workers-stall"))
		})

		It("rejects a non numeric id", func() {
			w := send(http.MethodPut, "/api/forum/threads/abc", map[string]any{})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 403 with a home redirect when not manageable", func() {
			workflow.updateFn = func(context.Context, uint, *model.Actor, service.ThreadPatch) (*model.Thread, error) {
				return nil, service.ErrNotManageable
			}

			w := send(http.MethodPut, "/api/forum/threads/42", map[string]any{"body": "x"})

			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(decode(w)["redirect"]).To(Equal("/"))
		})
	})

	Describe("solutions", func() {
		It("marks a reply as the solution", func() {
			workflow.markSolvedFn = func(_ context.Context, threadID, replyID uint, a *model.Actor) (*model.Thread, error) {
				Expect(threadID).To(Equal(uint(42)))
				Expect(replyID).To(Equal(uint(7)))
				Expect(a.UserID).To(Equal(uint(1)))
				return solvedThread(), nil
			}

			w := send(http.MethodPost, "/api/forum/threads/42/solve/7", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			data := decode(w)["data"].(map[string]any)
			Expect(data["isSolved"]).To(BeTrue())
			Expect(data["title"]).To(Equal("[SOLVED] Queue workers stall"))
		})

		It("maps a mismatched reply to 422", func() {
			workflow.markSolvedFn = func(context.Context, uint, uint, *model.Actor) (*model.Thread, error) {
				return nil, model.ErrReplyNotInThread
			}

			w := send(http.MethodPost, "/api/forum/threads/42/solve/99", nil)
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("maps a non-question thread to 409", func() {
			workflow.markUnsolvedFn = func(context.Context, uint, *model.Actor) (*model.Thread, error) {
				return nil, model.ErrNotAQuestion
			}

			w := send(http.MethodPost, "/api/forum/threads/42/unsolve", nil)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("Delete", func() {
		It("redirects to the forum index", func() {
			var deleted uint
			workflow.deleteFn = func(_ context.Context, id uint, _ *model.Actor) error {
				deleted = id
				return nil
			}

			w := send(http.MethodDelete, "/api/forum/threads/42", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(deleted).To(Equal(uint(42)))
			Expect(decode(w)["redirect"]).To(Equal("/forum"))
		})

		It("hides internal errors", func() {
			workflow.deleteFn = func(context.Context, uint, *model.Actor) error {
				return errors.New("db down")
			}

			w := send(http.MethodDelete, "/api/forum/threads/42", nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(w)["message"]).To(Equal("Internal server error"))
		})

		It("shows the confirmation only to managers", func() {
			workflow.requireManageableFn = func(context.Context, uint, *model.Actor) (*model.Thread, error) {
				return nil, service.ErrNotManageable
			}

			w := send(http.MethodGet, "/api/forum/threads/42/delete", nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("CreateForm", func() {
		It("lists tags and versions", func() {
			w := send(http.MethodGet, "/api/forum/threads/create", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			data := decode(w)["data"].(map[string]any)
			Expect(data["versions"]).To(ConsistOf("5.2"))
			Expect(data["requireCaptcha"]).To(BeFalse())
		})
	})
})

var _ = Describe("CaptchaController", func() {
	var (
		router   *gin.Engine
		verifier *mockTrajectoryVerifier
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		verifier = &mockTrajectoryVerifier{}
		router.POST("/captcha/verify", controller.NewCaptchaController(verifier).Verify)
	})

	verify := func() *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]any{
			"trajectory": []map[string]int{{"x": 0, "y": 0, "t": 0}},
			"duration":   800,
		})
		req := httptest.NewRequest(http.MethodPost, "/captcha/verify", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns the issued token", func() {
		w := verify()
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["data"]).To(HaveKeyWithValue("captchaToken", "token"))
	})

	It("returns 400 for a failed challenge", func() {
		verifier.verifyFn = func(context.Context, []service.TrajectoryPoint, int) (string, error) {
			return "", service.ErrCaptchaInvalid
		}
		Expect(verify().Code).To(Equal(http.StatusBadRequest))
	})
})
