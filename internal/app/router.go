package app

import (
	"forum_backend/internal/config"
	"forum_backend/internal/middleware"
	"forum_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	forum := router.Group("/api/forum")
	forum.Use(middleware.TryAuthMiddleware(cfg.JWT.Secret))
	{
		// 浏览类：游客可访问
		forum.GET("/threads", c.threads.Overview)
		forum.GET("/threads/:thread", c.threads.Show)
		forum.GET("/search", c.threads.Search)
		forum.POST("/captcha/verify", c.captcha.Verify)
	}

	// 变更类：强制认证，能否管理帖子由 ThreadService 判断
	authorized := router.Group("/api/forum")
	authorized.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		authorized.GET("/threads/create", c.threads.CreateForm)
		authorized.POST("/threads", c.threads.Store)
		authorized.GET("/threads/:thread/edit", c.threads.Edit)
		authorized.PUT("/threads/:thread", c.threads.Update)
		authorized.POST("/threads/:thread/solve/:reply", c.threads.MarkSolution)
		authorized.POST("/threads/:thread/unsolve", c.threads.UnmarkSolution)
		authorized.GET("/threads/:thread/delete", c.threads.ConfirmDelete)
		authorized.DELETE("/threads/:thread", c.threads.Delete)
	}
}
