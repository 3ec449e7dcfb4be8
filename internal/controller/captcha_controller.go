package controller

import (
	"context"
	"errors"

	"forum_backend/internal/service"
	"forum_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TrajectoryVerifier interface {
	VerifyTrajectory(ctx context.Context, trajectory []service.TrajectoryPoint, duration int) (string, error)
}

type CaptchaController struct {
	Verifier TrajectoryVerifier
}

func NewCaptchaController(verifier TrajectoryVerifier) *CaptchaController {
	return &CaptchaController{Verifier: verifier}
}

type VerifyCaptchaRequest struct {
	Trajectory []service.TrajectoryPoint `json:"trajectory" binding:"required"`
	Duration   int                       `json:"duration" binding:"required"`
}

// @Summary 滑块验证
// @Description 校验滑动轨迹，通过后返回一次性发帖令牌
// @Tags 论坛
// @Accept json
// @Produce json
// @Param body body VerifyCaptchaRequest true "轨迹"
// @Success 200 {object} util.Response
// @Router /api/forum/captcha/verify [post]
func (c *CaptchaController) Verify(ctx *gin.Context) {
	var req VerifyCaptchaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.Verifier.VerifyTrajectory(ctx.Request.Context(), req.Trajectory, req.Duration)
	if err != nil {
		if errors.Is(err, service.ErrCaptchaInvalid) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"captchaToken": token})
}
