package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	captchaKeyPrefix = "forum:captcha:"
	captchaTokenTTL  = 2 * time.Minute
	captchaVerified  = "verified"
)

// TrajectoryPoint 滑块轨迹采样点，T 为相对毫秒
type TrajectoryPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
	T int `json:"t"`
}

// CaptchaService 滑块人机验证，通过后颁发一次性令牌，发帖时消费
type CaptchaService struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewCaptchaService(rdb *redis.Client) *CaptchaService {
	return &CaptchaService{Redis: rdb, TTL: captchaTokenTTL}
}

// VerifyTrajectory 校验滑动轨迹，成功返回一次性令牌
func (s *CaptchaService) VerifyTrajectory(ctx context.Context, trajectory []TrajectoryPoint, duration int) (string, error) {
	if len(trajectory) < 10 {
		return "", fmt.Errorf("%w: trajectory too short", ErrCaptchaInvalid)
	}
	if !analyzeTrajectory(trajectory, duration) {
		return "", fmt.Errorf("%w: human verification failed", ErrCaptchaInvalid)
	}

	token := uuid.New().String()
	if err := s.Redis.Set(ctx, captchaKeyPrefix+token, captchaVerified, s.TTL).Err(); err != nil {
		return "", fmt.Errorf("store captcha token: %w", err)
	}
	return token, nil
}

// Consume 校验并删除令牌，同一令牌只能使用一次
func (s *CaptchaService) Consume(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	val, err := s.Redis.GetDel(ctx, captchaKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume captcha token: %w", err)
	}
	return val == captchaVerified, nil
}

func analyzeTrajectory(trajectory []TrajectoryPoint, duration int) bool {
	if duration < 200 || duration > 10000 {
		return false
	}

	var distance float64
	for i := 1; i < len(trajectory); i++ {
		if trajectory[i].T < trajectory[i-1].T {
			return false
		}
		dx := float64(trajectory[i].X - trajectory[i-1].X)
		dy := float64(trajectory[i].Y - trajectory[i-1].Y)
		distance += math.Sqrt(dx*dx + dy*dy)
	}

	// 50 为经验值
	return distance >= 50
}
