package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const throttleKeyPrefix = "forum:thread_throttle:"

// ThreadThrottle 限制同一用户的发帖频率，仅在生产模式启用
type ThreadThrottle struct {
	Redis    *redis.Client
	Settings *ForumSettings
	Enabled  bool
}

func NewThreadThrottle(rdb *redis.Client, settings *ForumSettings, enabled bool) *ThreadThrottle {
	return &ThreadThrottle{Redis: rdb, Settings: settings, Enabled: enabled}
}

func (t *ThreadThrottle) HasCreatedRecently(ctx context.Context, userID uint) (bool, error) {
	if !t.active() {
		return false, nil
	}

	err := t.Redis.Get(ctx, throttleKey(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read thread throttle: %w", err)
	}
	return true, nil
}

func (t *ThreadThrottle) MarkCreated(ctx context.Context, userID uint) error {
	if !t.active() {
		return nil
	}
	window := t.Settings.Get().ThrottleWindow()
	if err := t.Redis.Set(ctx, throttleKey(userID), time.Now().Unix(), window).Err(); err != nil {
		return fmt.Errorf("write thread throttle: %w", err)
	}
	return nil
}

func (t *ThreadThrottle) active() bool {
	return t.Enabled && t.Redis != nil && t.Settings.Get().ThrottleWindow() > 0
}

func throttleKey(userID uint) string {
	return throttleKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}
