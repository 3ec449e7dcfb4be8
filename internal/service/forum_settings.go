package service

import (
	"forum_backend/internal/config"
	"sync"
)

// ForumSettings 论坛配置的并发安全持有者，配置热更新时整体替换
type ForumSettings struct {
	mu  sync.RWMutex
	cfg config.ForumConfig
}

func NewForumSettings(cfg config.ForumConfig) *ForumSettings {
	return &ForumSettings{cfg: cfg}
}

func (s *ForumSettings) Get() config.ForumConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *ForumSettings) Update(cfg config.ForumConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *ForumSettings) HasVersion(v string) bool {
	for _, known := range s.Get().Versions {
		if known == v {
			return true
		}
	}
	return false
}
