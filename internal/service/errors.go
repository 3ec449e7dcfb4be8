package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotManageable  = errors.New("thread is not manageable by actor")
	ErrAuthorRequired = errors.New("thread author is required")
	ErrThrottled      = errors.New("a thread was created recently, try again later")
	ErrCaptchaInvalid = errors.New("captcha verification failed")
)

// ValidationError 字段级校验错误，key 为请求中的字段名
type ValidationError struct {
	Fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
