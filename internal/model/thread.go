package model

import (
	"errors"
)

var (
	ErrNotAQuestion     = errors.New("thread is not a question")
	ErrReplyNotInThread = errors.New("reply does not belong to thread")
)

// SolutionState 问题帖的解决状态，非问题帖没有解决状态
type SolutionState string

const (
	SolutionNotApplicable SolutionState = "not_applicable"
	SolutionUnsolved      SolutionState = "unsolved"
	SolutionSolved        SolutionState = "solved"
)

var solutionTransitions = map[SolutionState]map[SolutionState]bool{
	SolutionUnsolved: {
		SolutionSolved: true,
	},
	SolutionSolved: {
		SolutionUnsolved: true,
		SolutionSolved:   true,
	},
}

// CanTransitionSolution 同状态视为合法（幂等）
func CanTransitionSolution(from, to SolutionState) bool {
	if from == SolutionNotApplicable || to == SolutionNotApplicable {
		return false
	}
	if from == to {
		return true
	}
	return solutionTransitions[from][to]
}

type Thread struct {
	BaseModel
	Slug             string  `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Subject          string  `gorm:"size:255;not null" json:"subject"`
	Body             string  `gorm:"type:text;not null" json:"body"`
	AuthorID         uint    `gorm:"index" json:"authorId"`
	Author           User    `gorm:"foreignKey:AuthorID" json:"author"`
	Tags             []Tag   `gorm:"many2many:thread_tags;" json:"tags"`
	FrameworkVersion *string `gorm:"size:20" json:"frameworkVersion"`
	IsQuestion       bool    `gorm:"default:false" json:"isQuestion"`
	SolutionReplyID  *uint   `gorm:"index" json:"solutionReplyId"`
	IP               string  `gorm:"size:45" json:"-"`
}

func (Thread) TableName() string {
	return "threads"
}

func (t *Thread) IsSolved() bool {
	return t.IsQuestion && t.SolutionReplyID != nil
}

func (t *Thread) SolutionState() SolutionState {
	switch {
	case !t.IsQuestion:
		return SolutionNotApplicable
	case t.SolutionReplyID != nil:
		return SolutionSolved
	default:
		return SolutionUnsolved
	}
}

// IsManageableBy 作者本人、版主或管理员可以管理帖子
func (t *Thread) IsManageableBy(actor *Actor) bool {
	if actor == nil || actor.UserID == 0 {
		return false
	}
	return t.AuthorID == actor.UserID || actor.IsModerator()
}

// MarkSolved 将回复设为问题的解决方案
func (t *Thread) MarkSolved(reply *Reply) error {
	if !CanTransitionSolution(t.SolutionState(), SolutionSolved) {
		return ErrNotAQuestion
	}
	if reply == nil || reply.ThreadID != t.ID {
		return ErrReplyNotInThread
	}
	id := reply.ID
	t.SolutionReplyID = &id
	return nil
}

func (t *Thread) MarkUnsolved() error {
	if !CanTransitionSolution(t.SolutionState(), SolutionUnsolved) {
		return ErrNotAQuestion
	}
	t.SolutionReplyID = nil
	return nil
}

// SetQuestion 取消问题标记时同时清除解决方案
func (t *Thread) SetQuestion(isQuestion bool) {
	t.IsQuestion = isQuestion
	if !isQuestion {
		t.SolutionReplyID = nil
	}
}

func (t *Thread) DisplayTitle() string {
	if t.IsSolved() {
		return "[SOLVED] " + t.Subject
	}
	return t.Subject
}
