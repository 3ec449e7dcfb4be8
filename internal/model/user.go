package model

type UserRole string

const (
	Member    UserRole = "member"
	Moderator UserRole = "moderator"
	Admin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name   string   `gorm:"size:100;not null" json:"name"`
	Email  string   `gorm:"size:100;unique;not null" json:"email"`
	Role   UserRole `gorm:"type:enum('member','moderator','admin');default:'member'" json:"role"`
	Avatar string   `gorm:"size:255" json:"avatar"`
}

func (User) TableName() string {
	return "users"
}

// Actor 当前请求的操作者，由 JWT claims 构造
type Actor struct {
	UserID uint
	Role   UserRole
}

// IsModerator 版主和管理员拥有管理任意帖子的权限
func (a Actor) IsModerator() bool {
	return a.Role == Moderator || a.Role == Admin
}
