package model

type Reply struct {
	BaseModel
	ThreadID uint   `gorm:"index;not null" json:"threadId"`
	AuthorID uint   `gorm:"index" json:"authorId"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	Body     string `gorm:"type:text;not null" json:"body"`
}

func (Reply) TableName() string {
	return "forum_replies"
}
