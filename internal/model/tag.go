package model

// Tag 论坛标签，Forum 为 true 时才会出现在发帖表单中
type Tag struct {
	BaseModel
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Forum       bool   `gorm:"default:true" json:"forum"`
}

func (Tag) TableName() string {
	return "tags"
}

func TagSlugs(tags []Tag) []string {
	slugs := make([]string, 0, len(tags))
	for _, t := range tags {
		slugs = append(slugs, t.Slug)
	}
	return slugs
}
