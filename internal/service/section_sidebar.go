package service

import (
	"sort"
	"strings"
)

type ForumSection struct {
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
	Query  string   `json:"query"`
	Active bool     `json:"active"`
}

// SectionSidebarCreator 根据配置的分区生成侧边栏，当前标签集合匹配的分区高亮
type SectionSidebarCreator struct {
	Settings *ForumSettings
}

func NewSectionSidebarCreator(settings *ForumSettings) *SectionSidebarCreator {
	return &SectionSidebarCreator{Settings: settings}
}

func (c *SectionSidebarCreator) CreateSidebar(current []string) []ForumSection {
	sections := c.Settings.Get().Sections
	currentKey := tagKey(current)

	out := make([]ForumSection, 0, len(sections)+1)
	out = append(out, ForumSection{Title: "All Threads", Tags: []string{}, Active: currentKey == ""})
	for _, s := range sections {
		out = append(out, ForumSection{
			Title:  s.Title,
			Tags:   s.Tags,
			Query:  tagQueryString(s.Tags),
			Active: currentKey != "" && tagKey(s.Tags) == currentKey,
		})
	}
	return out
}

func tagKey(tags []string) string {
	norm := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			norm = append(norm, t)
		}
	}
	sort.Strings(norm)
	return strings.Join(norm, ",")
}
