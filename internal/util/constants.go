package util

// 前端路由，供客户端跳转使用
const (
	HomePath        = "/"
	ForumIndexPath  = "/forum"
	ForumCreatePath = "/forum/create-thread"
)

func ThreadPath(slug string) string {
	return ForumIndexPath + "/" + slug
}
