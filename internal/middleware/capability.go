package middleware

import "strings"

// 角色名称。
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
)

// 能力名称，路由按能力而非角色授权。
const (
	CapEditPosts     = "edit_posts"
	CapEditProducts  = "edit_products"
	CapUploadFiles   = "upload_files"
	CapManageOptions = "manage_options"
)

var roleCapabilities = map[string][]string{
	RoleAdmin:  {CapEditPosts, CapEditProducts, CapUploadFiles, CapManageOptions},
	RoleEditor: {CapEditPosts, CapEditProducts, CapUploadFiles},
	RoleAuthor: {CapEditPosts, CapUploadFiles},
}

// HasCapability 判断角色是否拥有能力，未知角色没有任何能力。
func HasCapability(role, capability string) bool {
	for _, c := range roleCapabilities[strings.ToLower(strings.TrimSpace(role))] {
		if c == capability {
			return true
		}
	}
	return false
}

// KnownRole 判断角色是否受支持。
func KnownRole(role string) bool {
	_, ok := roleCapabilities[strings.ToLower(strings.TrimSpace(role))]
	return ok
}
