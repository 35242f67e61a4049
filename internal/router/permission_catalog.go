package router

import (
	"sort"
	"strings"

	"github.com/digibuy-next/internal/authz"

	"github.com/gin-gonic/gin"
)

// adminPermission 后台可授权的接口权限
type adminPermission struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册的后台路由生成权限目录，供角色授权时选择
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermission {
	if engine == nil {
		return []adminPermission{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermission, 0, len(routes))
	for _, route := range routes {
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(route.Path, "/api/v1/admin/") || route.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		permission := method + ":" + object
		if _, ok := seen[permission]; ok {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermission{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// permissionModule 取 /admin/ 之后的第一段作为模块名
func permissionModule(object string) string {
	rest := strings.TrimPrefix(object, "/admin/")
	if rest == object || rest == "" {
		return "system"
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
