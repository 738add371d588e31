package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/response"
)

// RBAC enforces role-based access control for routes. SUPERADMIN passes
// wherever ADMIN is allowed.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed)+1)
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
		if role == models.RoleAdmin {
			allowedRoles[models.RoleSuperAdmin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() gin.HandlerFunc {
	return RBAC(models.RoleAdmin)
}

// RequireStaff admits administrators and teachers.
func RequireStaff() gin.HandlerFunc {
	return RBAC(models.RoleAdmin, models.RoleTeacher)
}
