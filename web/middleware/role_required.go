package middleware

import (
	"net/http"

	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/web/session"

	"github.com/gin-gonic/gin"
)

// RoleRequired gates a route group to the given roles, read from the session
// profile.
func RoleRequired(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool)
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := session.GetLoginUser(c)
		if user == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !allowed[user.Role] {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
