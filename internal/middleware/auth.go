package middleware

import (
	"net/http"
	"strings"

	"eventbook/internal/identity"

	"github.com/gin-gonic/gin"
)

const userKey = "identity.user"

// Authenticate 驗證 Bearer token，並把呼叫者存進 gin context
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue"})
			return
		}

		user, err := identity.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRole 只允許指定角色通過，需放在 Authenticate 之後
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !allowed[user.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You are not allowed to do that"})
			return
		}
		c.Next()
	}
}

// CurrentUser 回傳已驗證的呼叫者，未驗證時為 nil
func CurrentUser(c *gin.Context) *identity.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*identity.User)
	return user
}
