package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/snaptaplaque/plateapi/internal/model"
)

// contextUserKey is where requireUser stores the authenticated account.
const contextUserKey = "currentUser"

// requireUser authenticates the bearer token and loads the account into the
// request context. Tokens for deleted accounts fail with 401, tokens for
// deactivated accounts with 403.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			fail(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
			fail(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		username, err := s.tokens.Verify(fields[1])
		if err != nil {
			fail(c, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		user, err := s.users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			fail(c, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		if !user.IsActive {
			fail(c, http.StatusForbidden, "inactive user")
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// requireAdmin must run after requireUser.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin {
			fail(c, http.StatusForbidden, "admin privileges required")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	return c.MustGet(contextUserKey).(*model.User)
}
