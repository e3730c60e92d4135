package rest

import (
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// authRequired resolves the X-Token header and stores the user id in the
// gin context.
func (s *HTTPServer) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(common.SessionTokenHeaderName)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		userID, err := s.sessions.ResolveSession(c.Request.Context(), token)
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
