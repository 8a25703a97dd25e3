package middleware

import (
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/gin-gonic/gin"
)

// Keys under which request-scoped values are stored on the gin context
const (
	ContextUser      = "user"
	ContextUserID    = "userID"
	ContextUserRole  = "userRole"
	ContextClientID  = "clientID"
	ContextScopes    = "scopes"
	ContextAuthType  = "auth_type"
	ContextRequestID = "request_id"
)

// CurrentUser returns the user attached by AuthenticateToken
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// RequestIDFrom returns the id assigned by the RequestID middleware, if any
func RequestIDFrom(c *gin.Context) string {
	if id := c.GetString(ContextRequestID); id != "" {
		return id
	}
	return c.GetHeader(requestIDHeader)
}
