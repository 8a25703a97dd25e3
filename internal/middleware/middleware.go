package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/ia-platform-api/internal/auth"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/observability"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup loads the account a token refers to
type UserLookup interface {
	GetUserByID(id uint) (*models.User, error)
}

// AuthEvents records authentication outcomes
type AuthEvents interface {
	AuthEvent(event, outcome string)
}

type noEvents struct{}

func (noEvents) AuthEvent(string, string) {}

// AuthenticateToken accepts login tokens and client-credentials tokens alike.
// Missing token is 401, a token that fails verification is 403 and a token whose
// user no longer exists is 404.
func AuthenticateToken(verifier TokenVerifier, users UserLookup, events AuthEvents) gin.HandlerFunc {
	if events == nil {
		events = noEvents{}
	}
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithFailure(c, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			events.AuthEvent(observability.EventToken, observability.OutcomeFailure)
			_ = c.Error(err).SetType(gin.ErrorTypePrivate)
			abortWithFailure(c, http.StatusForbidden, "Invalid token")
			return
		}

		userID, err := claims.UserIDUint()
		if err != nil {
			events.AuthEvent(observability.EventToken, observability.OutcomeFailure)
			abortWithFailure(c, http.StatusForbidden, "Invalid token")
			return
		}

		// The store is authoritative: a deleted account invalidates its tokens
		user, err := users.GetUserByID(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				events.AuthEvent(observability.EventToken, observability.OutcomeFailure)
				abortWithFailure(c, http.StatusNotFound, "User not found")
				return
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		events.AuthEvent(observability.EventToken, observability.OutcomeSuccess)

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)

		if len(claims.Audience) > 0 && claims.Audience[0] != "" {
			c.Set(ContextClientID, claims.Audience[0])
			c.Set(ContextAuthType, "oauth2")
		} else {
			c.Set(ContextAuthType, "jwt")
		}
		if claims.Scope != "" {
			c.Set(ContextScopes, claims.Scope)
		}

		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortWithFailure(c *gin.Context, status int, errorText string) {
	c.AbortWithStatusJSON(status, models.Failure(errorText, ""))
}
