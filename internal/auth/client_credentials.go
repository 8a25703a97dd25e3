package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4/server"
)

// HandleToken issues an access token for the client credentials grant
// @Summary Token Endpoint
// @Description Obtain an access token with the client credentials grant. Credentials may be sent as form fields or with HTTP Basic auth.
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Must be client_credentials"
// @Param client_id formData string false "Client ID"
// @Param client_secret formData string false "Client Secret"
// @Param scope formData string false "Space separated subset of the client's scopes"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	// The server writes both the token and OAuth2 error bodies itself
	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		o.log.WithError(err).Warn("Failed to write token response")
	}
	c.Abort()
}

// clientInfoHandler reads client credentials from Basic auth when present, the form otherwise
func clientInfoHandler(r *http.Request) (string, string, error) {
	if _, _, ok := r.BasicAuth(); ok {
		return server.ClientBasicHandler(r)
	}
	return server.ClientFormHandler(r)
}
