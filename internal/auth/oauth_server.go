package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	oauth2errors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ClientTokenTTL is the lifetime of client credentials tokens, independent of the login token TTL
const ClientTokenTTL = time.Hour

// OAuthService serves the client credentials grant for registered API clients
type OAuthService struct {
	server  *server.Server
	clients *GormClientStore
	tokens  *GormTokenStore
	log     *logrus.Logger
}

func NewOAuthService(db *gorm.DB, tokens *TokenManager, users UserLookup, log *logrus.Logger) *OAuthService {
	manager := manage.NewDefaultManager()
	manager.SetClientTokenCfg(&manage.Config{
		AccessTokenExp:    ClientTokenTTL,
		IsGenerateRefresh: false,
	})

	// Access tokens share the format of login tokens
	manager.MapAccessGenerate(NewJWTAccessGenerate(tokens, users))

	tokenStore := NewGormTokenStore(db)
	manager.MustTokenStorage(tokenStore, nil)

	clientStore := NewGormClientStore(db)
	manager.MapClientStorage(clientStore)

	o := &OAuthService{
		clients: clientStore,
		tokens:  tokenStore,
		log:     log,
	}

	srv := server.NewDefaultServer(manager)
	srv.SetAllowedGrantType(oauth2.ClientCredentials)
	srv.SetClientInfoHandler(clientInfoHandler)
	srv.SetClientScopeHandler(o.checkScope)
	srv.SetInternalErrorHandler(func(err error) *oauth2errors.Response {
		log.WithError(err).Error("OAuth2 internal error")
		return nil
	})
	o.server = srv

	return o
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// TokenStore exposes the issued-token records for housekeeping
func (o *OAuthService) TokenStore() *GormTokenStore {
	return o.tokens
}

// checkScope allows a request only for scopes the client was registered with
func (o *OAuthService) checkScope(tgr *oauth2.TokenGenerateRequest) (bool, error) {
	if tgr.Scope == "" {
		return true, nil
	}

	ctx := context.Background()
	if tgr.Request != nil {
		ctx = tgr.Request.Context()
	}
	info, err := o.clients.GetByID(ctx, tgr.ClientID)
	if err != nil {
		return false, err
	}

	granted := make(map[string]bool)
	for _, s := range strings.Fields(scopesOf(info)) {
		granted[s] = true
	}
	for _, s := range strings.Fields(tgr.Scope) {
		if !granted[s] {
			return false, nil
		}
	}
	return true, nil
}

func scopesOf(info oauth2.ClientInfo) string {
	if c, ok := info.(interface{ GetScopes() string }); ok {
		return c.GetScopes()
	}
	return ""
}
