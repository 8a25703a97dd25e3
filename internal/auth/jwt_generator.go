package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserLookup resolves the account a token is issued for
type UserLookup interface {
	GetUserByID(id uint) (*models.User, error)
}

// JWTAccessGenerate issues OAuth2 access tokens in the same format as login tokens,
// so the auth middleware accepts both without knowing where a token came from.
type JWTAccessGenerate struct {
	tokens *TokenManager
	users  UserLookup
}

func NewJWTAccessGenerate(tokens *TokenManager, users UserLookup) *JWTAccessGenerate {
	return &JWTAccessGenerate{tokens: tokens, users: users}
}

// Token is called by the OAuth2 manager for every grant it serves
func (g *JWTAccessGenerate) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	// client_credentials requests carry no user; the client acts for its owner
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}

	id, err := strconv.ParseUint(userID, 10, 0)
	if err != nil || id == 0 {
		return "", "", fmt.Errorf("cannot generate token: invalid user id %q", userID)
	}

	// Role is read at issue time so a demoted owner cannot mint admin tokens
	user, err := g.users.GetUserByID(uint(id))
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch token owner: %w", err)
	}
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	createAt := data.TokenInfo.GetAccessCreateAt()
	claims := &Claims{
		UserID: strconv.FormatUint(id, 10),
		Role:   role,
		Scope:  data.TokenInfo.GetScope(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{data.Client.GetID()},
			IssuedAt:  jwt.NewNumericDate(createAt),
			ExpiresAt: jwt.NewNumericDate(createAt.Add(data.TokenInfo.GetAccessExpiresIn())),
		},
	}

	access, err := g.tokens.Sign(claims)
	if err != nil {
		return "", "", err
	}

	// Refresh tokens are never issued
	return access, "", nil
}
