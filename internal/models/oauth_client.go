package models

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OAuthClient is an API client registered by a user for the client credentials grant.
// Tokens issued to it act on behalf of the owning user.
type OAuthClient struct {
	ID         string         `json:"clientId" gorm:"primaryKey"`
	Secret     string         `json:"-" gorm:"not null"` // bcrypt hash
	Name       string         `json:"name" gorm:"not null"`
	Domain     string         `json:"domain"`
	UserID     uint           `json:"userId" gorm:"index;not null"`
	Scopes     string         `json:"scopes"`     // Space-separated list of allowed scopes
	GrantTypes string         `json:"grantTypes"` // Space-separated, only "client_credentials" today
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// The methods below satisfy oauth2.ClientInfo and oauth2.ClientPasswordVerifier

func (c *OAuthClient) GetID() string {
	return c.ID
}

func (c *OAuthClient) GetSecret() string {
	return c.Secret
}

func (c *OAuthClient) GetDomain() string {
	return c.Domain
}

func (c *OAuthClient) IsPublic() bool {
	return false
}

func (c *OAuthClient) GetUserID() string {
	return strconv.FormatUint(uint64(c.UserID), 10)
}

// VerifyPassword compares the presented secret with the stored bcrypt hash
func (c *OAuthClient) VerifyPassword(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(secret)) == nil
}

func (c *OAuthClient) GetScopes() string {
	return c.Scopes
}
