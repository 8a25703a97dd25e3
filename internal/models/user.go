package models

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles a user can hold
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the persisted account record. Password holds the bcrypt hash, never the plain text.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;size:320;not null"`
	Name      string `gorm:"size:120;not null"`
	Password  string `gorm:"size:255;not null"`
	Role      string `gorm:"size:20;not null;default:'user'"`
	CreatedAt time.Time
	UpdatedAt time.Time
	LastLogin *time.Time
}

// UserResponse is the public representation of a user returned by the API
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// HashPassword replaces the plain text password with its bcrypt hash
func (u *User) HashPassword(cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ToResponse strips the password hash and renders the id as a string
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        strconv.FormatUint(uint64(u.ID), 10),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// NormalizeEmail trims and lower-cases an address so lookups and the unique index agree
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
