package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user_not_found")
	ErrEmailTaken         = errors.New("email_already_registered")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// ProfileUpdate carries the optional fields of a profile change; nil means unchanged
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UserService manages user accounts
type UserService interface {
	// CreateUser hashes the plain password held in user.Password and stores the user
	CreateUser(user *models.User) error
	// Authenticate checks the credentials and records the login time
	Authenticate(email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	// ListUsers returns every account ordered by id
	ListUsers() ([]models.User, error)
	// UpdateProfile applies the update, refusing an email held by another user
	UpdateProfile(id uint, update ProfileUpdate) (*models.User, error)
}

type userService struct {
	db         *gorm.DB
	bcryptCost int
	// dummyHash keeps the cost of a failed login independent of whether the email exists
	dummyHash  []byte
	now        func() time.Time
}

// NewUserService creates a UserService; bcryptCost outside bcrypt's range falls back to the default
func NewUserService(db *gorm.DB, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("dummy-password"), bcryptCost)
	return &userService{db: db, bcryptCost: bcryptCost, dummyHash: dummyHash, now: time.Now}
}

func (s *userService) CreateUser(user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)

	var existing models.User
	err := s.db.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup user by email: %w", err)
	}

	if err := user.HashPassword(s.bcryptCost); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := s.now()
	user.CreatedAt = now
	user.LastLogin = &now

	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *userService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.Model(user).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *userService) UpdateProfile(id uint, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if update.Email != nil {
		email := models.NormalizeEmail(*update.Email)
		if email != "" && email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, ErrEmailTaken
			}
			changes["email"] = email
		}
	}
	if update.Name != nil && *update.Name != "" {
		changes["name"] = *update.Name
	}
	if len(changes) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(changes).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.GetUserByID(id)
}

func (s *userService) ListUsers() ([]models.User, error) {
	users := []models.User{}
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
