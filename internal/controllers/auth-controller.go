package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/ia-platform-api/internal/auth"
	"github.com/franciscosanchezn/ia-platform-api/internal/middleware"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/observability"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@ia-platform.com"`
	Password string `json:"password" binding:"required" example:"password"`
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=120" example:"Ada Lovelace"`
	Email           string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password        string `json:"password" binding:"required,min=6,max=72" example:"secret1"`
	ConfirmPassword string `json:"confirmPassword" binding:"omitempty,eqfield=Password" example:"secret1"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=120"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type AuthController struct {
	userService services.UserService
	tokens      *auth.TokenManager
	events      middleware.AuthEvents
}

func NewAuthController(userService services.UserService, tokens *auth.TokenManager, events middleware.AuthEvents) *AuthController {
	return &AuthController{
		userService: userService,
		tokens:      tokens,
		events:      events,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchange email and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.AuthPayload}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /api/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			ac.record(observability.EventLogin, observability.OutcomeFailure)
			_ = c.Error(models.ErrUnauthorized("Invalid credentials"))
			return
		}
		_ = c.Error(err)
		return
	}

	token, err := ac.tokens.Issue(user.ID, user.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ac.record(observability.EventLogin, observability.OutcomeSuccess)

	c.JSON(http.StatusOK, models.Success("Login successful", models.AuthPayload{
		User:  user.ToResponse(),
		Token: token,
	}))
}

// Register godoc
// @Summary Register
// @Description Create an account with the user role and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param account body RegisterRequest true "Account details"
// @Success 201 {object} models.APIResponse{data=models.AuthPayload}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.RoleUser,
	}

	if err := ac.userService.CreateUser(user); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			ac.record(observability.EventRegister, observability.OutcomeFailure)
			_ = c.Error(models.ErrConflict("Email is already registered"))
			return
		}
		_ = c.Error(err)
		return
	}

	token, err := ac.tokens.Issue(user.ID, user.Role)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ac.record(observability.EventRegister, observability.OutcomeSuccess)

	c.JSON(http.StatusCreated, models.Success("User registered successfully", models.AuthPayload{
		User:  user.ToResponse(),
		Token: token,
	}))
}

// GetProfile godoc
// @Summary Current profile
// @Tags auth
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.UserResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/auth/profile [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(models.ErrUnauthorized("Access token required"))
		return
	}
	c.JSON(http.StatusOK, models.Success("", user.ToResponse()))
}

// UpdateProfile godoc
// @Summary Update profile
// @Description Change the name and/or email of the current user
// @Tags auth
// @Accept json
// @Produce json
// @Param profile body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.UserResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/auth/profile [put]
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(models.ErrUnauthorized("Access token required"))
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := ac.userService.UpdateProfile(user.ID, services.ProfileUpdate{Name: req.Name, Email: req.Email})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			_ = c.Error(models.ErrConflict("Email is already in use"))
		case errors.Is(err, services.ErrUserNotFound):
			_ = c.Error(models.ErrNotFound("User not found"))
		default:
			_ = c.Error(err)
		}
		return
	}

	c.JSON(http.StatusOK, models.Success("Profile updated successfully", updated.ToResponse()))
}

// Validate godoc
// @Summary Validate token
// @Description Confirm the bearer token is valid and return its user
// @Tags auth
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.UserResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/auth/validate [get]
func (ac *AuthController) Validate(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(models.ErrUnauthorized("Access token required"))
		return
	}
	c.JSON(http.StatusOK, models.Success("Token is valid", user.ToResponse()))
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; the client discards its copy
// @Tags auth
// @Produce json
// @Success 200 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, models.Success("Logged out successfully", nil))
}

// ListUsers godoc
// @Summary List users
// @Description Admin only
// @Tags admin
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.UserResponse}
// @Failure 403 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/admin/users [get]
func (ac *AuthController) ListUsers(c *gin.Context) {
	users, err := ac.userService.ListUsers()
	if err != nil {
		_ = c.Error(err)
		return
	}

	response := make([]models.UserResponse, 0, len(users))
	for i := range users {
		response = append(response, users[i].ToResponse())
	}
	c.JSON(http.StatusOK, models.Success("", response))
}

func (ac *AuthController) record(event, outcome string) {
	if ac.events != nil {
		ac.events.AuthEvent(event, outcome)
	}
}
