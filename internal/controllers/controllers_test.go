package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/ia-platform-api/internal/auth"
	"github.com/franciscosanchezn/ia-platform-api/internal/middleware"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret-key-32-characters"

type testEnv struct {
	router *gin.Engine
	users  services.UserService
	tokens *auth.TokenManager
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AIModel{}, &models.OAuthClient{}))
	return db
}

func setupEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := services.NewUserService(db, bcrypt.MinCost)
	tokens := auth.NewTokenManager(testSecret, time.Hour)

	authController := NewAuthController(users, tokens, nil)
	modelController := NewModelController(services.NewModelService(db))
	clientController := NewClientController(services.NewClientService(db))
	requireAuth := middleware.AuthenticateToken(tokens, users, nil)

	router := gin.New()
	router.Use(middleware.ErrorHandler(log, false))

	authRoutes := router.Group("/api/auth")
	authRoutes.POST("/login", authController.Login)
	authRoutes.POST("/register", authController.Register)
	authRoutes.GET("/profile", requireAuth, authController.GetProfile)
	authRoutes.PUT("/profile", requireAuth, authController.UpdateProfile)
	authRoutes.GET("/validate", requireAuth, authController.Validate)
	authRoutes.POST("/logout", requireAuth, authController.Logout)

	modelRoutes := router.Group("/api/models", requireAuth)
	modelRoutes.GET("", modelController.GetAllModels)
	modelRoutes.GET("/:id", modelController.GetModelByID)
	modelRoutes.POST("", modelController.CreateModel)
	modelRoutes.PUT("/:id", modelController.UpdateModel)
	modelRoutes.DELETE("/:id", modelController.DeleteModel)

	router.GET("/api/admin/users", requireAuth, middleware.RequireRole(models.RoleAdmin), authController.ListUsers)

	clientRoutes := router.Group("/api/clients", requireAuth)
	clientRoutes.POST("", clientController.CreateClient)
	clientRoutes.GET("", clientController.GetClients)
	clientRoutes.DELETE("/:id", clientController.DeleteClient)

	return &testEnv{router: router, users: users, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w, decoded
}

// createUser stores a user directly and returns a token for it
func (e *testEnv) createUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	user := &models.User{Email: email, Name: "Test " + role, Password: "secret1", Role: role}
	require.NoError(t, e.users.CreateUser(user))
	token, err := e.tokens.Issue(user.ID, user.Role)
	require.NoError(t, err)
	return user, token
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data should be an object: %v", body)
	return d
}

func TestRegister(t *testing.T) {
	env := setupEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Ada Lovelace", "email": "Ada@Example.com", "password": "secret1", "confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User registered successfully", body["message"])

	payload := data(t, body)
	assert.NotEmpty(t, payload["token"])
	user := payload["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, models.RoleUser, user["role"])
	assert.IsType(t, "", user["id"], "ids are rendered as strings")
	assert.NotNil(t, user["lastLogin"])
	assert.NotContains(t, user, "password")

	t.Run("duplicate email", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"name": "Impostor", "email": "ada@example.com", "password": "secret2",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Email is already registered", body["error"])
	})

	t.Run("validation", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"name": "A", "email": "not-an-email", "password": "123", "confirmPassword": "456",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid input data", body["error"])
		assert.Len(t, body["details"], 4)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/register", "", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid JSON", body["error"])
	})
}

func TestNamesAreTrimmedBeforeValidation(t *testing.T) {
	env := setupEnv(t)
	_, token := env.createUser(t, "trim@example.com", models.RoleUser)

	w, body := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": " a", "email": "short@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input data", body["error"])

	w, body = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "  Bo  ", "email": "bo@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Bo", data(t, body)["user"].(map[string]interface{})["name"])

	w, _ = env.do(t, http.MethodPut, "/api/auth/profile", token, gin.H{"name": "x "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/models", token, gin.H{"name": " m ", "type": "nlp"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/clients", token, gin.H{"name": "c  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	env := setupEnv(t)
	env.createUser(t, "login@example.com", models.RoleUser)

	testCases := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{name: "valid credentials", body: gin.H{"email": "login@example.com", "password": "secret1"}, wantStatus: http.StatusOK},
		{name: "email case is ignored", body: gin.H{"email": "LOGIN@example.com", "password": "secret1"}, wantStatus: http.StatusOK},
		{name: "wrong password", body: gin.H{"email": "login@example.com", "password": "wrong"}, wantStatus: http.StatusUnauthorized, wantError: "Invalid credentials"},
		{name: "unknown email", body: gin.H{"email": "ghost@example.com", "password": "secret1"}, wantStatus: http.StatusUnauthorized, wantError: "Invalid credentials"},
		{name: "missing password", body: gin.H{"email": "login@example.com"}, wantStatus: http.StatusBadRequest, wantError: "Invalid input data"},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantError: "Invalid JSON"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantError, body["error"])
				return
			}

			assert.Equal(t, "Login successful", body["message"])
			token, _ := data(t, body)["token"].(string)
			claims, err := env.tokens.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, models.RoleUser, claims.Role)
		})
	}
}

func TestProtectedAuthRoutes(t *testing.T) {
	env := setupEnv(t)
	user, token := env.createUser(t, "me@example.com", models.RoleUser)
	env.createUser(t, "taken@example.com", models.RoleUser)

	t.Run("profile", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/auth/profile", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "me@example.com", data(t, body)["email"])
		assert.Equal(t, fmt.Sprint(user.ID), data(t, body)["id"])
	})

	t.Run("validate", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/auth/validate", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Token is valid", body["message"])
	})

	t.Run("logout", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Logged out successfully", body["message"])
	})

	t.Run("missing token", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/auth/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Access token required", body["error"])
	})

	t.Run("invalid token", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/auth/validate", "not.a.token", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Invalid token", body["error"])
	})

	t.Run("update profile", func(t *testing.T) {
		w, body := env.do(t, http.MethodPut, "/api/auth/profile", token, gin.H{"name": "  New Name ", "email": "ME2@example.com"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Profile updated successfully", body["message"])
		assert.Equal(t, "New Name", data(t, body)["name"])
		assert.Equal(t, "me2@example.com", data(t, body)["email"])
	})

	t.Run("update profile with taken email", func(t *testing.T) {
		w, body := env.do(t, http.MethodPut, "/api/auth/profile", token, gin.H{"email": "taken@example.com"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Email is already in use", body["error"])
	})

	t.Run("update profile validation", func(t *testing.T) {
		w, body := env.do(t, http.MethodPut, "/api/auth/profile", token, gin.H{"name": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid input data", body["error"])
	})
}

func TestModelCatalog(t *testing.T) {
	env := setupEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", models.RoleUser)
	_, otherToken := env.createUser(t, "other@example.com", models.RoleUser)
	_, adminToken := env.createUser(t, "admin@example.com", models.RoleAdmin)

	w, body := env.do(t, http.MethodPost, "/api/models", ownerToken, gin.H{
		"name": "Churn Predictor", "description": "Predicts churn", "type": "classification", "accuracy": 91.5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := data(t, body)
	assert.Equal(t, models.ModelStatusTraining, created["status"])
	id := fmt.Sprint(created["id"])

	t.Run("invalid type", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/models", ownerToken, gin.H{"name": "Bad", "type": "astrology"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list with filter", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/models?type=classification&name=churn", otherToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, body["data"], 1)
	})

	t.Run("get by id", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/models/"+id, otherToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Churn Predictor", data(t, body)["name"])
	})

	t.Run("non numeric id", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/models/abc", otherToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid ID", body["error"])
	})

	t.Run("missing id", func(t *testing.T) {
		w, body := env.do(t, http.MethodGet, "/api/models/9999", otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Model not found", body["error"])
	})

	t.Run("non owner cannot update", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPut, "/api/models/"+id, otherToken, gin.H{"status": "ready"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner updates", func(t *testing.T) {
		w, body := env.do(t, http.MethodPut, "/api/models/"+id, ownerToken, gin.H{"status": "ready", "accuracy": 93.1})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.ModelStatusReady, data(t, body)["status"])
		assert.Equal(t, 93.1, data(t, body)["accuracy"])
		assert.Equal(t, "Churn Predictor", data(t, body)["name"], "omitted fields are kept")
	})

	t.Run("invalid status", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPut, "/api/models/"+id, ownerToken, gin.H{"status": "deployed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("admin deletes", func(t *testing.T) {
		w, body := env.do(t, http.MethodDelete, "/api/models/"+id, adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Model deleted successfully", body["message"])

		w, _ = env.do(t, http.MethodGet, "/api/models/"+id, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestClients(t *testing.T) {
	env := setupEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", models.RoleUser)
	_, otherToken := env.createUser(t, "other@example.com", models.RoleUser)

	w, body := env.do(t, http.MethodPost, "/api/clients", ownerToken, gin.H{"name": "notebook", "scopes": "models:read, models:write"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := data(t, body)
	assert.NotEmpty(t, created["clientSecret"])
	assert.Equal(t, "models:read models:write", created["scopes"])
	assert.Equal(t, "client_credentials", created["grantTypes"])
	clientID := created["clientId"].(string)

	w, body = env.do(t, http.MethodGet, "/api/clients", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "secret")

	w, _ = env.do(t, http.MethodDelete, "/api/clients/"+clientID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "clients can only be deleted by their owner")

	w, _ = env.do(t, http.MethodDelete, "/api/clients/"+clientID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/clients", ownerToken, gin.H{"name": "x", "domain": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUsersAdminOnly(t *testing.T) {
	env := setupEnv(t)
	_, userToken := env.createUser(t, "user@example.com", models.RoleUser)
	_, adminToken := env.createUser(t, "admin@example.com", models.RoleAdmin)

	w, body := env.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Insufficient permissions", body["error"])

	w, body = env.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := body["data"].([]interface{})
	require.Len(t, list, 2)
	assert.NotContains(t, list[0], "password")
}
