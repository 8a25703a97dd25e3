package services

import (
	"testing"
	"time"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(&models.User{}, &models.AIModel{}, &models.OAuthClient{})
	require.NoError(t, err)

	return db
}

func newTestUserService(db *gorm.DB) UserService {
	return NewUserService(db, bcrypt.MinCost)
}

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	user := &models.User{Email: "  Ada@Example.com ", Name: "Ada", Password: "secret1"}
	require.NoError(t, svc.CreateUser(user))

	assert.NotZero(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.Password, "password must be stored hashed")
	assert.True(t, user.CheckPassword("secret1"))
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, time.Now(), *user.LastLogin, time.Minute)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	require.NoError(t, svc.CreateUser(&models.User{Email: "dup@example.com", Name: "One", Password: "secret1"}))

	err := svc.CreateUser(&models.User{Email: "DUP@example.com", Name: "Two", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)
	require.NoError(t, svc.CreateUser(&models.User{Email: "login@example.com", Name: "Login", Password: "secret1"}))

	testCases := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid credentials", email: "login@example.com", password: "secret1"},
		{name: "email is case-insensitive", email: "LOGIN@example.com", password: "secret1"},
		{name: "wrong password", email: "login@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "secret1", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, user.LastLogin)
			assert.WithinDuration(t, time.Now(), *user.LastLogin, time.Minute)
		})
	}
}

func TestUnknownEmailPaysConfiguredBcryptCost(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, bcrypt.MinCost+1).(*userService)

	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost, "a failed lookup must hash as slowly as a real account")

	require.NoError(t, svc.CreateUser(&models.User{Email: "real@example.com", Name: "Real", Password: "secret1"}))
	stored, err := svc.GetUserByEmail("real@example.com")
	require.NoError(t, err)
	storedCost, err := bcrypt.Cost([]byte(stored.Password))
	require.NoError(t, err)
	assert.Equal(t, storedCost, cost)
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	empty, err := svc.ListUsers()
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, svc.CreateUser(&models.User{Email: "b@example.com", Name: "B", Password: "secret1"}))
	require.NoError(t, svc.CreateUser(&models.User{Email: "a@example.com", Name: "A", Password: "secret1", Role: models.RoleAdmin}))

	users, err := svc.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@example.com", users[0].Email)
	assert.Equal(t, models.RoleAdmin, users[1].Role)
}

func TestGetUserByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	_, err := svc.GetUserByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestUserService(db)

	alice := &models.User{Email: "alice@example.com", Name: "Alice", Password: "secret1"}
	bob := &models.User{Email: "bob@example.com", Name: "Bob", Password: "secret1"}
	require.NoError(t, svc.CreateUser(alice))
	require.NoError(t, svc.CreateUser(bob))

	t.Run("changes name and email", func(t *testing.T) {
		updated, err := svc.UpdateProfile(alice.ID, ProfileUpdate{Name: strPtr("Alice L."), Email: strPtr("Alice.L@Example.com")})
		require.NoError(t, err)
		assert.Equal(t, "Alice L.", updated.Name)
		assert.Equal(t, "alice.l@example.com", updated.Email)
	})

	t.Run("keeping own email is not a conflict", func(t *testing.T) {
		updated, err := svc.UpdateProfile(bob.ID, ProfileUpdate{Email: strPtr("bob@example.com")})
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", updated.Email)
	})

	t.Run("email held by another user is rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(bob.ID, ProfileUpdate{Email: strPtr("alice.l@example.com")})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile(404, ProfileUpdate{Name: strPtr("Nobody")})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestModelService(t *testing.T) {
	db := setupTestDB(t)
	svc := NewModelService(db)

	accuracy := 91.5
	created, err := svc.CreateModel(models.AIModel{Name: "Churn Predictor", Type: models.ModelTypeClassification, Accuracy: &accuracy, CreatedBy: 1})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.ModelStatusTraining, created.Status, "new models start training")

	_, err = svc.CreateModel(models.AIModel{Name: "Topic Clusters", Type: models.ModelTypeClustering, Status: models.ModelStatusReady, CreatedBy: 2})
	require.NoError(t, err)

	all, err := svc.GetAllModels(ModelFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byType, err := svc.GetAllModels(ModelFilter{Type: models.ModelTypeClustering})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Topic Clusters", byType[0].Name)

	byName, err := svc.GetAllModels(ModelFilter{Name: "churn"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, created.ID, byName[0].ID)

	created.Status = models.ModelStatusReady
	updated, err := svc.UpdateModel(created)
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusReady, updated.Status)

	fetched, err := svc.GetModelByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModelStatusReady, fetched.Status)

	require.NoError(t, svc.DeleteModel(created.ID))
	_, err = svc.GetModelByID(created.ID)
	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.ErrorIs(t, svc.DeleteModel(created.ID), ErrModelNotFound)
}

func TestModelNameFilterMatchesWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	svc := NewModelService(db)

	for _, name := range []string{"Model_A", "ModelXA", "Top 5% Ranker", `Path\Finder`} {
		_, err := svc.CreateModel(models.AIModel{Name: name, Type: models.ModelTypeNLP, CreatedBy: 1})
		require.NoError(t, err)
	}

	testCases := []struct {
		filter string
		want   []string
	}{
		{filter: "l_a", want: []string{"Model_A"}},
		{filter: "%", want: []string{"Top 5% Ranker"}},
		{filter: "_", want: []string{"Model_A"}},
		{filter: `h\f`, want: []string{`Path\Finder`}},
	}

	for _, tt := range testCases {
		t.Run(tt.filter, func(t *testing.T) {
			found, err := svc.GetAllModels(ModelFilter{Name: tt.filter})
			require.NoError(t, err)
			names := make([]string, 0, len(found))
			for _, m := range found {
				names = append(names, m.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestClientService(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClientService(db)

	client, secret, err := svc.CreateClient(NewClient{Name: "notebook", Scopes: "read", UserID: 7})
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.NotEmpty(t, secret)
	assert.NotEqual(t, secret, client.Secret, "only the hash is stored")
	assert.True(t, client.VerifyPassword(secret))
	assert.Equal(t, "7", client.GetUserID())

	clients, err := svc.GetClientsByUserID(7)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	others, err := svc.GetClientsByUserID(8)
	require.NoError(t, err)
	assert.Empty(t, others)

	assert.ErrorIs(t, svc.DeleteClient(client.ID, 8), ErrClientNotFound, "only the owner may delete")
	require.NoError(t, svc.DeleteClient(client.ID, 7))

	_, err = svc.GetClientByID(client.ID)
	assert.ErrorIs(t, err, ErrClientNotFound)
}
