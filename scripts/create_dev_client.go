package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/franciscosanchezn/ia-platform-api/internal/config"
	"github.com/franciscosanchezn/ia-platform-api/internal/database"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command line flags
	role := flag.String("role", models.RoleAdmin, "Owner role (admin or user)")
	scopes := flag.String("scopes", "models:read models:write", "Space separated scopes granted to the client")
	flag.Parse()

	if *role != models.RoleAdmin && *role != models.RoleUser {
		log.Fatalf("Unknown role %q", *role)
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	dbConf := database.FromAppConfig(conf)
	if dbConf.InMemory() {
		log.Fatal("DB_PATH points at an in-memory database; set it to the file the API server uses")
	}

	db, err := database.InitDatabase(dbConf)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Get or create the owner with the specified role
	users := services.NewUserService(db, conf.BcryptCost)
	owner, err := ownerForRole(users, *role)
	if err != nil {
		log.Fatal("Failed to get user for role:", err)
	}

	name := fmt.Sprintf("Development %s Client", *role)
	clientService := services.NewClientService(db)
	existing, err := clientService.GetClientsByUserID(owner.ID)
	if err != nil {
		log.Fatal("Failed to list clients:", err)
	}
	for _, c := range existing {
		if c.Name == name {
			fmt.Printf("Development client already exists for role '%s'!\n", *role)
			fmt.Printf("Client ID: %s\n", c.ID)
			fmt.Println("The secret is only shown once; delete the client through the API to issue a new one.")
			return
		}
	}

	client, secret, err := clientService.CreateClient(services.NewClient{
		Name:   name,
		Domain: "http://localhost",
		Scopes: *scopes,
		UserID: owner.ID,
	})
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("✓ Development OAuth client created for role '%s'!\n", *role)
	fmt.Printf("Client ID: %s\n", client.ID)
	fmt.Printf("Client Secret: %s\n", secret)
	fmt.Printf("Owner: %s (ID: %d)\n", owner.Email, owner.ID)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:%d/oauth/token \\\n", conf.Port)
	fmt.Printf("  -d 'grant_type=client_credentials' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", client.ID)
	fmt.Printf("  -d 'client_secret=%s' \\\n", secret)
	fmt.Printf("  -d 'scope=%s'\n", *scopes)
}

// ownerForRole gets or creates a user with the specified role
func ownerForRole(users services.UserService, role string) (*models.User, error) {
	email := fmt.Sprintf("%s@ia-platform.com", role)

	user, err := users.GetUserByEmail(email)
	if err == nil {
		fmt.Printf("Found existing user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
		return user, nil
	}
	if !errors.Is(err, services.ErrUserNotFound) {
		return nil, err
	}

	// Unusable password: the account only owns clients until someone resets it
	user = &models.User{
		Email:    email,
		Name:     fmt.Sprintf("%s User", role),
		Password: uuid.NewString(),
		Role:     role,
	}
	if err := users.CreateUser(user); err != nil {
		return nil, err
	}

	fmt.Printf("Created new user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
	return user, nil
}
