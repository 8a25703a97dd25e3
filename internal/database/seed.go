package database

import (
	"fmt"
	"time"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"gorm.io/gorm"
)

// DemoPasswordHash is the bcrypt hash (cost 10) of "password", shared by the demo accounts
const DemoPasswordHash = "$2a$10$92IXUNpkjO0rOQ5byMi.Ye4oKoEa3Ro9llC/.og/at2.uheWG/igi"

// Demo account addresses
const (
	DemoAdminEmail = "admin@ia-platform.com"
	DemoUserEmail  = "user@ia-platform.com"
)

// SeedDemoData creates the demo accounts and catalog entries when the users table is empty
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Info("Database already seeded with initial data")
		return nil
	}

	log.Info("Database is empty, seeding initial data")
	return db.Transaction(func(tx *gorm.DB) error {
		users := []models.User{
			{
				Email:     DemoAdminEmail,
				Name:      "Administrator",
				Password:  DemoPasswordHash,
				Role:      models.RoleAdmin,
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			{
				Email:     DemoUserEmail,
				Name:      "Demo User",
				Password:  DemoPasswordHash,
				Role:      models.RoleUser,
				CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		admin := users[0].ID
		catalog := []models.AIModel{
			{
				Name:        "Sentiment Classifier",
				Description: "Sentiment analysis model for free text",
				Type:        models.ModelTypeNLP,
				Accuracy:    ptr(94.2),
				Status:      models.ModelStatusReady,
				CreatedBy:   admin,
				CreatedAt:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			},
			{
				Name:        "Sales Predictor",
				Description: "Predictive model for sales forecasting",
				Type:        models.ModelTypeRegression,
				Accuracy:    ptr(89.7),
				Status:      models.ModelStatusReady,
				CreatedBy:   admin,
				CreatedAt:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
			},
			{
				Name:        "Image Classifier",
				Description: "Object recognition in images",
				Type:        models.ModelTypeComputerVision,
				Status:      models.ModelStatusTraining,
				CreatedBy:   admin,
				CreatedAt:   time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC),
			},
		}
		if err := tx.Create(&catalog).Error; err != nil {
			return fmt.Errorf("seed models: %w", err)
		}

		log.WithField("users", len(users)).WithField("models", len(catalog)).Info("Database seeded successfully")
		return nil
	})
}

func ptr[T any](v T) *T {
	return &v
}
