package models

import "time"

// Model types accepted by the catalog
const (
	ModelTypeClassification = "classification"
	ModelTypeRegression     = "regression"
	ModelTypeClustering     = "clustering"
	ModelTypeNLP            = "nlp"
	ModelTypeComputerVision = "computer-vision"
)

// Lifecycle states of a catalog entry
const (
	ModelStatusTraining = "training"
	ModelStatusReady    = "ready"
	ModelStatusError    = "error"
)

// AIModel represents a machine learning model registered in the catalog.
// Only metadata is stored here; no training or inference happens in this service.
type AIModel struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:120;not null"`
	Description string    `json:"description" gorm:"size:1000"`
	Type        string    `json:"type" gorm:"size:30;not null;index"`
	Accuracy    *float64  `json:"accuracy,omitempty"`
	Status      string    `json:"status" gorm:"size:20;not null;index"`
	CreatedBy   uint      `json:"createdBy" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName keeps the table name independent of the Go type name
func (AIModel) TableName() string {
	return "ai_models"
}

// OwnedBy reports whether the given user may modify the model
func (m *AIModel) OwnedBy(user *User) bool {
	return user.IsAdmin() || m.CreatedBy == user.ID
}
