package services

import (
	"errors"
	"strings"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"gorm.io/gorm"
)

var ErrModelNotFound = errors.New("model_not_found")

// likeEscaper makes the name filter match % and _ literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ModelFilter narrows a catalog listing; empty fields match everything
type ModelFilter struct {
	Type   string
	Status string
	Name   string // partial, case-insensitive
}

// ModelService provides methods to interact with the model catalog
type ModelService interface {
	// GetAllModels retrieves catalog entries matching the filter
	GetAllModels(filter ModelFilter) ([]models.AIModel, error)
	// GetModelByID retrieves a catalog entry by its ID
	GetModelByID(id uint) (models.AIModel, error)
	// CreateModel registers a new catalog entry
	CreateModel(model models.AIModel) (models.AIModel, error)
	// UpdateModel saves an existing catalog entry
	UpdateModel(model models.AIModel) (models.AIModel, error)
	// DeleteModel removes a catalog entry by its ID
	DeleteModel(id uint) error
}

// modelService is the implementation of the ModelService interface
type modelService struct {
	db *gorm.DB
}

// NewModelService creates a new instance of ModelService
func NewModelService(db *gorm.DB) ModelService {
	return &modelService{db: db}
}

func (s *modelService) GetAllModels(filter ModelFilter) ([]models.AIModel, error) {
	query := s.db.Model(&models.AIModel{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Name != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(filter.Name))+"%")
	}

	aiModels := []models.AIModel{}
	if err := query.Order("id").Find(&aiModels).Error; err != nil {
		return nil, err
	}
	return aiModels, nil
}

func (s *modelService) GetModelByID(id uint) (models.AIModel, error) {
	var model models.AIModel
	if err := s.db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AIModel{}, ErrModelNotFound
		}
		return models.AIModel{}, err
	}
	return model, nil
}

func (s *modelService) CreateModel(model models.AIModel) (models.AIModel, error) {
	model.ID = 0
	if model.Status == "" {
		model.Status = models.ModelStatusTraining
	}
	if err := s.db.Create(&model).Error; err != nil {
		return models.AIModel{}, err
	}
	return model, nil
}

func (s *modelService) UpdateModel(model models.AIModel) (models.AIModel, error) {
	if err := s.db.Save(&model).Error; err != nil {
		return models.AIModel{}, err
	}
	return model, nil
}

func (s *modelService) DeleteModel(id uint) error {
	result := s.db.Delete(&models.AIModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrModelNotFound
	}
	return nil
}
