package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/ia-platform-api/internal/middleware"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CreateModelRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=120" example:"Churn Predictor"`
	Description string   `json:"description" binding:"max=1000"`
	Type        string   `json:"type" binding:"required,oneof=classification regression clustering nlp computer-vision" example:"classification"`
	Accuracy    *float64 `json:"accuracy" binding:"omitempty,gte=0,lte=100" example:"91.5"`
}

type UpdateModelRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=2,max=120"`
	Description *string  `json:"description" binding:"omitempty,max=1000"`
	Type        *string  `json:"type" binding:"omitempty,oneof=classification regression clustering nlp computer-vision"`
	Accuracy    *float64 `json:"accuracy" binding:"omitempty,gte=0,lte=100"`
	Status      *string  `json:"status" binding:"omitempty,oneof=training ready error"`
}

// ModelController handles HTTP requests for the model catalog
type ModelController interface {
	// GetAllModels lists catalog entries
	GetAllModels(c *gin.Context)
	// GetModelByID retrieves one entry
	GetModelByID(c *gin.Context)
	// CreateModel registers a new entry owned by the caller
	CreateModel(c *gin.Context)
	// UpdateModel changes an entry; owner or admin only
	UpdateModel(c *gin.Context)
	// DeleteModel removes an entry; owner or admin only
	DeleteModel(c *gin.Context)
}

type modelController struct {
	service services.ModelService
}

// NewModelController creates a new instance of ModelController
func NewModelController(service services.ModelService) ModelController {
	return &modelController{service: service}
}

// GetAllModels godoc
// @Summary List models
// @Description List catalog models with optional filtering
// @Tags models
// @Produce json
// @Param type query string false "Filter by model type"
// @Param status query string false "Filter by status"
// @Param name query string false "Filter by name (partial match)"
// @Success 200 {object} models.APIResponse{data=[]models.AIModel}
// @Failure 401 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/models [get]
func (mc *modelController) GetAllModels(ctx *gin.Context) {
	aiModels, err := mc.service.GetAllModels(services.ModelFilter{
		Type:   ctx.Query("type"),
		Status: ctx.Query("status"),
		Name:   strings.TrimSpace(ctx.Query("name")),
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, models.Success("", aiModels))
}

// GetModelByID godoc
// @Summary Get model by ID
// @Tags models
// @Produce json
// @Param id path int true "Model ID"
// @Success 200 {object} models.APIResponse{data=models.AIModel}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/models/{id} [get]
func (mc *modelController) GetModelByID(ctx *gin.Context) {
	model, ok := mc.loadModel(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, models.Success("", model))
}

// CreateModel godoc
// @Summary Create a model
// @Description Register a model; it starts in the training status
// @Tags models
// @Accept json
// @Produce json
// @Param model body CreateModelRequest true "Model"
// @Success 201 {object} models.APIResponse{data=models.AIModel}
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/models [post]
func (mc *modelController) CreateModel(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		_ = ctx.Error(models.ErrUnauthorized("Access token required"))
		return
	}

	var req CreateModelRequest
	if !bindJSON(ctx, &req) {
		return
	}

	created, err := mc.service.CreateModel(models.AIModel{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Accuracy:    req.Accuracy,
		Status:      models.ModelStatusTraining,
		CreatedBy:   user.ID,
	})
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusCreated, models.Success("Model created successfully", created))
}

// UpdateModel godoc
// @Summary Update a model
// @Tags models
// @Accept json
// @Produce json
// @Param id path int true "Model ID"
// @Param model body UpdateModelRequest true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.AIModel}
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/models/{id} [put]
func (mc *modelController) UpdateModel(ctx *gin.Context) {
	existing, ok := mc.loadOwnedModel(ctx, "You can only update your own models")
	if !ok {
		return
	}

	var req UpdateModelRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Type != nil {
		existing.Type = *req.Type
	}
	if req.Accuracy != nil {
		existing.Accuracy = req.Accuracy
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}

	updated, err := mc.service.UpdateModel(existing)
	if err != nil {
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, models.Success("Model updated successfully", updated))
}

// DeleteModel godoc
// @Summary Delete a model
// @Tags models
// @Produce json
// @Param id path int true "Model ID"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/models/{id} [delete]
func (mc *modelController) DeleteModel(ctx *gin.Context) {
	existing, ok := mc.loadOwnedModel(ctx, "You can only delete your own models")
	if !ok {
		return
	}

	if err := mc.service.DeleteModel(existing.ID); err != nil {
		if errors.Is(err, services.ErrModelNotFound) {
			_ = ctx.Error(models.ErrNotFound("Model not found"))
			return
		}
		_ = ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, models.Success("Model deleted successfully", nil))
}

// loadModel resolves the :id parameter; on failure the error is attached and ok is false
func (mc *modelController) loadModel(ctx *gin.Context) (models.AIModel, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 0)
	if err != nil {
		_ = ctx.Error(err)
		return models.AIModel{}, false
	}

	model, err := mc.service.GetModelByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrModelNotFound) {
			_ = ctx.Error(models.ErrNotFound("Model not found"))
		} else {
			_ = ctx.Error(err)
		}
		return models.AIModel{}, false
	}
	return model, true
}

func (mc *modelController) loadOwnedModel(ctx *gin.Context, forbidden string) (models.AIModel, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		_ = ctx.Error(models.ErrUnauthorized("Access token required"))
		return models.AIModel{}, false
	}

	model, ok := mc.loadModel(ctx)
	if !ok {
		return models.AIModel{}, false
	}

	if !model.OwnedBy(user) {
		_ = ctx.Error(models.ErrForbidden(forbidden))
		return models.AIModel{}, false
	}
	return model, true
}
