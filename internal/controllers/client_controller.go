package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/ia-platform-api/internal/middleware"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CreateClientRequest struct {
	Name   string `json:"name" binding:"required,min=2,max=120" example:"analytics notebook"`
	Domain string `json:"domain" binding:"omitempty,url" example:"https://notebook.example.com"`
	Scopes string `json:"scopes" binding:"max=255" example:"models:read models:write"`
}

// CreatedClient is returned once, at creation; the secret cannot be retrieved later
type CreatedClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Name         string `json:"name"`
	Domain       string `json:"domain,omitempty"`
	Scopes       string `json:"scopes,omitempty"`
	GrantTypes   string `json:"grantTypes"`
}

type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

// CreateClient godoc
// @Summary Create API client
// @Description Register a client for the client credentials grant. The secret is only shown in this response.
// @Tags clients
// @Accept json
// @Produce json
// @Param client body CreateClientRequest true "Client details"
// @Success 201 {object} models.APIResponse{data=CreatedClient}
// @Failure 400 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(models.ErrUnauthorized("Access token required"))
		return
	}

	var req CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, secret, err := cc.clientService.CreateClient(services.NewClient{
		Name:   req.Name,
		Domain: req.Domain,
		Scopes: normalizeScopes(req.Scopes),
		UserID: user.ID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, models.Success("Client created successfully", CreatedClient{
		ClientID:     client.ID,
		ClientSecret: secret,
		Name:         client.Name,
		Domain:       client.Domain,
		Scopes:       client.Scopes,
		GrantTypes:   client.GrantTypes,
	}))
}

// GetClients godoc
// @Summary List API clients
// @Description List the caller's clients; secrets are never returned
// @Tags clients
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.OAuthClient}
// @Security BearerAuth
// @Router /api/clients [get]
func (cc *ClientController) GetClients(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(models.ErrUnauthorized("Access token required"))
		return
	}

	clients, err := cc.clientService.GetClientsByUserID(user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.Success("", clients))
}

// DeleteClient godoc
// @Summary Delete API client
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Security BearerAuth
// @Router /api/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(models.ErrUnauthorized("Access token required"))
		return
	}

	if err := cc.clientService.DeleteClient(c.Param("id"), user.ID); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			_ = c.Error(models.ErrNotFound("Client not found"))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.Success("Client deleted successfully", nil))
}

// normalizeScopes accepts comma or space separated scopes and stores them space separated
func normalizeScopes(scopes string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(scopes, ",", " ")), " ")
}
