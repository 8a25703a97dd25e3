package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// normalizer is implemented by requests whose fields are cleaned up before they are stored
type normalizer interface {
	normalize()
}

// bindJSON decodes and validates the body. Requests implementing normalizer are normalized and
// validated again, so length rules hold for the values that get stored.
// Failures are attached to the context for the error handler.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(err)
		return false
	}
	n, ok := req.(normalizer)
	if !ok {
		return true
	}
	n.normalize()
	if err := binding.Validator.ValidateStruct(req); err != nil {
		_ = c.Error(err)
		return false
	}
	return true
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func (r *RegisterRequest) normalize()      { r.Name = strings.TrimSpace(r.Name) }
func (r *UpdateProfileRequest) normalize() { trimPtr(r.Name) }
func (r *CreateModelRequest) normalize()   { r.Name = strings.TrimSpace(r.Name) }
func (r *UpdateModelRequest) normalize()   { trimPtr(r.Name) }
func (r *CreateClientRequest) normalize()  { r.Name = strings.TrimSpace(r.Name) }
