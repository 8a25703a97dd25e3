package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrorHandler turns the last error attached with c.Error into the JSON envelope.
// Handlers that already wrote a response keep it; the error is only logged.
func ErrorHandler(log *logrus.Logger, development bool) gin.HandlerFunc {
	registerJSONFieldNames()

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := describeError(err, development)
		if c.Writer.Written() {
			status = c.Writer.Status()
		}

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": RequestIDFrom(c),
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// Recovery converts panics into the 500 envelope
func Recovery(log *logrus.Logger, development bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		stack := string(debug.Stack())
		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": RequestIDFrom(c),
			"panic":      fmt.Sprint(recovered),
			"stack":      stack,
		}).Error("Recovered from panic")

		body := internalError()
		if development {
			body.Stack = stack
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

func describeError(err error, development bool) (int, models.APIResponse) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, models.Failure(appErr.Text, appErr.Message)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		body := models.Failure("Invalid input data", "Please check the submitted fields")
		body.Details = fieldErrors(validationErrs)
		return http.StatusBadRequest, body
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge, models.Failure("Payload too large",
			fmt.Sprintf("The request body exceeds the %d byte limit", maxBytesErr.Limit))
	}

	if isJSONError(err) {
		return http.StatusBadRequest, models.Failure("Invalid JSON", "The request JSON format is not valid")
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return http.StatusUnauthorized, models.Failure("Token expired", "The authentication token has expired")
	}
	if isJWTError(err) {
		return http.StatusUnauthorized, models.Failure("Invalid token", "The authentication token is not valid")
	}

	if field, ok := duplicateKey(err); ok {
		message := "A resource with the same unique value already exists"
		if field != "" {
			message = fmt.Sprintf("The %s is already in use", field)
		}
		return http.StatusConflict, models.Failure("Duplicate resource", message)
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return http.StatusBadRequest, models.Failure("Invalid ID", "The provided ID format is not valid")
	}

	body := internalError()
	if development {
		body.Stack = err.Error()
	}
	return http.StatusInternalServerError, body
}

func internalError() models.APIResponse {
	return models.Failure("Internal server error", "Something went wrong on the server")
}

func isJSONError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

var jwtErrors = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenInvalidClaims,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenUsedBeforeIssued,
	jwt.ErrTokenRequiredClaimMissing,
}

func isJWTError(err error) bool {
	for _, target := range jwtErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// duplicateKey recognizes unique constraint violations, translated by gorm or raw from the driver.
// The column name is only known from the raw sqlite message.
func duplicateKey(err error) (string, bool) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}

	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, "UNIQUE constraint failed: "); ok {
		column := strings.Fields(rest)
		if len(column) == 0 {
			return "", true
		}
		_, field, _ := strings.Cut(strings.TrimSuffix(column[0], ","), ".")
		return field, true
	}
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		return "", true
	}
	return "", false
}
