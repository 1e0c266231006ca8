package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "leavehub/internal/errors"
	"leavehub/internal/logger"
	"leavehub/internal/services"
	"leavehub/internal/uuid"
)

// getActor extracts the authenticated caller's employee ID and role from
// the Gin context. Returns ErrUnauthorized if the auth middleware did not
// run.
func getActor(c *gin.Context) (services.Actor, error) {
	employeeID, exists := c.Get("employeeID")
	if !exists {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	role, exists := c.Get("role")
	if !exists {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	return services.Actor{EmployeeID: employeeID.(string), Role: role.(string)}, nil
}

// parsePathUUID parses a UUID path parameter.
// Returns ErrValidation if the parameter is not a valid UUID.
func parsePathUUID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrValidation, "Invalid "+param)
	}
	return id, nil
}

// parseDate parses a calendar date in YYYY-MM-DD form, accepting RFC3339
// as a fallback and truncating it to the date.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrValidation, "invalid date, use YYYY-MM-DD")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseYearQuery parses the "year" query parameter, defaulting to the
// current year when absent.
func parseYearQuery(c *gin.Context) (int, error) {
	v := c.Query("year")
	if v == "" {
		return time.Now().UTC().Year(), nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1900 || year > 9999 {
		return 0, apperrors.WithMessage(apperrors.ErrValidation, "invalid year")
	}
	return year, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorResponse represents a JSON error envelope in API documentation.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}
