package utils

import (
	"errors"
	"net/http"

	"geo-alert/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithError writes a models.ErrorResponse with the given status.
func RespondWithError(c echo.Context, code int, message string) error {
	return c.JSON(code, models.ErrorResponse{Message: message})
}

// RespondWithJSON writes payload as JSON with the given status.
func RespondWithJSON(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, payload)
}

// HandleServiceError maps service errors to HTTP responses.
func HandleServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrInvalidWorkerID):
		return RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrSweepInProgress):
		return RespondWithError(c, http.StatusConflict, err.Error())
	default:
		c.Logger().Errorf("unhandled service error: %v", err)
		return RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// ExtractOperatorInfo reads the operator set on the context by the JWT middleware.
func ExtractOperatorInfo(c echo.Context) (operatorID, email string, err error) {
	operatorID, ok := c.Get("operatorID").(string)
	if !ok || operatorID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "Missing operator identity")
	}
	email, _ = c.Get("operatorEmail").(string)
	return operatorID, email, nil
}
