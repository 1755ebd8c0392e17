package controller

import (
	"net/http"
	"time"

	"calendar-sync-api/core/errors"
	"calendar-sync-api/core/logger"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the structured error body returned by every endpoint.
// RequestID lets support match a user report with the server logs.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	RequestID string           `json:"requestId,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok {
		return id
	}
	return ""
}

// JSONError writes an AppError with an explicit HTTP status.
func JSONError(c echo.Context, status int, appErr *errors.AppError) error {
	return c.JSON(status, &ErrorResponse{
		Success:   false,
		Code:      appErr.Code,
		Message:   appErr.Message,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}

// AppErrorResponse maps an AppError code to an HTTP status and writes the
// structured error body.
func AppErrorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	appErr := errors.NewAppError(errors.ErrInternalServer, "internal server error", err)

	if ae, ok := err.(*errors.AppError); ok && ae != nil {
		appErr = ae
		switch ae.Code {
		case errors.ErrInvalidInput, errors.ErrInvalidRequestData, errors.ErrProviderError:
			status = http.StatusBadRequest
		case errors.ErrUnauthorized, errors.ErrTokenExpired, errors.ErrInvalidTokenFormat,
			errors.ErrMissingAuthorizationHeader, errors.ErrStateMismatch:
			status = http.StatusUnauthorized
		case errors.ErrForbidden:
			status = http.StatusForbidden
		case errors.ErrNotFound:
			status = http.StatusNotFound
		case errors.ErrAlreadyExists:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}

	logger.Error("Controller:ErrorResponse",
		"status", status,
		"code", appErr.Code,
		"message", appErr.Message,
		"request_id", requestID(c),
	)
	return JSONError(c, status, appErr)
}
