package middleware

import (
	"net/http"
	"strings"

	"calendar-sync-api/core/controller"
	"calendar-sync-api/core/errors"
	"calendar-sync-api/core/utils"

	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyUserID is where AuthMiddleware stores the verified user id.
	ContextKeyUserID = "user_id"

	// ContextKeyRequestID is where RequestIDMiddleware stores the correlation id.
	ContextKeyRequestID = "request_id"

	// HeaderRequestID is echoed back on every response.
	HeaderRequestID = "X-Request-Id"
)

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// AuthMiddleware verifies the bearer token and stores the caller's user id in
// the request context. Verification is the only identity capability used here.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return controller.JSONError(c, http.StatusUnauthorized,
					errors.NewAppError(errors.ErrMissingAuthorizationHeader, "Authentication required", nil))
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				return controller.JSONError(c, http.StatusUnauthorized,
					errors.NewAppError(errors.ErrInvalidTokenFormat, "Invalid authorization header", nil))
			}

			tokenData, appErr := utils.ValidateAndParseToken(token)
			if appErr != nil {
				return controller.JSONError(c, http.StatusUnauthorized, appErr)
			}

			c.Set(ContextKeyUserID, tokenData.UserID)
			return next(c)
		}
	}
}

// RequestIDMiddleware attaches a correlation id to every request so error
// responses can be matched with log lines.
func (m *Middleware) RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}
			c.Set(ContextKeyRequestID, requestID)
			c.Response().Header().Set(HeaderRequestID, requestID)
			return next(c)
		}
	}
}
