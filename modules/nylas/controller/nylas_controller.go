package controller

import (
	stderrors "errors"
	"net/http"

	coreController "calendar-sync-api/core/controller"
	"calendar-sync-api/core/errors"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/core/middleware"
	"calendar-sync-api/modules/nylas/dto"
	"calendar-sync-api/modules/nylas/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type NylasController struct {
	service service.NylasService
}

func NewNylasController(service service.NylasService) *NylasController {
	return &NylasController{service: service}
}

func currentUserID(c echo.Context) (uuid.UUID, *errors.AppError) {
	userID, ok := c.Get(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Authentication required", nil)
	}
	return userID, nil
}

// Connect returns the provider authorization URL for the calling user.
// GET /api/v1/private/nylas/connect
func (ctl *NylasController) Connect(c echo.Context) error {
	userID, appErr := currentUserID(c)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}

	result, appErr := ctl.service.GetConnectURL(c.Request().Context(), userID)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}
	return c.JSON(http.StatusOK, result)
}

// Callback lands the browser redirect from the provider. It never renders
// JSON; every outcome is a redirect back to the frontend.
// GET /api/v1/public/nylas/callback
func (ctl *NylasController) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	providerErr := c.QueryParam("error")

	target, appErr := ctl.service.HandleCallback(c.Request().Context(), code, state, providerErr)
	if appErr != nil {
		logger.Warn("NylasController:Callback:Failed", "code", appErr.Code, "message", appErr.Message)
		return c.Redirect(http.StatusFound, service.CallbackErrorURL(appErr))
	}
	return c.Redirect(http.StatusFound, target)
}

// Exchange trades an authorization code sent by the frontend for a stored
// credential. Provider rejections are forwarded with the provider's body.
// POST /api/v1/private/nylas/exchange
func (ctl *NylasController) Exchange(c echo.Context) error {
	userID, appErr := currentUserID(c)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}

	var req dto.ExchangeRequest
	if err := c.Bind(&req); err != nil {
		return coreController.AppErrorResponse(c,
			errors.NewAppError(errors.ErrInvalidRequestData, "Invalid request body", err))
	}

	result, err := ctl.service.ExchangeCode(c.Request().Context(), userID, req.Code)
	if err != nil {
		var apiErr *service.ProviderAPIError
		if stderrors.As(err, &apiErr) {
			// The provider's own error body is the most useful thing the
			// frontend can show
			return c.JSONBlob(http.StatusBadRequest, apiErr.Body)
		}
		return coreController.AppErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Calendars proxies the provider's calendar listing for the stored grant.
// GET /api/v1/private/nylas/calendars
func (ctl *NylasController) Calendars(c echo.Context) error {
	userID, appErr := currentUserID(c)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}

	result, err := ctl.service.ListCalendars(c.Request().Context(), userID)
	if err != nil {
		var apiErr *service.ProviderAPIError
		if stderrors.As(err, &apiErr) {
			return c.JSONBlob(apiErr.StatusCode, apiErr.Body)
		}
		return coreController.AppErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Status reports the connection state the frontend renders.
// GET /api/v1/private/nylas/status
func (ctl *NylasController) Status(c echo.Context) error {
	userID, appErr := currentUserID(c)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}

	result, appErr := ctl.service.GetSyncStatus(c.Request().Context(), userID)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}
	return c.JSON(http.StatusOK, result)
}

// Disconnect removes the stored credential and every mirrored event.
// DELETE /api/v1/private/nylas/connect
func (ctl *NylasController) Disconnect(c echo.Context) error {
	userID, appErr := currentUserID(c)
	if appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}

	if appErr := ctl.service.Disconnect(c.Request().Context(), userID); appErr != nil {
		return coreController.AppErrorResponse(c, appErr)
	}
	return c.JSON(http.StatusOK, dto.DisconnectResponse{
		Success: true,
		Message: "Calendar disconnected",
	})
}
