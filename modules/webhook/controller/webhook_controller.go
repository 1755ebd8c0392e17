package controller

import (
	"io"
	"net/http"

	coreController "calendar-sync-api/core/controller"
	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/errors"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/core/worker"
	"calendar-sync-api/modules/webhook/dto"
	"calendar-sync-api/modules/webhook/service"

	"github.com/labstack/echo/v4"
)

type WebhookController struct {
	service  service.WebhookService
	enqueuer worker.Enqueuer // nil when archiving is disabled
}

func NewWebhookController(service service.WebhookService, enqueuer worker.Enqueuer) *WebhookController {
	return &WebhookController{service: service, enqueuer: enqueuer}
}

// HandleChallenge answers the provider's handshake.
// GET /api/v1/public/webhooks/nylas?challenge=...
func (c *WebhookController) HandleChallenge(ctx echo.Context) error {
	challenge := ctx.QueryParam("challenge")
	if challenge == "" {
		return coreController.JSONError(ctx, http.StatusBadRequest,
			errors.NewAppError(errors.ErrInvalidInput, "Missing challenge parameter", nil))
	}
	// The provider expects the value echoed back verbatim
	return ctx.String(http.StatusOK, challenge)
}

// HandleNotification receives signed event notifications.
// POST /api/v1/public/webhooks/nylas
func (c *WebhookController) HandleNotification(ctx echo.Context) error {
	// The signature covers the exact bytes on the wire, so the body must be
	// captured before any parsing
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return coreController.JSONError(ctx, http.StatusBadRequest,
			errors.NewAppError(errors.ErrInvalidRequestData, "Failed to read request body", err))
	}

	signature := ctx.Request().Header.Get(constants.NylasSignatureHeader)
	if signature == "" {
		return coreController.JSONError(ctx, http.StatusBadRequest,
			errors.NewAppError(errors.ErrInvalidRequestData, "Missing signature header", nil))
	}

	if !c.service.VerifySignature(rawBody, signature) {
		logger.Warn("WebhookController:HandleNotification:InvalidSignature")
		return coreController.JSONError(ctx, http.StatusUnauthorized,
			errors.NewAppError(errors.ErrUnauthorized, "Invalid signature", nil))
	}

	notificationType := c.service.ProcessNotification(ctx.Request().Context(), rawBody)

	if c.enqueuer != nil && notificationType != "" {
		if err := c.enqueuer.EnqueueWebhookArchive(ctx.Request().Context(), notificationType, rawBody); err != nil {
			// Archival is best-effort and never affects the response
			logger.Error("WebhookController:HandleNotification:Archive:Error", "error", err)
		}
	}

	// Once the signature checks out the provider always gets a success, so
	// a single bad row cannot trigger a retry storm
	return ctx.JSON(http.StatusOK, dto.WebhookResponse{Success: true})
}
