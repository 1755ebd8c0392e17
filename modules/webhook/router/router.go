package router

import (
	"calendar-sync-api/modules/webhook/controller"

	"github.com/labstack/echo/v4"
)

type WebhookRouter struct {
	controller *controller.WebhookController
}

func NewWebhookRouter(controller *controller.WebhookController) *WebhookRouter {
	return &WebhookRouter{controller: controller}
}

func (r *WebhookRouter) Setup(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	// Webhooks are unauthenticated; POSTs are gated by signature verification
	webhookRoutes := v1.Group("/public/webhooks")
	webhookRoutes.GET("/nylas", r.controller.HandleChallenge)
	webhookRoutes.POST("/nylas", r.controller.HandleNotification)
}
