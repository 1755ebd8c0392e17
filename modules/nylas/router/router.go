package router

import (
	"calendar-sync-api/core/middleware"
	"calendar-sync-api/modules/nylas/controller"

	"github.com/labstack/echo/v4"
)

type NylasRouter struct {
	controller *controller.NylasController
	middleware *middleware.Middleware
}

func NewNylasRouter(controller *controller.NylasController, middleware *middleware.Middleware) *NylasRouter {
	return &NylasRouter{controller: controller, middleware: middleware}
}

func (r *NylasRouter) Setup(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	// The callback is hit by a browser redirect from the provider; no bearer
	// token is available there
	publicRoutes := v1.Group("/public/nylas")
	publicRoutes.GET("/callback", r.controller.Callback)

	privateRoutes := v1.Group("/private/nylas", r.middleware.AuthMiddleware())
	privateRoutes.GET("/connect", r.controller.Connect)
	privateRoutes.DELETE("/connect", r.controller.Disconnect)
	privateRoutes.POST("/exchange", r.controller.Exchange)
	privateRoutes.GET("/calendars", r.controller.Calendars)
	privateRoutes.GET("/status", r.controller.Status)
}
