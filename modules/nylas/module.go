package nylas

import (
	"calendar-sync-api/core/cache"
	"calendar-sync-api/core/config"
	"calendar-sync-api/core/database"
	"calendar-sync-api/core/middleware"
	"calendar-sync-api/modules/nylas/controller"
	"calendar-sync-api/modules/nylas/repository"
	"calendar-sync-api/modules/nylas/router"
	"calendar-sync-api/modules/nylas/service"
	eventRepository "calendar-sync-api/modules/webhook/repository"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, cache cache.Cache, mw *middleware.Middleware) {
	cfg := config.Get()

	accountRepo := repository.NewAccountRepository(db)
	eventRepo := eventRepository.NewEventRepository(db)
	providerClient := service.NewNylasClient(cfg.Nylas)
	nylasService := service.NewNylasService(accountRepo, eventRepo, cache, providerClient)
	nylasController := controller.NewNylasController(nylasService)

	router.NewNylasRouter(nylasController, mw).Setup(e)
}
