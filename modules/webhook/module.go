package webhook

import (
	"calendar-sync-api/core/config"
	"calendar-sync-api/core/database"
	"calendar-sync-api/core/worker"
	accountRepository "calendar-sync-api/modules/nylas/repository"
	"calendar-sync-api/modules/webhook/controller"
	"calendar-sync-api/modules/webhook/repository"
	"calendar-sync-api/modules/webhook/router"
	"calendar-sync-api/modules/webhook/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, enqueuer worker.Enqueuer) {
	cfg := config.Get()

	eventRepo := repository.NewEventRepository(db)
	accountRepo := accountRepository.NewAccountRepository(db)
	webhookService := service.NewWebhookService(eventRepo, accountRepo, cfg.Nylas.WebhookSecret)
	webhookController := controller.NewWebhookController(webhookService, enqueuer)

	router.NewWebhookRouter(webhookController).Setup(e)
}
