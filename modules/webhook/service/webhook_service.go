package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/logger"
	accountRepo "calendar-sync-api/modules/nylas/repository"
	"calendar-sync-api/modules/webhook/dto"
	"calendar-sync-api/modules/webhook/entity"
	"calendar-sync-api/modules/webhook/repository"
)

type WebhookService interface {
	// VerifySignature checks the HMAC-SHA256 hex digest of the exact raw
	// request bytes. Signatures over a re-serialized body will not match,
	// so callers must pass the bytes as received.
	VerifySignature(rawBody []byte, signature string) bool

	// ProcessNotification parses the body and dispatches on type. Per-event
	// failures are logged and swallowed so the provider never sees a failure
	// and retry-storms a single bad row. Returns the notification type for
	// archival.
	ProcessNotification(ctx context.Context, rawBody []byte) string
}

type webhookService struct {
	events        repository.EventRepository
	accounts      accountRepo.AccountRepository
	webhookSecret string
}

func NewWebhookService(
	events repository.EventRepository,
	accounts accountRepo.AccountRepository,
	webhookSecret string,
) WebhookService {
	return &webhookService{
		events:        events,
		accounts:      accounts,
		webhookSecret: webhookSecret,
	}
}

func (s *webhookService) VerifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *webhookService) ProcessNotification(ctx context.Context, rawBody []byte) string {
	var notification dto.Notification
	if err := json.Unmarshal(rawBody, &notification); err != nil {
		logger.Error("WebhookService:ProcessNotification:ParseError", "error", err)
		return ""
	}

	switch notification.Type {
	case constants.WebhookEventCreated, constants.WebhookEventUpdated:
		s.handleEventUpsert(ctx, notification)
	case constants.WebhookEventDeleted:
		s.handleEventDelete(ctx, notification)
	case constants.WebhookGrantCreated:
		s.handleGrantCreated(notification)
	case constants.WebhookGrantDeleted:
		s.handleGrantDeleted(ctx, notification)
	default:
		logger.Info("WebhookService:ProcessNotification:UnknownType", "type", notification.Type)
	}

	return notification.Type
}

func (s *webhookService) handleEventUpsert(ctx context.Context, notification dto.Notification) {
	var obj dto.EventObject
	if err := json.Unmarshal(notification.Data.Object, &obj); err != nil {
		logger.Error("WebhookService:EventUpsert:ParseObject:Error", "error", err, "type", notification.Type)
		return
	}
	if obj.ID == "" {
		logger.Warn("WebhookService:EventUpsert:MissingEventID", "type", notification.Type)
		return
	}

	account, err := s.accounts.GetAccountByGrantID(ctx, obj.GrantID)
	if err != nil {
		logger.Error("WebhookService:EventUpsert:GetAccount:Error", "error", err, "grant_id", obj.GrantID)
		return
	}
	if account == nil {
		// The webhook may arrive after the account was deleted; benign
		logger.Info("WebhookService:EventUpsert:NoAccount", "grant_id", obj.GrantID, "event_id", obj.ID)
		return
	}

	event := &entity.CalendarEvent{
		EventID:     obj.ID,
		UserID:      account.UserID,
		GrantID:     obj.GrantID,
		CalendarID:  obj.CalendarID,
		Title:       obj.Title,
		Description: obj.Description,
		StartTime:   epochToTime(obj.When.StartTime),
		EndTime:     epochToTime(obj.When.EndTime),
		Location:    obj.Location,
		RawData:     notification.Data.Object,
	}

	if err := s.events.UpsertEvent(ctx, event); err != nil {
		logger.Error("WebhookService:EventUpsert:Upsert:Error", "error", err, "event_id", obj.ID)
		return
	}
	logger.Info("WebhookService:EventUpsert:Stored", "event_id", obj.ID, "type", notification.Type)
}

func (s *webhookService) handleEventDelete(ctx context.Context, notification dto.Notification) {
	var obj dto.EventObject
	if err := json.Unmarshal(notification.Data.Object, &obj); err != nil {
		logger.Error("WebhookService:EventDelete:ParseObject:Error", "error", err)
		return
	}
	if obj.ID == "" {
		logger.Warn("WebhookService:EventDelete:MissingEventID")
		return
	}

	if err := s.events.DeleteEventByEventID(ctx, obj.ID); err != nil {
		logger.Error("WebhookService:EventDelete:Delete:Error", "error", err, "event_id", obj.ID)
		return
	}
	logger.Info("WebhookService:EventDelete:Done", "event_id", obj.ID)
}

func (s *webhookService) handleGrantCreated(notification dto.Notification) {
	var obj dto.GrantObject
	if err := json.Unmarshal(notification.Data.Object, &obj); err != nil {
		logger.Error("WebhookService:GrantCreated:ParseObject:Error", "error", err)
		return
	}
	logger.Info("WebhookService:GrantCreated", "grant_id", obj.Grant())
}

func (s *webhookService) handleGrantDeleted(ctx context.Context, notification dto.Notification) {
	var obj dto.GrantObject
	if err := json.Unmarshal(notification.Data.Object, &obj); err != nil {
		logger.Error("WebhookService:GrantDeleted:ParseObject:Error", "error", err)
		return
	}
	grantID := obj.Grant()
	if grantID == "" {
		logger.Warn("WebhookService:GrantDeleted:MissingGrantID")
		return
	}

	// Events before the account, so there is no window where events
	// reference a deleted account
	if err := s.events.DeleteEventsByGrantID(ctx, grantID); err != nil {
		logger.Error("WebhookService:GrantDeleted:DeleteEvents:Error", "error", err, "grant_id", grantID)
		return
	}
	if err := s.accounts.DeleteAccountByGrantID(ctx, grantID); err != nil {
		logger.Error("WebhookService:GrantDeleted:DeleteAccount:Error", "error", err, "grant_id", grantID)
		return
	}
	logger.Info("WebhookService:GrantDeleted:Done", "grant_id", grantID)
}

func epochToTime(epoch int64) *time.Time {
	if epoch == 0 {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}
