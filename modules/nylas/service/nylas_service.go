package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"

	"calendar-sync-api/core/cache"
	"calendar-sync-api/core/config"
	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/errors"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/core/utils"
	"calendar-sync-api/modules/nylas/dto"
	"calendar-sync-api/modules/nylas/entity"
	"calendar-sync-api/modules/nylas/repository"
	eventRepo "calendar-sync-api/modules/webhook/repository"

	"github.com/google/uuid"
)

type NylasService interface {
	// GetConnectURL builds the provider authorization URL with a fresh
	// anti-CSRF state bound to the calling user.
	GetConnectURL(ctx context.Context, userID uuid.UUID) (*dto.ConnectResponse, *errors.AppError)

	// HandleCallback runs the redirect state machine and returns the URL the
	// browser should land on. Outcomes: success, error, security-error
	// (ErrStateMismatch). The stored state is consumed before anything else,
	// so a replayed callback always fails the state check.
	HandleCallback(ctx context.Context, code, state, providerErr string) (string, *errors.AppError)

	// ExchangeCode trades the authorization code for an access token and
	// upserts the caller's account credential. Provider rejections are
	// returned as *ProviderAPIError for body passthrough.
	ExchangeCode(ctx context.Context, userID uuid.UUID, code string) (*dto.ExchangeResponse, error)

	// ListCalendars returns the provider's calendar list for the caller's
	// stored grant. Absence of a stored account is ErrNotFound ("Calendar
	// not connected"); provider failures are *ProviderAPIError.
	ListCalendars(ctx context.Context, userID uuid.UUID) (*dto.CalendarsResponse, error)

	// GetSyncStatus maps the listing outcome onto the discrete UI states.
	GetSyncStatus(ctx context.Context, userID uuid.UUID) (*dto.SyncStatusResponse, *errors.AppError)

	// Disconnect removes the caller's account and its mirrored events,
	// events first.
	Disconnect(ctx context.Context, userID uuid.UUID) *errors.AppError
}

type nylasService struct {
	accounts repository.AccountRepository
	events   eventRepo.EventRepository
	cache    cache.Cache
	client   ProviderClient
}

func NewNylasService(
	accounts repository.AccountRepository,
	events eventRepo.EventRepository,
	cache cache.Cache,
	client ProviderClient,
) NylasService {
	return &nylasService{
		accounts: accounts,
		events:   events,
		cache:    cache,
		client:   client,
	}
}

func providerConfigured() *errors.AppError {
	cfg, ok := config.GetSafe()
	if !ok {
		return errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}
	if cfg.Nylas.ClientID == "" || cfg.Nylas.ClientSecret == "" || cfg.Nylas.CallbackURI == "" {
		return errors.NewAppError(errors.ErrInternalServer, "Calendar provider configuration is missing", nil)
	}
	return nil
}

func (s *nylasService) GetConnectURL(ctx context.Context, userID uuid.UUID) (*dto.ConnectResponse, *errors.AppError) {
	if appErr := providerConfigured(); appErr != nil {
		return nil, appErr
	}

	state := utils.GenerateRandomString(constants.OAuthStateLength)
	if err := s.cache.SaveOAuthState(ctx, state, userID.String()); err != nil {
		logger.Error("NylasService:GetConnectURL:SaveOAuthState:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store state token", err)
	}

	authURL := s.client.AuthCodeURL(state)
	logger.Info("NylasService:GetConnectURL:StateStored", "user_id", userID)

	return &dto.ConnectResponse{URL: authURL, State: state}, nil
}

func (s *nylasService) HandleCallback(ctx context.Context, code, state, providerErr string) (string, *errors.AppError) {
	// Consume the state first. After this call the stored value is gone no
	// matter which branch we take below.
	boundUser, err := s.cache.TakeOAuthState(ctx, state)
	if err != nil {
		logger.Error("NylasService:HandleCallback:TakeOAuthState:Error", "error", err)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to validate state token", err)
	}
	if boundUser == "" {
		logger.Warn("NylasService:HandleCallback:StateMismatch", "state", state)
		return "", errors.NewAppError(errors.ErrStateMismatch, "Invalid OAuth state", nil)
	}

	if providerErr != "" {
		return "", errors.NewAppError(errors.ErrProviderError, providerErr, nil)
	}

	if code == "" {
		return "", errors.NewAppError(errors.ErrInvalidInput, "No code received", nil)
	}

	userID, parseErr := uuid.Parse(boundUser)
	if parseErr != nil {
		return "", errors.NewAppError(errors.ErrUnauthorized, "Authentication required", parseErr)
	}

	if _, exchangeErr := s.ExchangeCode(ctx, userID, code); exchangeErr != nil {
		var apiErr *ProviderAPIError
		if stderrors.As(exchangeErr, &apiErr) {
			return "", errors.NewAppError(errors.ErrProviderError, string(apiErr.Body), apiErr)
		}
		if appErr, ok := exchangeErr.(*errors.AppError); ok {
			return "", appErr
		}
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to exchange authorization code", exchangeErr)
	}

	cfg := config.Get()
	return cfg.App.FrontendURL + "/calendar?sync=success", nil
}

// CallbackErrorURL builds the frontend landing URL for a failed callback.
func CallbackErrorURL(appErr *errors.AppError) string {
	cfg, ok := config.GetSafe()
	base := "/calendar"
	if ok {
		base = cfg.App.FrontendURL + "/calendar"
	}
	params := url.Values{}
	params.Set("sync", "error")
	params.Set("code", string(appErr.Code))
	params.Set("message", appErr.Message)
	return base + "?" + params.Encode()
}

func (s *nylasService) ExchangeCode(ctx context.Context, userID uuid.UUID, code string) (*dto.ExchangeResponse, error) {
	if code == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Missing authorization code", nil)
	}
	if appErr := providerConfigured(); appErr != nil {
		return nil, appErr
	}

	token, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		var apiErr *ProviderAPIError
		if stderrors.As(err, &apiErr) {
			return nil, apiErr
		}
		logger.Error("NylasService:ExchangeCode:Exchange:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrProviderError, "failed to exchange authorization code", err)
	}

	if token.GrantID == "" {
		logger.Error("NylasService:ExchangeCode:NoGrantID", "user_id", userID)
		return nil, errors.NewAppError(errors.ErrProviderError, "provider response missing grant id", nil)
	}

	account := &entity.NylasAccount{
		UserID:         userID,
		GrantID:        token.GrantID,
		AccessToken:    token.AccessToken,
		TokenExpiresAt: token.ExpiresAt,
	}
	if _, err := s.accounts.UpsertAccount(ctx, account); err != nil {
		logger.Error("NylasService:ExchangeCode:UpsertAccount:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store account credential", err)
	}

	logger.Info("NylasService:ExchangeCode:Connected",
		"user_id", userID,
		"grant_id", token.GrantID,
		"has_expiry", token.ExpiresAt != nil)

	return &dto.ExchangeResponse{Success: true, AccountID: token.GrantID}, nil
}

func (s *nylasService) ListCalendars(ctx context.Context, userID uuid.UUID) (*dto.CalendarsResponse, error) {
	account, err := s.accounts.GetAccountByUserID(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load account credential", err)
	}
	if account == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Calendar not connected", nil)
	}

	calendars, err := s.client.ListCalendars(ctx, account.GrantID, account.AccessToken)
	if err != nil {
		// ProviderAPIError passes through to the caller with status and body
		return nil, err
	}

	return &dto.CalendarsResponse{
		Success:   true,
		Calendars: calendars,
		AccountID: account.GrantID,
	}, nil
}

func (s *nylasService) GetSyncStatus(ctx context.Context, userID uuid.UUID) (*dto.SyncStatusResponse, *errors.AppError) {
	result, err := s.ListCalendars(ctx, userID)
	if err == nil {
		count := calendarCount(result)
		return &dto.SyncStatusResponse{
			Status:        dto.StatusConnected,
			AccountID:     result.AccountID,
			CalendarCount: count,
		}, nil
	}

	if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.ErrNotFound {
		return &dto.SyncStatusResponse{Status: dto.StatusDisconnected}, nil
	}

	logger.Error("NylasService:GetSyncStatus:Error", "error", err, "user_id", userID)
	return &dto.SyncStatusResponse{
		Status:  dto.StatusError,
		Message: "Failed to reach calendar provider",
	}, nil
}

func (s *nylasService) Disconnect(ctx context.Context, userID uuid.UUID) *errors.AppError {
	account, err := s.accounts.GetAccountByUserID(ctx, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load account credential", err)
	}
	if account == nil {
		return errors.NewAppError(errors.ErrNotFound, "Calendar not connected", nil)
	}

	// Events first, then the account, mirroring grant revocation
	if err := s.events.DeleteEventsByGrantID(ctx, account.GrantID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete mirrored events", err)
	}
	if err := s.accounts.DeleteAccountByUserID(ctx, userID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete account credential", err)
	}

	logger.Info("NylasService:Disconnect:Done", "user_id", userID, "grant_id", account.GrantID)
	return nil
}

func calendarCount(result *dto.CalendarsResponse) int {
	if result == nil || len(result.Calendars) == 0 {
		return 0
	}
	var items []json.RawMessage
	if err := json.Unmarshal(result.Calendars, &items); err != nil {
		return 0
	}
	return len(items)
}
