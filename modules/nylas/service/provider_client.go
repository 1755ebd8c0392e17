package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"calendar-sync-api/core/config"
	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/logger"

	"golang.org/x/oauth2"
)

// GrantToken is the result of an authorization-code exchange. ExpiresAt is nil
// when the provider omits expires_in.
type GrantToken struct {
	AccessToken string
	GrantID     string
	ExpiresAt   *time.Time
}

// ProviderAPIError carries a non-OK provider response so callers can pass the
// status and body through untouched.
type ProviderAPIError struct {
	StatusCode int
	Body       []byte
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider API error: status %d: %s", e.StatusCode, string(e.Body))
}

// ProviderClient is the outbound surface to the external calendar provider.
type ProviderClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*GrantToken, error)
	ListCalendars(ctx context.Context, grantID, accessToken string) (json.RawMessage, error)
}

type nylasClient struct {
	cfg    config.NylasConfig
	oauth  *oauth2.Config
	client *http.Client
}

func NewNylasClient(cfg config.NylasConfig) ProviderClient {
	return &nylasClient{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURI,
			Scopes: []string{
				"calendar",
				"email.read_only",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.APIBase + "/v3/connect/auth",
				TokenURL: cfg.APIBase + "/v3/connect/token",
			},
		},
		client: &http.Client{Timeout: constants.ProviderTimeout},
	}
}

func (c *nylasClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode performs the authorization-code grant. Provider rejections are
// returned as ProviderAPIError with the original response body.
func (c *nylasClient) ExchangeCode(ctx context.Context, code string) (*GrantToken, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			logger.Error("NylasClient:ExchangeCode:ProviderError",
				"status", retrieveErr.Response.StatusCode,
				"body", string(retrieveErr.Body))
			return nil, &ProviderAPIError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       retrieveErr.Body,
			}
		}
		logger.Error("NylasClient:ExchangeCode:Error", "error", err)
		return nil, err
	}

	grantID, _ := token.Extra("grant_id").(string)

	result := &GrantToken{
		AccessToken: token.AccessToken,
		GrantID:     grantID,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		result.ExpiresAt = &expiry
	}
	return result, nil
}

// ListCalendars fetches the calendar list for a grant. Non-OK responses are
// surfaced as ProviderAPIError for status/body passthrough.
func (c *nylasClient) ListCalendars(ctx context.Context, grantID, accessToken string) (json.RawMessage, error) {
	apiURL := fmt.Sprintf("%s/v3/grants/%s/calendars", c.cfg.APIBase, grantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("NylasClient:ListCalendars:Error", "error", err, "grant_id", grantID)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("NylasClient:ListCalendars:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, &ProviderAPIError{StatusCode: resp.StatusCode, Body: body}
	}

	// Nylas wraps the list in a data envelope
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse calendar list: %w", err)
	}
	if envelope.Data == nil {
		return json.RawMessage(body), nil
	}
	return envelope.Data, nil
}
