package dto

import "encoding/json"

// ConnectResponse carries the provider authorization URL and the anti-CSRF
// state bound to it.
type ConnectResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type ExchangeRequest struct {
	Code string `json:"code"`
}

type ExchangeResponse struct {
	Success   bool   `json:"success"`
	AccountID string `json:"account_id"`
}

// CalendarsResponse returns the provider's calendar list untouched.
type CalendarsResponse struct {
	Success   bool            `json:"success"`
	Calendars json.RawMessage `json:"calendars"`
	AccountID string          `json:"account_id"`
}

// Sync status values the UI renders. "Connecting" is a client-side in-flight
// state and never reported by the server.
const (
	StatusDisconnected = "disconnected"
	StatusConnected    = "connected"
	StatusError        = "error"
)

type SyncStatusResponse struct {
	Status        string `json:"status"`
	AccountID     string `json:"account_id,omitempty"`
	CalendarCount int    `json:"calendar_count"`
	Message       string `json:"message,omitempty"`
}

type DisconnectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
