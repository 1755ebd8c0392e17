package constants

import "time"

// Timeouts
const (
	DefaultTimeout  = 10 * time.Second
	ProviderTimeout = 30 * time.Second
)

// Database pool settings
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// OAuth state tokens are single-use and short-lived
const (
	OAuthStateLength = 32
	OAuthStateTTL    = 10 * time.Minute
)

// Redis key prefixes
const (
	RedisKeyOAuthState = "oauth_state:"
)

// Token scopes
const (
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"
)

// Asynq task types
const (
	TaskWebhookArchive = "webhook:archive"
)

// Webhook notification types sent by the calendar provider
const (
	WebhookEventCreated = "event.created"
	WebhookEventUpdated = "event.updated"
	WebhookEventDeleted = "event.deleted"
	WebhookGrantCreated = "grant.created"
	WebhookGrantDeleted = "grant.deleted"
)

// NylasSignatureHeader carries the HMAC-SHA256 hex digest of the raw request body
const NylasSignatureHeader = "X-Nylas-Signature"
