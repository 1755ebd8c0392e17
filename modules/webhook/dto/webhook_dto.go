package dto

import "encoding/json"

// Notification is the provider's webhook envelope. Object is kept raw so the
// stored payload is byte-identical to what the provider sent.
type Notification struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

type NotificationData struct {
	Object json.RawMessage `json:"object"`
}

// EventObject is the event payload inside event.* notifications. Timestamps
// are provider-supplied epoch seconds; zero means absent.
type EventObject struct {
	ID          string    `json:"id"`
	GrantID     string    `json:"grant_id"`
	CalendarID  string    `json:"calendar_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	When        EventWhen `json:"when"`
}

type EventWhen struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

// GrantObject is the payload inside grant.* notifications. Some provider
// versions put the grant identifier in grant_id, others in id.
type GrantObject struct {
	ID      string `json:"id"`
	GrantID string `json:"grant_id"`
}

func (g GrantObject) Grant() string {
	if g.GrantID != "" {
		return g.GrantID
	}
	return g.ID
}

type WebhookResponse struct {
	Success bool `json:"success"`
}
