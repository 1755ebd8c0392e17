package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"calendar-sync-api/core/entity"
)

// CalendarEvent is a denormalized mirror of a provider-side event. The
// external event id is the dedup key: repeated notifications overwrite the
// row wholesale instead of duplicating it.
type CalendarEvent struct {
	entity.BaseEntity
	EventID     string          `db:"event_id" json:"event_id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	GrantID     string          `db:"grant_id" json:"grant_id"`
	CalendarID  string          `db:"calendar_id" json:"calendar_id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	StartTime   *time.Time      `db:"start_time" json:"start_time"`
	EndTime     *time.Time      `db:"end_time" json:"end_time"`
	Location    string          `db:"location" json:"location"`
	RawData     json.RawMessage `db:"raw_data" json:"raw_data"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}
