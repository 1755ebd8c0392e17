package repository

import (
	"context"

	"calendar-sync-api/core/database"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/modules/webhook/entity"
)

type EventRepository interface {
	// UpsertEvent writes the mirrored event keyed by external event id. The
	// whole row is overwritten on conflict, so out-of-order notifications
	// converge on the last delivery.
	UpsertEvent(ctx context.Context, event *entity.CalendarEvent) error

	// DeleteEventByEventID is a no-op when the row is already absent.
	DeleteEventByEventID(ctx context.Context, eventID string) error

	// DeleteEventsByGrantID removes every mirrored event for a grant, used
	// when the grant is revoked.
	DeleteEventsByGrantID(ctx context.Context, grantID string) error
}

type eventRepository struct {
	db database.Database
}

func NewEventRepository(db database.Database) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) UpsertEvent(ctx context.Context, event *entity.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events
			(id, event_id, user_id, grant_id, calendar_id, title, description, start_time, end_time, location, raw_data, created_at, updated_at)
		VALUES
			(gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (event_id)
		DO UPDATE SET
			user_id = $2, grant_id = $3, calendar_id = $4, title = $5, description = $6,
			start_time = $7, end_time = $8, location = $9, raw_data = $10, updated_at = NOW()
	`
	err := r.db.ExecContext(ctx, query,
		event.EventID, event.UserID, event.GrantID, event.CalendarID,
		event.Title, event.Description, event.StartTime, event.EndTime,
		event.Location, []byte(event.RawData),
	)
	if err != nil {
		logger.Error("EventRepository:UpsertEvent:Error", "error", err, "event_id", event.EventID)
		return err
	}
	return nil
}

func (r *eventRepository) DeleteEventByEventID(ctx context.Context, eventID string) error {
	query := `DELETE FROM calendar_events WHERE event_id = $1`
	if err := r.db.ExecContext(ctx, query, eventID); err != nil {
		logger.Error("EventRepository:DeleteEventByEventID:Error", "error", err, "event_id", eventID)
		return err
	}
	return nil
}

func (r *eventRepository) DeleteEventsByGrantID(ctx context.Context, grantID string) error {
	query := `DELETE FROM calendar_events WHERE grant_id = $1`
	if err := r.db.ExecContext(ctx, query, grantID); err != nil {
		logger.Error("EventRepository:DeleteEventsByGrantID:Error", "error", err, "grant_id", grantID)
		return err
	}
	return nil
}
