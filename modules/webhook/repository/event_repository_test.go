package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"calendar-sync-api/core/database"
	"calendar-sync-api/modules/webhook/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (EventRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewEventRepository(database.NewFromSQLx(sqlxDB)), mock
}

func TestUpsertEvent(t *testing.T) {
	repo, mock := newMockRepo(t)

	userID := uuid.New()
	start := time.Unix(1756380000, 0).UTC()
	end := time.Unix(1756383600, 0).UTC()
	raw := json.RawMessage(`{"id":"evt_1"}`)

	mock.ExpectExec("INSERT INTO calendar_events").
		WithArgs("evt_1", userID, "grant_1", "cal_1", "Intake session", "", &start, &end, "Room 2", []byte(raw)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertEvent(context.Background(), &entity.CalendarEvent{
		EventID:    "evt_1",
		UserID:     userID,
		GrantID:    "grant_1",
		CalendarID: "cal_1",
		Title:      "Intake session",
		StartTime:  &start,
		EndTime:    &end,
		Location:   "Room 2",
		RawData:    raw,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventByEventID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM calendar_events").
		WithArgs("evt_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteEventByEventID(context.Background(), "evt_1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventsByGrantID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM calendar_events").
		WithArgs("grant_1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteEventsByGrantID(context.Background(), "grant_1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
