package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	nylasEntity "calendar-sync-api/modules/nylas/entity"
	"calendar-sync-api/modules/webhook/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	ops           *[]string
	upserted      []*entity.CalendarEvent
	deletedIDs    []string
	deletedGrants []string
}

func (f *fakeEventRepo) UpsertEvent(_ context.Context, event *entity.CalendarEvent) error {
	f.upserted = append(f.upserted, event)
	return nil
}

func (f *fakeEventRepo) DeleteEventByEventID(_ context.Context, eventID string) error {
	f.deletedIDs = append(f.deletedIDs, eventID)
	return nil
}

func (f *fakeEventRepo) DeleteEventsByGrantID(_ context.Context, grantID string) error {
	f.deletedGrants = append(f.deletedGrants, grantID)
	if f.ops != nil {
		*f.ops = append(*f.ops, "delete_events")
	}
	return nil
}

type fakeAccountRepo struct {
	ops           *[]string
	byGrant       map[string]*nylasEntity.NylasAccount
	deletedGrants []string
}

func (f *fakeAccountRepo) UpsertAccount(_ context.Context, account *nylasEntity.NylasAccount) (*nylasEntity.NylasAccount, error) {
	return account, nil
}

func (f *fakeAccountRepo) GetAccountByUserID(_ context.Context, _ uuid.UUID) (*nylasEntity.NylasAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) GetAccountByGrantID(_ context.Context, grantID string) (*nylasEntity.NylasAccount, error) {
	return f.byGrant[grantID], nil
}

func (f *fakeAccountRepo) DeleteAccountByGrantID(_ context.Context, grantID string) error {
	f.deletedGrants = append(f.deletedGrants, grantID)
	if f.ops != nil {
		*f.ops = append(*f.ops, "delete_account")
	}
	return nil
}

func (f *fakeAccountRepo) DeleteAccountByUserID(_ context.Context, _ uuid.UUID) error {
	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := NewWebhookService(&fakeEventRepo{}, &fakeAccountRepo{}, "topsecret")

	body := []byte(`{"type":"event.created","data":{"object":{"id":"evt_1"}}}`)
	assert.True(t, svc.VerifySignature(body, sign("topsecret", body)))
	assert.False(t, svc.VerifySignature(body, sign("wrongsecret", body)))
	assert.False(t, svc.VerifySignature(body, "not-a-signature"))
}

func TestVerifySignatureIsByteExact(t *testing.T) {
	svc := NewWebhookService(&fakeEventRepo{}, &fakeAccountRepo{}, "topsecret")

	// Signing then re-serializing changes whitespace/key order and must fail
	raw := []byte(`{"type": "event.created", "data": {"object": {"id": "evt_1"}}}`)
	signature := sign("topsecret", raw)

	var roundTripped map[string]any
	require.NoError(t, json.Unmarshal(raw, &roundTripped))
	reserialized, err := json.Marshal(roundTripped)
	require.NoError(t, err)

	assert.True(t, svc.VerifySignature(raw, signature))
	assert.False(t, svc.VerifySignature(reserialized, signature))
}

func TestProcessNotificationStoresEvent(t *testing.T) {
	userID := uuid.New()
	events := &fakeEventRepo{}
	accounts := &fakeAccountRepo{byGrant: map[string]*nylasEntity.NylasAccount{
		"grant_1": {UserID: userID, GrantID: "grant_1"},
	}}
	svc := NewWebhookService(events, accounts, "s")

	object := `{"id":"evt_1","grant_id":"grant_1","calendar_id":"cal_1","title":"Intake session","location":"Room 2","when":{"start_time":1756380000,"end_time":1756383600}}`
	body := []byte(fmt.Sprintf(`{"type":"event.created","data":{"object":%s}}`, object))

	notifType := svc.ProcessNotification(context.Background(), body)
	assert.Equal(t, "event.created", notifType)

	require.Len(t, events.upserted, 1)
	stored := events.upserted[0]
	assert.Equal(t, "evt_1", stored.EventID)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, "grant_1", stored.GrantID)
	assert.Equal(t, "cal_1", stored.CalendarID)
	assert.Equal(t, "Intake session", stored.Title)
	assert.Equal(t, "Room 2", stored.Location)
	require.NotNil(t, stored.StartTime)
	assert.Equal(t, time.Unix(1756380000, 0).UTC(), *stored.StartTime)
	require.NotNil(t, stored.EndTime)
	assert.JSONEq(t, object, string(stored.RawData))
}

func TestProcessNotificationUpdateOverwrites(t *testing.T) {
	userID := uuid.New()
	events := &fakeEventRepo{}
	accounts := &fakeAccountRepo{byGrant: map[string]*nylasEntity.NylasAccount{
		"grant_1": {UserID: userID, GrantID: "grant_1"},
	}}
	svc := NewWebhookService(events, accounts, "s")

	created := []byte(`{"type":"event.created","data":{"object":{"id":"evt_1","grant_id":"grant_1","title":"Before"}}}`)
	updated := []byte(`{"type":"event.updated","data":{"object":{"id":"evt_1","grant_id":"grant_1","title":"After"}}}`)

	svc.ProcessNotification(context.Background(), created)
	svc.ProcessNotification(context.Background(), updated)

	require.Len(t, events.upserted, 2)
	assert.Equal(t, "evt_1", events.upserted[1].EventID)
	assert.Equal(t, "After", events.upserted[1].Title)
}

func TestProcessNotificationUnknownGrantIsNoOp(t *testing.T) {
	events := &fakeEventRepo{}
	svc := NewWebhookService(events, &fakeAccountRepo{byGrant: map[string]*nylasEntity.NylasAccount{}}, "s")

	body := []byte(`{"type":"event.created","data":{"object":{"id":"evt_1","grant_id":"grant_gone"}}}`)
	notifType := svc.ProcessNotification(context.Background(), body)

	assert.Equal(t, "event.created", notifType)
	assert.Empty(t, events.upserted)
}

func TestProcessNotificationDeletesEvent(t *testing.T) {
	events := &fakeEventRepo{}
	svc := NewWebhookService(events, &fakeAccountRepo{}, "s")

	body := []byte(`{"type":"event.deleted","data":{"object":{"id":"evt_1"}}}`)
	svc.ProcessNotification(context.Background(), body)
	// Deleting an already-absent event is the same call and still fine
	svc.ProcessNotification(context.Background(), body)

	assert.Equal(t, []string{"evt_1", "evt_1"}, events.deletedIDs)
}

func TestProcessNotificationGrantDeletedCascades(t *testing.T) {
	var ops []string
	events := &fakeEventRepo{ops: &ops}
	accounts := &fakeAccountRepo{ops: &ops, byGrant: map[string]*nylasEntity.NylasAccount{}}
	svc := NewWebhookService(events, accounts, "s")

	body := []byte(`{"type":"grant.deleted","data":{"object":{"grant_id":"grant_1"}}}`)
	svc.ProcessNotification(context.Background(), body)

	assert.Equal(t, []string{"grant_1"}, events.deletedGrants)
	assert.Equal(t, []string{"grant_1"}, accounts.deletedGrants)
	assert.Equal(t, []string{"delete_events", "delete_account"}, ops)
}

func TestProcessNotificationGrantIDFallsBackToObjectID(t *testing.T) {
	events := &fakeEventRepo{}
	accounts := &fakeAccountRepo{byGrant: map[string]*nylasEntity.NylasAccount{}}
	svc := NewWebhookService(events, accounts, "s")

	body := []byte(`{"type":"grant.deleted","data":{"object":{"id":"grant_1"}}}`)
	svc.ProcessNotification(context.Background(), body)

	assert.Equal(t, []string{"grant_1"}, accounts.deletedGrants)
}

func TestProcessNotificationUnknownTypeAndMalformedBody(t *testing.T) {
	events := &fakeEventRepo{}
	svc := NewWebhookService(events, &fakeAccountRepo{}, "s")

	assert.Equal(t, "contact.updated",
		svc.ProcessNotification(context.Background(), []byte(`{"type":"contact.updated","data":{"object":{}}}`)))
	assert.Equal(t, "",
		svc.ProcessNotification(context.Background(), []byte(`not json at all`)))
	assert.Empty(t, events.upserted)
}
