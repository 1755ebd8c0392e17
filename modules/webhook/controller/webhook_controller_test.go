package controller

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"calendar-sync-api/core/constants"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookService struct {
	verifyResult  bool
	verifiedBody  []byte
	processedBody []byte
	returnedType  string
}

func (s *stubWebhookService) VerifySignature(rawBody []byte, _ string) bool {
	s.verifiedBody = rawBody
	return s.verifyResult
}

func (s *stubWebhookService) ProcessNotification(_ context.Context, rawBody []byte) string {
	s.processedBody = rawBody
	return s.returnedType
}

type stubEnqueuer struct {
	enqueuedType string
	enqueuedBody []byte
}

func (s *stubEnqueuer) EnqueueWebhookArchive(_ context.Context, notificationType string, rawBody []byte) error {
	s.enqueuedType = notificationType
	s.enqueuedBody = rawBody
	return nil
}

func (s *stubEnqueuer) Close() error { return nil }

func newContext(method, target string, body []byte) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleChallengeEchoesVerbatim(t *testing.T) {
	ctl := NewWebhookController(&stubWebhookService{}, nil)

	c, rec := newContext(http.MethodGet, "/api/v1/public/webhooks/nylas?challenge=abc123xyz", nil)
	require.NoError(t, ctl.HandleChallenge(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123xyz", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")
}

func TestHandleChallengeMissingParam(t *testing.T) {
	ctl := NewWebhookController(&stubWebhookService{}, nil)

	c, rec := newContext(http.MethodGet, "/api/v1/public/webhooks/nylas", nil)
	require.NoError(t, ctl.HandleChallenge(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNotificationMissingSignature(t *testing.T) {
	svc := &stubWebhookService{verifyResult: true}
	ctl := NewWebhookController(svc, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/public/webhooks/nylas", []byte(`{"type":"event.created"}`))
	require.NoError(t, ctl.HandleNotification(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.processedBody)
}

func TestHandleNotificationBadSignature(t *testing.T) {
	svc := &stubWebhookService{verifyResult: false}
	ctl := NewWebhookController(svc, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/public/webhooks/nylas", []byte(`{"type":"event.created"}`))
	c.Request().Header.Set(constants.NylasSignatureHeader, "deadbeef")
	require.NoError(t, ctl.HandleNotification(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Nothing may be processed before the signature checks out
	assert.Nil(t, svc.processedBody)
}

func TestHandleNotificationSuccess(t *testing.T) {
	body := []byte(`{"type":"event.created","data":{"object":{"id":"evt_1"}}}`)
	svc := &stubWebhookService{verifyResult: true, returnedType: "event.created"}
	enq := &stubEnqueuer{}
	ctl := NewWebhookController(svc, enq)

	c, rec := newContext(http.MethodPost, "/api/v1/public/webhooks/nylas", body)
	c.Request().Header.Set(constants.NylasSignatureHeader, "deadbeef")
	require.NoError(t, ctl.HandleNotification(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	// The service and the archive both get the exact bytes on the wire
	assert.Equal(t, body, svc.verifiedBody)
	assert.Equal(t, body, svc.processedBody)
	assert.Equal(t, "event.created", enq.enqueuedType)
	assert.Equal(t, body, enq.enqueuedBody)
}

func TestHandleNotificationWithoutEnqueuer(t *testing.T) {
	svc := &stubWebhookService{verifyResult: true, returnedType: "event.created"}
	ctl := NewWebhookController(svc, nil)

	c, rec := newContext(http.MethodPost, "/api/v1/public/webhooks/nylas", []byte(`{"type":"event.created"}`))
	c.Request().Header.Set(constants.NylasSignatureHeader, "deadbeef")
	require.NoError(t, ctl.HandleNotification(c))

	assert.Equal(t, http.StatusOK, rec.Code)
}
