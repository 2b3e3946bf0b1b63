package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instadm-io/instadm-backend/internal/handler"
	"github.com/instadm-io/instadm-backend/internal/model"
	"github.com/instadm-io/instadm-backend/internal/service"
)

type mockEngine struct {
	comments  []model.CommentEvent
	messaging []model.MessagingEvent
	err       error
}

func (m *mockEngine) HandleCommentEvent(event model.CommentEvent) (*service.EventResult, error) {
	m.comments = append(m.comments, event)
	if m.err != nil {
		return nil, m.err
	}
	return &service.EventResult{Processed: true}, nil
}

func (m *mockEngine) HandleMessagingEvent(event model.MessagingEvent) (*service.EventResult, error) {
	m.messaging = append(m.messaging, event)
	if m.err != nil {
		return nil, m.err
	}
	return &service.EventResult{Processed: true}, nil
}

type mockSettingsRepo struct {
	values map[string]string
}

func (m *mockSettingsRepo) Get(key string) (string, error) {
	return m.values[key], nil
}
func (m *mockSettingsRepo) Set(key, value string) error { return nil }
func (m *mockSettingsRepo) ProcessedCommentStatus(commentID string) (string, error) {
	return "", nil
}
func (m *mockSettingsRepo) MarkCommentProcessed(commentID, status string) error { return nil }

type mockWebhookLogRepo struct {
	appended int
}

func (m *mockWebhookLogRepo) Append(eventType, payload string, processed bool, result string) error {
	m.appended++
	return nil
}
func (m *mockWebhookLogRepo) List(limit int) ([]model.WebhookLog, error) { return nil, nil }

func newHandler(engine *mockEngine) (*handler.WebhookHandler, *mockWebhookLogRepo) {
	logs := &mockWebhookLogRepo{}
	return &handler.WebhookHandler{
		Engine:              engine,
		SettingsRepo:        &mockSettingsRepo{values: map[string]string{}},
		WebhookLogRepo:      logs,
		VerifyTokenFallback: "verify-me",
	}, logs
}

func TestVerifyHandshake(t *testing.T) {
	h, _ := newHandler(&mockEngine{})

	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyRejectsBadToken(t *testing.T) {
	h, _ := newHandler(&mockEngine{})

	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyPrefersStoredToken(t *testing.T) {
	engine := &mockEngine{}
	h, _ := newHandler(engine)
	h.SettingsRepo = &mockSettingsRepo{values: map[string]string{
		"webhook_verify_token": "rotated",
	}}

	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=rotated&hub.challenge=x", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=x", nil)
	rec = httptest.NewRecorder()
	h.Verify(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

const commentDelivery = `{
	"object": "instagram",
	"entry": [{
		"id": "acct",
		"time": 1693000000,
		"changes": [
			{"field": "comments", "value": {"id": "c-1", "text": "가격 문의", "from": {"id": "u1", "username": "ann"}, "media": {"id": "m-1"}}},
			{"field": "mentions", "value": {"id": "c-9"}}
		],
		"messaging": [
			{"sender": {"id": "u1"}, "recipient": {"id": "acct"}, "postback": {"payload": "FOLLOW_RECHECK"}}
		]
	}]
}`

func TestReceiveFansOutEvents(t *testing.T) {
	engine := &mockEngine{}
	h, logs := newHandler(engine)

	req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(commentDelivery))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EVENT_RECEIVED", rec.Body.String())

	require.Len(t, engine.comments, 1)
	assert.Equal(t, "c-1", engine.comments[0].ID)
	assert.Equal(t, "ann", engine.comments[0].From.Username)

	require.Len(t, engine.messaging, 1)
	assert.Equal(t, "FOLLOW_RECHECK", engine.messaging[0].TriggerPayload())

	assert.Equal(t, 1, logs.appended)
}

func TestReceiveAcksEngineFailures(t *testing.T) {
	engine := &mockEngine{err: assert.AnError}
	h, _ := newHandler(engine)

	req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(commentDelivery))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "EVENT_RECEIVED", rec.Body.String())
}

func TestReceiveAcksUnparseablePayload(t *testing.T) {
	engine := &mockEngine{}
	h, logs := newHandler(engine)

	req := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, engine.comments)
	assert.Equal(t, 1, logs.appended)
}
