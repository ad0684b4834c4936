package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitLogAPI/internal/store"
	"fitLogAPI/services"
)

var webhookKey = []byte("clerk-webhook-signing-key")

func signedRequest(t *testing.T, body string, at time.Time, key []byte) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(at.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clerk", bytes.NewBufferString(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", "v1,bm90LWl0 v1,"+signWebhook(key, "msg_1", ts, []byte(body)))
	return req
}

func newSignedWebhook(st *store.MemStore) *WebhookHandler {
	secret := "whsec_" + base64.StdEncoding.EncodeToString(webhookKey)
	return NewWebhookHandler(services.NewUserService(st), secret)
}

const userCreated = `{
	"type": "user.created",
	"object": "event",
	"data": {
		"id": "user_abc",
		"first_name": "Test",
		"last_name": "User",
		"primary_email_address_id": "idn_2",
		"email_addresses": [
			{"id": "idn_1", "email_address": "old@example.com"},
			{"id": "idn_2", "email_address": "test@example.com"}
		]
	}
}`

func TestWebhookCreatesUpdatesAndDeletesUser(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	h := newSignedWebhook(st)
	now := time.Now()

	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedRequest(t, userCreated, now, webhookKey))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := st.GetUserByClerkID(ctx, "user_abc")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", u.Email)
	assert.Equal(t, "Test", u.FirstName)

	updated := `{"type": "user.updated", "data": {"id": "user_abc", "first_name": "Renamed", "email_addresses": []}}`
	rec = httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedRequest(t, updated, now, webhookKey))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err = st.GetUserByClerkID(ctx, "user_abc")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.FirstName)
	assert.Equal(t, "test@example.com", u.Email)

	deleted := `{"type": "user.deleted", "data": {"id": "user_abc"}}`
	rec = httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedRequest(t, deleted, now, webhookKey))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = st.GetUserByClerkID(ctx, "user_abc")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// a repeated delete is not an error
	rec = httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedRequest(t, deleted, now, webhookKey))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookUpdateForMissingUserCreatesIt(t *testing.T) {
	st := store.NewMemStore()
	h := newSignedWebhook(st)

	updated := `{"type": "user.updated", "data": {"id": "user_late", "first_name": "Late", "email_addresses": [{"id": "e1", "email_address": "late@example.com"}]}}`
	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedRequest(t, updated, time.Now(), webhookKey))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := st.GetUserByClerkID(context.Background(), "user_late")
	require.NoError(t, err)
	assert.Equal(t, "late@example.com", u.Email)
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	st := store.NewMemStore()
	h := newSignedWebhook(st)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"wrong key", signedRequest(t, userCreated, time.Now(), []byte("other-key"))},
		{"stale timestamp", signedRequest(t, userCreated, time.Now().Add(-10*time.Minute), webhookKey)},
		{"no headers", httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clerk", bytes.NewBufferString(userCreated))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleClerkWebhook(rec, tt.req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	_, err := st.GetUserByClerkID(context.Background(), "user_abc")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWebhookTamperedBody(t *testing.T) {
	h := newSignedWebhook(store.NewMemStore())

	req := signedRequest(t, userCreated, time.Now(), webhookKey)
	req.Body = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"type": "user.deleted", "data": {"id": "user_abc"}}`)).Body

	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
