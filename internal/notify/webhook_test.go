package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

func TestWebhookChannel_Send(t *testing.T) {
	var gotPayload webhookPayload
	var gotAuth, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(config.HeaderAuthorization)
		gotContentType = r.Header.Get(config.HeaderContentType)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"id":"abc-123"}`))
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "secret-token")

	res := ch.Send(context.Background(), "happy birthday", "family-chat")
	require.True(t, res.Success)
	assert.Equal(t, "abc-123", res.MessageID)
	assert.Equal(t, "family-chat", res.Recipient)

	assert.Equal(t, config.BearerPrefix+"secret-token", gotAuth)
	assert.Equal(t, config.MimeJSON, gotContentType)
	assert.Equal(t, "happy birthday", gotPayload.Text)
	assert.Equal(t, "family-chat", gotPayload.Recipient)
}

func TestWebhookChannel_SendWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(config.HeaderAuthorization)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "")

	res := ch.Send(context.Background(), "hello", "")
	require.True(t, res.Success)
	assert.Empty(t, res.MessageID, "a bodyless success carries no message id")
	assert.Empty(t, gotAuth)
}

func TestWebhookChannel_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"id":"after-retry"}`))
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "")

	res := ch.Send(context.Background(), "hello", "r1")
	require.True(t, res.Success)
	assert.Equal(t, "after-retry", res.MessageID)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestWebhookChannel_ClientErrorIsPermanent(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "")

	res := ch.Send(context.Background(), "hello", "r1")
	require.False(t, res.Success)
	assert.Equal(t, ErrKindSendFailed, res.Kind)
	assert.Error(t, res.Err)
	assert.Equal(t, int32(1), attempts.Load(), "4xx responses must not be retried")
}

func TestWebhookChannel_Available(t *testing.T) {
	assert.True(t, NewWebhookChannel("https://example.com/hook", "").Available())
	assert.False(t, NewWebhookChannel("", "").Available())
}

func TestWebhookChannel_Metadata(t *testing.T) {
	meta := NewWebhookChannel("https://example.com/hook", "").Metadata()
	assert.Equal(t, config.ChannelKindWebhook, meta.Name)
}
