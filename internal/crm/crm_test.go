package crm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbeam/leadsite/internal/outbound"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSign_Deterministic(t *testing.T) {
	t.Parallel()

	body := []byte(`{"type":"contact.created"}`)
	sig := Sign("secret", 1736600000, body)

	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Sign("secret", 1736600000, body))
	assert.NotEqual(t, sig, Sign("secret", 1736600001, body))
	assert.NotEqual(t, sig, Sign("secretx", 1736600000, body))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	now := time.Unix(1736600000, 0)
	body := []byte(`{"test":"data"}`)
	ts := now.Unix()
	valid := Sign("s", ts, body)

	assert.NoError(t, Verify("s", valid, ts, body, now, DefaultReplayWindow))
	assert.ErrorIs(t, Verify("s", "bogus", ts, body, now, DefaultReplayWindow), ErrInvalidSignature)
	assert.ErrorIs(t, Verify("s", valid, ts, body, now.Add(10*time.Minute), DefaultReplayWindow), ErrReplayWindowExceeded)
	assert.ErrorIs(t, Verify("s", valid, ts, body, now.Add(-10*time.Minute), DefaultReplayWindow), ErrReplayWindowExceeded)
}

func TestClient_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	c, err := New("", "", true, discard)
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Send(context.Background(), EventContactCreated, map[string]string{"a": "b"}))

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestClient_RejectsUnsafeTarget(t *testing.T) {
	t.Parallel()

	_, err := New("http://localhost:9000/hook", "s", true, discard)
	assert.ErrorIs(t, err, outbound.ErrInvalidScheme)

	_, err = New("https://localhost/hook", "s", true, discard)
	assert.ErrorIs(t, err, outbound.ErrLocalhostBlocked)
}

func TestClient_SendSignsEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var (
		gotHeader http.Header
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "topsecret", false, discard,
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	err = c.Send(context.Background(), EventContactCreated, map[string]string{"email": "a@b.co"})
	require.NoError(t, err)

	ts, err := strconv.ParseInt(gotHeader.Get(HeaderTimestamp), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), ts)
	assert.NoError(t, Verify("topsecret", gotHeader.Get(HeaderSignature), ts, gotBody, now, DefaultReplayWindow))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))

	var event Event
	require.NoError(t, json.Unmarshal(gotBody, &event))
	assert.Equal(t, EventContactCreated, event.Type)
	assert.Equal(t, gotHeader.Get(HeaderEventID), event.ID)
	assert.True(t, event.OccurredAt.Equal(now))
}

func TestClient_SendNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "s", false, discard, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = c.Send(context.Background(), EventToolSubmitted, nil)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}
