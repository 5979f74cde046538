package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safestreets/safemap/internal/config"
	"github.com/safestreets/safemap/internal/models"
)

func newTestWorker(webhookURL, secret string) (*Worker, *logrustest.Hook) {
	logger, hook := logrustest.NewNullLogger()
	cfg := &config.Config{
		AlertWebhookURL:     webhookURL,
		AlertWebhookSecret:  secret,
		AlertWebhookTimeout: time.Second,
		AlertMaxRetries:     3,
		AlertBaseDelay:      time.Millisecond,
	}
	return NewWorker(nil, logger, cfg), hook
}

func testEvent(t *testing.T) (IncidentEvent, string) {
	event := IncidentEvent{
		Incident: &models.Incident{
			ID:       1,
			Type:     "Harassment",
			Location: "Oxford Street",
			Postcode: "W1C 1JH",
		},
		ReportedAt: time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return event, string(payload)
}

func TestDeliver_SignsPayload(t *testing.T) {
	event, payload := testEvent(t)

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, payload, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, signHMACSHA256(payload, "s3cret"), r.Header.Get("X-Alert-Signature"))
	}))
	defer srv.Close()

	w, _ := newTestWorker(srv.URL, "s3cret")
	w.deliver(context.Background(), event, payload)

	assert.Equal(t, 1, attempts)
}

func TestDeliver_NoSignatureWithoutSecret(t *testing.T) {
	event, payload := testEvent(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Alert-Signature"))
	}))
	defer srv.Close()

	w, _ := newTestWorker(srv.URL, "")
	w.deliver(context.Background(), event, payload)
}

func TestDeliver_RetriesUntilExhausted(t *testing.T) {
	event, payload := testEvent(t)

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w, _ := newTestWorker(srv.URL, "s3cret")
	w.deliver(context.Background(), event, payload)

	assert.Equal(t, 3, attempts)
}

func TestDeliver_SucceedsAfterRetry(t *testing.T) {
	event, payload := testEvent(t)

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}))
	defer srv.Close()

	w, _ := newTestWorker(srv.URL, "s3cret")
	w.deliver(context.Background(), event, payload)

	assert.Equal(t, 2, attempts)
}

func TestDeliver_SkipsWhenURLNotConfigured(t *testing.T) {
	event, payload := testEvent(t)

	w, hook := newTestWorker("", "s3cret")
	w.deliver(context.Background(), event, payload)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "Skipping delivery")
}

func TestDeliver_BadURLAbortsWithoutRetrying(t *testing.T) {
	event, payload := testEvent(t)

	w, hook := newTestWorker(":", "s3cret")
	w.deliver(context.Background(), event, payload)

	var errorEntries []logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorEntries = append(errorEntries, *e)
		}
	}
	require.Len(t, errorEntries, 1)
	assert.Equal(t, "Failed to create alert request", errorEntries[0].Message)
}

func TestSignHMACSHA256(t *testing.T) {
	// Fixed vector so a webhook consumer can verify its own implementation.
	assert.Equal(t,
		"d5d644dccc0b0763243db8acd3c44bab4adda9a2511ed24f2ba86379ff0f8a66",
		signHMACSHA256(`{"hello":"world"}`, "s3cret"),
	)
}
