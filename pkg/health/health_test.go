package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func getStatus(t *testing.T, handler http.HandlerFunc) (int, statusBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body statusBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth_ReadyGate(t *testing.T) {
	h := New()

	code, body := getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body.Status)

	h.SetReady(true)
	code, body = getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(false)
	code, _ = getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealth_FailingReadinessCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("db", time.Second, func(_ context.Context) error {
		return errors.New("connection refused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool {
		code, _ := getStatus(t, h.ReadyEndpoint)
		return code == http.StatusServiceUnavailable
	}, 2*time.Second, 10*time.Millisecond)

	_, body := getStatus(t, h.ReadyEndpoint)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestHealth_CheckRecovery(t *testing.T) {
	h := New()
	h.SetReady(true)

	healthy := make(chan bool, 1)
	healthy <- false
	var current bool
	h.AddReadinessCheck("flaky", time.Second, func(_ context.Context) error {
		select {
		case current = <-healthy:
		default:
		}
		if !current {
			return errors.New("down")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool {
		code, _ := getStatus(t, h.ReadyEndpoint)
		return code == http.StatusServiceUnavailable
	}, 2*time.Second, 10*time.Millisecond)

	healthy <- true
	require.Eventually(t, func() bool {
		code, _ := getStatus(t, h.ReadyEndpoint)
		return code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealth_LivenessGoroutineCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)
	defer h.Stop()

	// More than one goroutine is always running under the test harness.
	require.Eventually(t, func() bool {
		code, _ := getStatus(t, h.LiveEndpoint)
		return code == http.StatusServiceUnavailable
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
