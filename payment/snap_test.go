package payment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnap(t *testing.T, handler http.Handler) *Snap {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := &Snap{
		httpClient:   server.Client(),
		baseURL:      server.URL,
		pollInterval: time.Millisecond,
		pollWindow:   50 * time.Millisecond,
		openPage:     func(string) error { return nil },
	}
	s.ready.Store(true)
	return s
}

func statusHandler(t *testing.T, statuses []Result) http.Handler {
	t.Helper()
	var calls int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/transactions/tok-1/status" {
			idx := atomic.AddInt32(&calls, 1) - 1
			if int(idx) >= len(statuses) {
				idx = int32(len(statuses) - 1)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(statuses[idx])
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
}

func TestSnap_PaySuccessFiresOnSuccess(t *testing.T) {
	s := newTestSnap(t, statusHandler(t, []Result{
		{Status: "pending", OrderID: "ORD-1"},
		{Status: "settlement", TransactionID: "TXN1", OrderID: "ORD-1"},
	}))

	var got Result
	done := make(chan struct{})
	s.Pay("tok-1", Callbacks{
		OnSuccess: func(r Result) { got = r; close(done) },
		OnError:   func(err error) { t.Errorf("unexpected error: %v", err) },
		OnClose:   func() { t.Error("unexpected close") },
	})

	select {
	case <-done:
	default:
		t.Fatal("OnSuccess did not fire")
	}
	assert.Equal(t, "TXN1", got.TransactionID)
	assert.Equal(t, "TXN1", got.SettlementID())
}

func TestSnap_PayDenyFiresOnError(t *testing.T) {
	s := newTestSnap(t, statusHandler(t, []Result{{Status: "deny"}}))

	var gotErr error
	s.Pay("tok-1", Callbacks{
		OnError:   func(err error) { gotErr = err },
		OnSuccess: func(Result) { t.Error("unexpected success") },
	})
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "deny")
}

func TestSnap_PayTimeoutWithoutTransactionFiresOnClose(t *testing.T) {
	s := newTestSnap(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	closed := false
	s.Pay("tok-1", Callbacks{
		OnClose:   func() { closed = true },
		OnSuccess: func(Result) { t.Error("unexpected success") },
		OnError:   func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	assert.True(t, closed, "dismissal path must fire OnClose")
}

func TestSnap_PayStuckPendingFiresOnPending(t *testing.T) {
	s := newTestSnap(t, statusHandler(t, []Result{{Status: "pending"}}))

	pending := false
	s.Pay("tok-1", Callbacks{
		OnPending: func(Result) { pending = true },
		OnSuccess: func(Result) { t.Error("unexpected success") },
		OnError:   func(err error) { t.Errorf("unexpected error: %v", err) },
	})
	assert.True(t, pending)
}

func TestSnap_PayRequiresReadiness(t *testing.T) {
	s := &Snap{openPage: func(string) error { return nil }}

	var gotErr error
	s.Pay("tok-1", Callbacks{OnError: func(err error) { gotErr = err }})
	require.Error(t, gotErr)
}

func TestSnap_ReadyRetriesFailedProbe(t *testing.T) {
	var probes int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snap.js" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if atomic.AddInt32(&probes, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	s := NewSnap(server.Client(), server.URL)

	deadline := time.Now().Add(2 * time.Second)
	for !s.Ready() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, s.Ready(), "a failed launch probe must be retried on the next readiness check")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&probes), int32(2))
}

func TestResult_SettlementIDFallsBackToOrderID(t *testing.T) {
	assert.Equal(t, "ORD-9", Result{OrderID: "ORD-9"}.SettlementID())
	assert.Equal(t, "TXN9", Result{TransactionID: "TXN9", OrderID: "ORD-9"}.SettlementID())
}
