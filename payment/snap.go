package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultSnapBaseURL  = "https://app.sandbox.midtrans.com/snap"
	defaultPollInterval = 3 * time.Second
	defaultPollWindow   = 6 * time.Minute
)

// Snap adapts the Midtrans Snap widget for the terminal: Pay opens the
// hosted payment page in the browser and polls the transaction status
// until it resolves. Loading happens in the background; Ready reports
// whether the provider answered the initial probe.
type Snap struct {
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	pollWindow   time.Duration
	openPage     func(string) error
	ready        atomic.Bool
	probing      atomic.Bool
}

// NewSnap creates the adapter and starts the background load. A nil
// httpClient uses a default with a short timeout; an empty baseURL uses
// the sandbox environment.
func NewSnap(httpClient *http.Client, baseURL string) *Snap {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultSnapBaseURL
	}
	s := &Snap{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: defaultPollInterval,
		pollWindow:   defaultPollWindow,
		openPage:     openBrowser,
	}
	s.probing.Store(true)
	go s.load()
	return s
}

// Ready reports whether the provider finished loading. A false answer
// retries the probe in the background, so a launch-time network hiccup
// does not refuse checkout for the whole session.
func (s *Snap) Ready() bool {
	if s.ready.Load() {
		return true
	}
	if s.probing.CompareAndSwap(false, true) {
		go s.load()
	}
	return false
}

// Pay opens the hosted payment page for the token and watches the
// transaction until settlement, rejection, or the poll window closes.
// Exactly one callback fires.
func (s *Snap) Pay(token string, cb Callbacks) {
	if !s.ready.Load() {
		invokeError(cb, errors.New("payment widget is not loaded"))
		return
	}
	if strings.TrimSpace(token) == "" {
		invokeError(cb, errors.New("payment token is empty"))
		return
	}

	page := fmt.Sprintf("%s/v2/vtweb/%s", s.baseURL, url.PathEscape(token))
	if err := s.openPage(page); err != nil {
		invokeError(cb, fmt.Errorf("open payment page: %w", err))
		return
	}

	deadline := time.Now().Add(s.pollWindow)
	sawPending := false
	for time.Now().Before(deadline) {
		result, ok, err := s.pollStatus(token)
		if err == nil && ok {
			switch strings.ToLower(result.Status) {
			case "settlement", "capture":
				invokeSuccess(cb, result)
				return
			case "pending":
				sawPending = true
			case "deny", "cancel", "expire", "failure":
				invokeError(cb, fmt.Errorf("payment %s", strings.ToLower(result.Status)))
				return
			}
		}
		time.Sleep(s.pollInterval)
	}

	if sawPending {
		invokePending(cb, Result{})
		return
	}
	invokeClose(cb)
}

// load probes the provider so Pay can require readiness without a
// promise-style signal.
func (s *Snap) load() {
	defer s.probing.Store(false)
	res, err := s.httpClient.Get(s.baseURL + "/snap.js")
	if err != nil {
		return
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<10))
	if res.StatusCode < http.StatusInternalServerError {
		s.ready.Store(true)
	}
}

func (s *Snap) pollStatus(token string) (Result, bool, error) {
	endpoint := fmt.Sprintf("%s/v1/transactions/%s/status", s.baseURL, url.PathEscape(token))
	res, err := s.httpClient.Get(endpoint)
	if err != nil {
		return Result{}, false, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// no transaction yet: the user has not picked a method
		return Result{}, false, nil
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return Result{}, false, fmt.Errorf("status endpoint returned %s", res.Status)
	}

	var result Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return Result{}, false, err
	}
	return result, result.Status != "", nil
}

func invokeSuccess(cb Callbacks, result Result) {
	if cb.OnSuccess != nil {
		cb.OnSuccess(result)
	}
}

func invokePending(cb Callbacks, result Result) {
	if cb.OnPending != nil {
		cb.OnPending(result)
	}
}

func invokeError(cb Callbacks, err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

func invokeClose(cb Callbacks) {
	if cb.OnClose != nil {
		cb.OnClose()
	}
}

func openBrowser(pageURL string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", pageURL).Start()
	case "linux":
		return exec.Command("xdg-open", pageURL).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", pageURL).Start()
	default:
		return fmt.Errorf("unsupported OS for opening browser: %s", runtime.GOOS)
	}
}
