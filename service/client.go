package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinix-cli/model"
)

const (
	apiBaseURL         = "https://cinix-be.vercel.app"
	defaultUserAgent   = "cinix-cli/1.0"
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond

	minSearchLen = 2
)

// Client wraps HTTP access to the Cinix backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "cinix api error"
	}
	return fmt.Sprintf("cinix api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsUnauthorized reports whether the error represents a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// NewClient creates a new API client. If httpClient is nil, a default
// client with a cookie jar is used; the jar carries the session cookie
// issued at login.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: 12 * time.Second, Jar: jar}
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     apiBaseURL,
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
	}
}

// SetBaseURL overrides the backend address, typically from CINIX_API_URL.
func (c *Client) SetBaseURL(base string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base != "" {
		c.baseURL = base
	}
}

// GetMovies returns the full catalog.
func (c *Client) GetMovies(ctx context.Context) ([]model.Movie, error) {
	endpoint := fmt.Sprintf("%s/movies", c.baseURL)

	var movies []model.Movie
	if err := c.getPayload(ctx, endpoint, &movies); err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, errors.New("no movies found")
	}
	return movies, nil
}

// GetMovie fetches one movie by id.
func (c *Client) GetMovie(ctx context.Context, movieID string) (model.Movie, error) {
	if movieID == "" {
		return model.Movie{}, errors.New("movie id is required")
	}
	endpoint := fmt.Sprintf("%s/movies/%s", c.baseURL, url.PathEscape(movieID))

	var movie model.Movie
	if err := c.getPayload(ctx, endpoint, &movie); err != nil {
		return model.Movie{}, err
	}
	if movie.ID == "" {
		return model.Movie{}, errors.New("movie not found")
	}
	return movie, nil
}

// SearchMovies queries the catalog by title. Queries shorter than two
// characters are rejected before any request is made.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLen {
		return nil, fmt.Errorf("search query must have at least %d characters", minSearchLen)
	}
	endpoint := fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query))

	var movies []model.Movie
	if err := c.getPayload(ctx, endpoint, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetSchedules fetches the screenings of a movie.
func (c *Client) GetSchedules(ctx context.Context, movieID string) ([]model.Schedule, error) {
	if movieID == "" {
		return nil, errors.New("movie id is required")
	}
	endpoint := fmt.Sprintf("%s/schedules/movie/%s", c.baseURL, url.PathEscape(movieID))

	var schedules []model.Schedule
	if err := c.getPayload(ctx, endpoint, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// GetSchedule fetches one schedule, resolving its studio.
func (c *Client) GetSchedule(ctx context.Context, scheduleID string) (model.Schedule, error) {
	if scheduleID == "" {
		return model.Schedule{}, errors.New("schedule id is required")
	}
	endpoint := fmt.Sprintf("%s/schedules/%s", c.baseURL, url.PathEscape(scheduleID))

	var schedule model.Schedule
	if err := c.getPayload(ctx, endpoint, &schedule); err != nil {
		return model.Schedule{}, err
	}
	return schedule, nil
}

// GetStudioSeats fetches the seat inventory for a studio.
func (c *Client) GetStudioSeats(ctx context.Context, studioID string) ([]model.StudioSeat, error) {
	if studioID == "" {
		return nil, errors.New("studio id is required")
	}
	endpoint := fmt.Sprintf("%s/studios/%s/seats", c.baseURL, url.PathEscape(studioID))

	var seats []model.StudioSeat
	if err := c.getPayload(ctx, endpoint, &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

// CreatePaymentIntent submits the order and returns the widget token.
// The request is never retried: a timeout here is ambiguous and retrying
// could charge twice.
func (c *Client) CreatePaymentIntent(ctx context.Context, scheduleID string, seats []string, amount int64) (model.PaymentIntent, error) {
	if scheduleID == "" || len(seats) == 0 {
		return model.PaymentIntent{}, errors.New("schedule id and seats are required")
	}
	if amount <= 0 {
		return model.PaymentIntent{}, errors.New("amount must be positive")
	}

	form := url.Values{}
	form.Set("schedule_id", scheduleID)
	form.Set("seats", strings.Join(seats, ","))
	form.Set("amount", strconv.FormatInt(amount, 10))

	endpoint := fmt.Sprintf("%s/payment", c.baseURL)
	raw, err := c.submitForm(ctx, http.MethodPost, endpoint, form, "")
	if err != nil {
		return model.PaymentIntent{}, err
	}

	var intent model.PaymentIntent
	if err := decodePayload(raw, &intent); err != nil {
		return model.PaymentIntent{}, fmt.Errorf("decode payment response: %w", err)
	}
	if intent.Token == "" && intent.RedirectURL == "" {
		return model.PaymentIntent{}, errors.New("payment response missing token")
	}
	return intent, nil
}

// Login authenticates and returns the user profile. The session cookie
// lands in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, errors.New("email and password are required")
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	endpoint := fmt.Sprintf("%s/login", c.baseURL)
	raw, err := c.submitForm(ctx, http.MethodPost, endpoint, form, "")
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := decodePayload(raw, &user); err != nil {
		return model.User{}, fmt.Errorf("decode login response: %w", err)
	}
	if user.Email == "" {
		user.Email = email
	}
	return user, nil
}

// Logout drops the server-side session. Local state is the caller's job.
func (c *Client) Logout(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/logout", c.baseURL)
	_, err := c.submitForm(ctx, http.MethodDelete, endpoint, nil, "")
	return err
}

// getPayload performs a retried GET and decodes the body, unwrapping an
// optional {"data": ...} envelope.
func (c *Client) getPayload(ctx context.Context, endpoint string, out any) error {
	var raw json.RawMessage
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := decodePayload(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

// submitForm sends a single form-encoded request. Non-GET requests are
// not idempotent against this backend, so there is no retry loop here.
func (c *Client) submitForm(ctx context.Context, method, endpoint string, form url.Values, bearer string) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
		return nil, &APIError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}
	return json.RawMessage(raw), nil
}

// decodePayload unmarshals raw into out, preferring the contents of a
// {"data": ...} envelope when one is present.
func decodePayload(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err == nil {
			return nil
		}
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
