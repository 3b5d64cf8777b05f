// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

/*
client.go - Remote Location Service Client

Endpoints:

	POST {base}/location               submit one record
	GET  {base}/location?userId={id}   full history for a user

Every request carries the bearer token fetched from the identity provider
for that call, plus X-Amz-Date, X-Amz-User-Id, X-Amz-User-Sub and
X-Request-ID headers.
*/

package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trackline/internal/identity"
	"github.com/tomtom215/trackline/internal/logging"
	"github.com/tomtom215/trackline/internal/metrics"
	"github.com/tomtom215/trackline/internal/models"
)

// Operation names used in errors and metrics.
const (
	OpSubmit       = "submit"
	OpFetchHistory = "fetch_history"
)

// amzDateLayout is the X-Amz-Date header format.
const amzDateLayout = "20060102T150405Z"

// maxHistoryBody bounds a history response.
const maxHistoryBody = 32 << 20

// LocationClient talks to the remote location service. Both operations make
// exactly one HTTP call and never retry.
type LocationClient interface {
	Submit(ctx context.Context, record models.LocationRecord) error
	FetchHistory(ctx context.Context, owner string) ([]models.LocationRecord, error)
}

var _ LocationClient = (*HTTPClient)(nil)

// ClientConfig configures HTTPClient.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
	RateBurst int

	// HTTPClient overrides the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// HTTPClient is the LocationClient for the REST location service.
type HTTPClient struct {
	baseURL    string
	identity   identity.Provider
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewHTTPClient creates a client. Tokens come from id on every call.
func NewHTTPClient(cfg ClientConfig, id identity.Provider) *HTTPClient {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &HTTPClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		identity:   id,
		httpClient: hc,
		limiter:    limiter,
		now:        time.Now,
	}
}

// Submit posts one record. Any 2xx is an acknowledgement.
func (c *HTTPClient) Submit(ctx context.Context, record models.LocationRecord) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRemoteRequest(OpSubmit, resultLabel(err), time.Since(start)) }()

	token, userID, err := c.credentials(ctx, OpSubmit, record.UserID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return &SyncError{Kind: KindServerRejected, Op: OpSubmit, Err: fmt.Errorf("encode record: %w", err)}
	}

	resp, err := c.do(ctx, OpSubmit, http.MethodPost, c.baseURL+"/location", bytes.NewReader(body), token, userID)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(OpSubmit, resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	logging.Ctx(ctx).Debug().
		Str("owner", logging.RedactOwner(record.OwnerIdentity)).
		Str("inserted_at", record.InsertedAt).
		Int("status", resp.StatusCode).
		Msg("Location submitted")
	return nil
}

// FetchHistory returns every record the service holds for the user. The user
// ID comes from the identity provider and falls back to owner. Timestamps are
// normalized to the canonical layout. On any failure no records are returned.
func (c *HTTPClient) FetchHistory(ctx context.Context, owner string) (records []models.LocationRecord, err error) {
	start := time.Now()
	defer func() { metrics.RecordRemoteRequest(OpFetchHistory, resultLabel(err), time.Since(start)) }()

	token, userID, err := c.credentials(ctx, OpFetchHistory, owner)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/location?userId=" + url.QueryEscape(userID)
	resp, err := c.do(ctx, OpFetchHistory, http.MethodGet, endpoint, nil, token, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(OpFetchHistory, resp); err != nil {
		return nil, err
	}

	var out []models.LocationRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHistoryBody)).Decode(&out); err != nil {
		return nil, &SyncError{
			Kind:       KindServerRejected,
			Op:         OpFetchHistory,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode history: %w", err),
		}
	}
	for i := range out {
		out[i].InsertedAt = models.NormalizeTimestamp(out[i].InsertedAt)
	}

	logging.Ctx(ctx).Debug().Str("user_id", logging.RedactUserID(userID)).Int("records", len(out)).Msg("History fetched")
	return out, nil
}

// credentials fetches the token and resolves the user ID, falling back to
// fallbackID when the provider has none.
func (c *HTTPClient) credentials(ctx context.Context, op, fallbackID string) (token, userID string, err error) {
	if c.baseURL == "" {
		return "", "", &SyncError{Kind: KindNetwork, Op: op, Err: ErrNotConfigured}
	}

	token, err = c.identity.Token(ctx)
	if err != nil {
		return "", "", &SyncError{Kind: KindUnauthenticated, Op: op, Err: err}
	}

	userID, uidErr := c.identity.UserID(ctx)
	if uidErr != nil || userID == "" {
		if uidErr != nil && !errors.Is(uidErr, identity.ErrNoUserID) {
			logging.Ctx(ctx).Debug().Err(uidErr).Msg("User ID lookup failed, using fallback")
		}
		userID = fallbackID
	}
	return token, userID, nil
}

// do builds and sends one request. Transport failures become KindNetwork.
func (c *HTTPClient) do(ctx context.Context, op, method, endpoint string, body io.Reader, token, userID string) (*http.Response, error) {
	if c.limiter != nil {
		if c.limiter.Tokens() < 1 {
			metrics.RemoteRateLimitWaits.WithLabelValues(op).Inc()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &SyncError{Kind: KindNetwork, Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &SyncError{Kind: KindNetwork, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	req.Header.Set("Authorization", token)
	req.Header.Set("X-Amz-Date", c.now().UTC().Format(amzDateLayout))
	if userID != "" {
		req.Header.Set("X-Amz-User-Id", userID)
		req.Header.Set("X-Amz-User-Sub", userID)
	}
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SyncError{Kind: KindNetwork, Op: op, Err: err}
	}
	return resp, nil
}

// checkStatus returns nil for 2xx and a classified error otherwise.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &SyncError{
		Kind:       kindForStatus(resp.StatusCode),
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       truncateBody(body),
	}
}
