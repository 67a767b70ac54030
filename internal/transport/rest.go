// Package transport implements the request engine: request identity,
// response caching, in-flight deduplication, retry, and error
// normalization around a REST transport call.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/paylink-dev/paylink-go/internal/types"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// Options for the REST transport.
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	Headers      map[string]string
	RetryConfig  *types.RetryConfig
	CacheEnabled bool
	CacheTTL     time.Duration
	Logger       types.Logger
	Hooks        *types.Hooks
	Clock        types.Clock
	Metrics      *MetricsCollector
}

// RESTTransport orchestrates the request pipeline: compute identity,
// consult the response cache for reads, join or own the in-flight
// entry, issue the retried transport call, then cache on success or
// normalize on terminal failure.
type RESTTransport struct {
	baseURL      string
	retryClient  *retryablehttp.Client
	headers      map[string]string
	session      *types.Session
	cache        Cache
	dedup        *Deduplicator
	cacheEnabled bool
	cacheTTL     time.Duration
	logger       types.Logger
	hooks        *types.Hooks
	now          types.Clock
	metrics      *MetricsCollector
}

// envelope is the uniform wire shape every endpoint responds with.
type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// NewRESTTransport creates a REST transport.
func NewRESTTransport(opts *Options) *RESTTransport {
	if opts == nil {
		opts = &Options{}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	retryCfg := opts.RetryConfig
	if retryCfg == nil {
		retryCfg = &types.RetryConfig{
			MaxRetries: types.DefaultRetryAttempts,
			BaseDelay:  types.DefaultRetryBaseDelay,
		}
	}
	if retryCfg.BaseDelay <= 0 {
		retryCfg.BaseDelay = types.DefaultRetryBaseDelay
	}
	if retryCfg.MaxDelay <= 0 {
		retryCfg.MaxDelay = time.Hour
	}

	var retryLog retryablehttp.LeveledLogger
	if opts.Logger != nil {
		retryLog = &retryLogger{logger: opts.Logger}
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = types.DefaultCacheTTL
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &RESTTransport{
		baseURL:      opts.BaseURL,
		retryClient:  newRetryClient(opts.HTTPClient, retryCfg.MaxRetries, retryCfg.BaseDelay, retryCfg.MaxDelay, retryLog),
		headers:      headers,
		cache:        NewInMemoryCache(opts.Clock),
		dedup:        NewDeduplicator(),
		cacheEnabled: opts.CacheEnabled,
		cacheTTL:     cacheTTL,
		logger:       opts.Logger,
		hooks:        opts.Hooks,
		now:          opts.Clock,
		metrics:      opts.Metrics,
	}
}

// RequestIdentity derives the deterministic key used for both caching
// and deduplication. url.Values.Encode sorts keys, so two logically
// identical requests always map to the same identity.
func RequestIdentity(method, path string, query url.Values) string {
	return method + " " + path + "?" + query.Encode()
}

// Get executes a read through the full pipeline. Concurrent calls with
// the same identity share one physical request; a fresh payload
// refreshes the cache entry's TTL window.
func (t *RESTTransport) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	key := RequestIdentity(http.MethodGet, path, query)

	if t.cacheEnabled {
		if entry, ok := t.cache.Get(key); ok {
			t.metrics.RecordCacheHit(path)
			return decode(entry.Payload, out)
		}
		t.metrics.RecordCacheMiss(path)
	}

	entry, owner := t.dedup.GetOrCreate(key)
	if !owner {
		t.metrics.RecordDedupJoin(path)
		payload, err := entry.Wait(ctx)
		if err != nil {
			return err
		}
		return decode(payload, out)
	}

	payload, err := t.do(ctx, http.MethodGet, path, query, nil)
	if err == nil && t.cacheEnabled {
		t.cache.Set(key, payload, t.cacheTTL)
	}
	t.dedup.Complete(key, payload, err)

	if err != nil {
		return err
	}
	return decode(payload, out)
}

// Post executes a write. Writes are never cached or deduplicated.
func (t *RESTTransport) Post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := t.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return decode(payload, out)
}

// SetAuth sets the bearer token sent on subsequent requests.
func (t *RESTTransport) SetAuth(token string) {
	if t.session == nil {
		t.session = &types.Session{}
	}
	t.session.Token = token
}

// SetSession sets the session. A nil session clears authentication.
func (t *RESTTransport) SetSession(session *types.Session) {
	t.session = session
}

// ClearCache drops every cached payload. Called on any explicit
// cache-busting refresh.
func (t *RESTTransport) ClearCache() {
	t.cache.Clear()
}

// Reset drops cache and in-flight state. Called on logout so a new
// session cannot observe the previous user's payloads; waiters still
// joined to an in-flight entry are released with a normalized error.
func (t *RESTTransport) Reset() {
	t.cache.Clear()
	t.dedup.Clear(&types.Error{
		Message:   "session closed",
		ErrorCode: "SESSION_CLOSED",
		Timestamp: t.now(),
		Err:       types.ErrNotAuthenticated,
	})
}

// do issues one logical request through the retry layer and returns the
// decoded envelope data, or a normalized error.
func (t *RESTTransport) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	if t.session != nil && t.session.Token != "" &&
		!t.session.ExpiresAt.IsZero() && t.now().After(t.session.ExpiresAt) {
		return nil, &types.Error{
			Message:   "session expired",
			ErrorCode: "SESSION_EXPIRED",
			Timestamp: t.now(),
			Err:       types.ErrSessionExpired,
		}
	}

	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	if t.session != nil && t.session.Token != "" {
		httpReq.Header.Set(authHeaderKey, "Bearer "+t.session.Token)
	}
	if t.session != nil && t.session.DeviceUUID != "" {
		httpReq.Header.Set("device-uuid", t.session.DeviceUUID)
	}

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, httpReq)
	}

	if t.logger != nil {
		t.logger.Debug("API request", "method", method, "path", path)
	}

	retryReq, err := retryablehttp.FromRequest(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build retryable request")
	}

	start := time.Now()
	resp, err := t.retryClient.Do(retryReq)
	duration := time.Since(start)

	if err != nil {
		normalized := t.normalizeTransportError(ctx, err)
		t.metrics.RecordError(method, path, normalized.ErrorCode)
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, normalized)
		}
		return nil, normalized
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		normalized := t.normalizeTransportError(ctx, errors.Wrap(err, "failed to read response"))
		t.metrics.RecordError(method, path, normalized.ErrorCode)
		return nil, normalized
	}

	if t.logger != nil {
		t.logger.Debug("API response", "status", resp.StatusCode, "duration", duration, "size", len(respBody))
	}

	t.metrics.RecordRequest(method, path, resp.StatusCode, duration)

	if resp.StatusCode >= 400 {
		normalized := t.normalizeHTTPError(resp.StatusCode, respBody)
		t.metrics.RecordError(method, path, normalized.ErrorCode)
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, normalized)
		}
		return nil, normalized
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &types.Error{
			Message:   "failed to parse response",
			ErrorCode: "INVALID_RESPONSE",
			Timestamp: t.now(),
			Err:       err,
		}
	}

	if !env.Success {
		normalized := t.normalizeEnvelope(&env, resp.StatusCode)
		t.metrics.RecordError(method, path, normalized.ErrorCode)
		return nil, normalized
	}

	return env.Data, nil
}

// normalizeTransportError converts a failure with no usable response
// into the uniform error shape.
func (t *RESTTransport) normalizeTransportError(ctx context.Context, err error) *types.Error {
	message := "network error"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}

	code := "NETWORK_ERROR"
	if ctx.Err() != nil {
		code = "REQUEST_CANCELLED"
	}

	return &types.Error{
		Message:   message,
		ErrorCode: code,
		Timestamp: t.now(),
		Err:       err,
	}
}

// normalizeHTTPError converts a non-2xx response into the uniform
// error shape. A structured error envelope in the body is passed
// through so the server-authored message and code survive.
func (t *RESTTransport) normalizeHTTPError(statusCode int, body []byte) *types.Error {
	var env envelope
	_ = json.Unmarshal(body, &env)

	if env.Message != "" || env.Error != "" || env.ErrorCode != "" {
		normalized := t.normalizeEnvelope(&env, statusCode)
		normalized.StatusCode = statusCode
		return normalized
	}

	return &types.Error{
		Message:    http.StatusText(statusCode),
		ErrorCode:  codeForStatus(statusCode),
		StatusCode: statusCode,
		Timestamp:  t.now(),
		Err:        sentinelForStatus(statusCode),
	}
}

// normalizeEnvelope passes a server-authored error envelope through as
// the normalized error.
func (t *RESTTransport) normalizeEnvelope(env *envelope, statusCode int) *types.Error {
	code := env.ErrorCode
	if code == "" {
		code = env.Error
	}
	if code == "" {
		code = codeForStatus(statusCode)
	}

	message := env.Message
	if message == "" {
		message = env.Error
	}

	ts := t.now()
	if env.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, env.Timestamp); err == nil {
			ts = parsed
		}
	}

	return &types.Error{
		Message:    message,
		ErrorCode:  code,
		StatusCode: statusCode,
		Timestamp:  ts,
		Err:        sentinelForStatus(statusCode),
	}
}

func codeForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return "NOT_AUTHENTICATED"
	case statusCode == http.StatusNotFound:
		return "NOT_FOUND"
	case statusCode == http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case statusCode >= 500:
		return "SERVER_ERROR"
	case statusCode >= 400:
		return "CLIENT_ERROR"
	default:
		return "HTTP_ERROR"
	}
}

func sentinelForStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return types.ErrNotAuthenticated
	case statusCode == http.StatusNotFound:
		return types.ErrNotFound
	case statusCode == http.StatusTooManyRequests:
		return types.ErrRateLimited
	case statusCode >= 500:
		return types.ErrServerError
	default:
		return nil
	}
}

// decode unmarshals an envelope data payload into out.
func decode(payload []byte, out interface{}) error {
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.Wrap(err, "failed to unmarshal result")
	}
	return nil
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
