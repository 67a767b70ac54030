package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// CheckRetry decides retry|fail for a completed attempt. Retries are
// permitted when no response was received, on HTTP 429, and on any 5xx.
// Every other 4xx is terminal and never re-issued. Attempt accounting
// is owned by retryablehttp; this only classifies the outcome.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		// No response received.
		return true, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, nil
	}

	return false, nil
}

// Backoff computes the delay before the next attempt:
// baseDelay * 2^attemptNum, capped at max, UNLESS the failed response
// carries a Retry-After header in seconds, which overrides the computed
// delay exactly.
func Backoff(base, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil {
		if delay, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			return delay
		}
	}

	if attemptNum > 30 {
		attemptNum = 30
	}
	delay := base << uint(attemptNum)
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}

// parseRetryAfter parses a Retry-After value expressed in seconds.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, false
	}

	delay := time.Duration(seconds) * time.Second
	if delay > time.Hour {
		delay = time.Hour
	}
	return delay, true
}

// newRetryClient builds the retryablehttp client the engine issues every
// transport call through. PassthroughErrorHandler keeps the final failed
// response available so terminal failures normalize from the body the
// server actually sent.
func newRetryClient(httpClient *http.Client, maxRetries int, baseDelay, maxDelay time.Duration, logger retryablehttp.LeveledLogger) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = baseDelay
	rc.RetryWaitMax = maxDelay
	rc.CheckRetry = CheckRetry
	rc.Backoff = Backoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}
	return rc
}
