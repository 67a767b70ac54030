package types

import "time"

const (
	// DefaultBaseURL is the default payment API base URL
	DefaultBaseURL = "https://api.paylink.dev"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// UserAgent is the user agent string
	UserAgent = "paylink-go/1.0.0"

	// DefaultRetryAttempts is the number of re-issues after a failed attempt
	DefaultRetryAttempts = 3

	// DefaultRetryBaseDelay is the first backoff delay, doubling per attempt
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultCacheTTL bounds how long a successful GET payload may be served
	DefaultCacheTTL = 30 * time.Second

	// DefaultBalanceRefreshInterval drives periodic balance hydration
	DefaultBalanceRefreshInterval = 2 * time.Minute

	// DefaultTransactionRefreshInterval drives periodic transaction hydration
	DefaultTransactionRefreshInterval = 3 * time.Minute

	// EmptyTransactionRetryDelay is the single forced retry delay after an
	// empty non-forced transaction refresh, compensating for backend
	// read-after-write lag following a just-completed payment.
	EmptyTransactionRetryDelay = 2 * time.Second
)
