package paylink

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/paylink-dev/paylink-go/internal/storage"
	"github.com/paylink-dev/paylink-go/internal/transport"
	internalTypes "github.com/paylink-dev/paylink-go/internal/types"
)

const (
	// DefaultBaseURL is the default payment API base URL
	DefaultBaseURL = internalTypes.DefaultBaseURL

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = internalTypes.DefaultTimeout

	// UserAgent is the user agent string
	UserAgent = internalTypes.UserAgent
)

// Client is the main payment API client. Construct one per application
// root and thread it through explicitly; independent instances never
// share cache, dedup, or session state.
type Client struct {
	// Service interfaces
	Accounts     AccountService
	Auth         AuthService
	Balances     BalanceService
	Transactions TransactionService
	Payments     PaymentService

	// Session is the persisted session state machine.
	Session *SessionStore

	// Internal fields
	baseURL   string
	transport Transport
	options   *ClientOptions
	session   *Session
	now       internalTypes.Clock
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// Token provides a direct authentication token
	Token string

	// RetryAttempts is the number of re-issues after a failed attempt
	RetryAttempts int

	// RetryBaseDelay is the first backoff delay, doubling per attempt
	RetryBaseDelay time.Duration

	// DisableCache turns the GET response cache off
	DisableCache bool

	// CacheTTL bounds how long a cached GET payload may be served
	CacheTTL time.Duration

	// BalanceRefreshInterval drives periodic balance hydration
	BalanceRefreshInterval time.Duration

	// TransactionRefreshInterval drives periodic transaction hydration
	TransactionRefreshInterval time.Duration

	// Storage backs the persisted session. Takes precedence over
	// StorageDir.
	Storage storage.Store

	// StorageDir is where the file-backed session store lives
	StorageDir string

	// Logger for debug logging
	Logger Logger

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// Clock overrides wall-clock time for TTL and staleness decisions
	Clock func() time.Time

	// MetricsRegisterer enables Prometheus metrics when set
	MetricsRegisterer prometheus.Registerer

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Logger interface for logging
type Logger = internalTypes.Logger

// Transport handles HTTP communication through the request engine.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	SetAuth(token string)
	SetSession(session *internalTypes.Session)
	ClearCache()
	Reset()
}

// NewClient creates a new payment API client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}
		if err := sentry.Init(sentryOpts); err != nil {
			// Log error but don't fail client creation
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	// Set defaults
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}

	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	retryAttempts := opts.RetryAttempts
	if retryAttempts <= 0 {
		retryAttempts = internalTypes.DefaultRetryAttempts
	}
	retryBaseDelay := opts.RetryBaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = internalTypes.DefaultRetryBaseDelay
	}

	var metrics *transport.MetricsCollector
	if opts.MetricsRegisterer != nil {
		metrics = transport.NewMetricsCollectorWithRegistry(opts.MetricsRegisterer)
	}

	trans := transport.NewRESTTransport(&transport.Options{
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Headers: map[string]string{
			"device-uuid": uuid.New().String(),
		},
		RetryConfig: &internalTypes.RetryConfig{
			MaxRetries: retryAttempts,
			BaseDelay:  retryBaseDelay,
		},
		CacheEnabled: !opts.DisableCache,
		CacheTTL:     opts.CacheTTL,
		Logger:       opts.Logger,
		Hooks:        opts.Hooks,
		Clock:        now,
		Metrics:      metrics,
	})

	if opts.Token != "" {
		trans.SetAuth(opts.Token)
	}

	c := &Client{
		baseURL:   opts.BaseURL,
		transport: trans,
		options:   opts,
		now:       now,
	}

	c.initServices()

	store := opts.Storage
	if store == nil {
		if opts.StorageDir != "" {
			store = storage.NewFileStore(opts.StorageDir)
		} else {
			store = storage.NewMemoryStore()
		}
	}
	c.Session = newSessionStore(c, store)

	return c, nil
}

// NewClientWithToken creates a client with an auth token
func NewClientWithToken(token string) (*Client, error) {
	return NewClient(&ClientOptions{
		Token: token,
	})
}

// initServices initializes all service implementations
func (c *Client) initServices() {
	c.Accounts = &accountService{client: c}
	c.Auth = &authService{client: c}
	c.Balances = &balanceService{client: c}
	c.Transactions = &transactionService{client: c}
	c.Payments = &paymentService{client: c}
}

// GetSession returns the current session
func (c *Client) GetSession() *Session {
	return c.session
}

// SetToken sets the authentication token
func (c *Client) SetToken(token string) {
	c.transport.SetAuth(token)
	if c.session == nil {
		c.session = &Session{}
	}
	c.session.Token = token
}

// Close stops background refresh and flushes pending Sentry events.
func (c *Client) Close() {
	if c.Session != nil {
		c.Session.Close()
	}
	sentry.Flush(2 * time.Second)
}

// get executes a read through the request engine, capturing failures
// in Sentry when configured.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	err := c.transport.Get(ctx, path, query, out)
	if err != nil {
		c.captureError(ctx, "GET", path, err)
	}
	return err
}

// post executes a write through the request engine.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	err := c.transport.Post(ctx, path, body, out)
	if err != nil {
		c.captureError(ctx, "POST", path, err)
	}
	return err
}

// captureError reports a normalized failure to Sentry with request
// context attached.
func (c *Client) captureError(ctx context.Context, method, path string, err error) {
	if c.options.SentryDSN == "" && c.options.SentryOptions == nil {
		return
	}

	capture := func(scope *sentry.Scope, hub interface{ CaptureException(error) *sentry.EventID }) {
		scope.SetTag("api.method", method)
		scope.SetTag("api.path", path)
		hub.CaptureException(err)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			capture(scope, hub)
		})
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		capture(scope, sentry.CurrentHub())
	})
}
