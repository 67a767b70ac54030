package paylink

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/paylink-dev/paylink-go/internal/storage"
	internalTypes "github.com/paylink-dev/paylink-go/internal/types"
)

// Persisted storage keys. Deleted in full on logout.
const (
	storageKeyUser         = "user"
	storageKeySession      = "session"
	storageKeyBalances     = "balances"
	storageKeyTransactions = "transactions"
)

// sessionVersion is the persisted session schema version.
const sessionVersion = "1.0.0"

// SessionState is the session store's observable state. IsAuthenticated
// is true iff User is non-nil; IsLoading is true only during restore or
// an explicit blocking action.
type SessionState struct {
	User                  *User
	IsAuthenticated       bool
	IsLoading             bool
	Error                 string
	Balances              *AccountBalance
	LastBalanceUpdate     time.Time
	Transactions          *TransactionHistory
	LastTransactionUpdate time.Time
}

// persistedSession is the durable session metadata record.
type persistedSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// persistedBalances is the durable balance sub-cache.
type persistedBalances struct {
	Data      *AccountBalance `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// persistedTransactions is the durable transaction sub-cache.
type persistedTransactions struct {
	Data      *TransactionHistory `json:"data"`
	Timestamp time.Time           `json:"timestamp"`
}

// SessionStore holds authentication status, user identity, balances,
// and transaction history, backed by persisted storage. It is the sole
// writer of its state; all mutation happens inside its own methods
// under one mutex, never while a network call is in flight.
type SessionStore struct {
	client *Client
	store  storage.Store
	logger Logger
	now    internalTypes.Clock

	balanceInterval time.Duration
	txInterval      time.Duration
	emptyRetryDelay time.Duration

	mu    sync.Mutex
	state SessionState

	// Per-field sequence numbers. Every refresh is stamped at issue
	// time; a response whose sequence is older than the last applied
	// one for that field is discarded, so an overlapping refresh that
	// settles late cannot overwrite newer data.
	balanceSeq     uint64
	balanceApplied uint64
	txSeq          uint64
	txApplied      uint64

	emptyRetryTimer *time.Timer

	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

func newSessionStore(client *Client, store storage.Store) *SessionStore {
	opts := client.options

	balanceInterval := opts.BalanceRefreshInterval
	if balanceInterval <= 0 {
		balanceInterval = internalTypes.DefaultBalanceRefreshInterval
	}
	txInterval := opts.TransactionRefreshInterval
	if txInterval <= 0 {
		txInterval = internalTypes.DefaultTransactionRefreshInterval
	}

	return &SessionStore{
		client:          client,
		store:           store,
		logger:          opts.Logger,
		now:             client.now,
		balanceInterval: balanceInterval,
		txInterval:      txInterval,
		emptyRetryDelay: internalTypes.EmptyTransactionRetryDelay,
	}
}

// State returns a snapshot of the current session state.
func (s *SessionStore) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restore hydrates the session from persisted storage. A user record
// with an unexpired token yields Authenticated; the balance and
// transaction sub-caches are hydrated only when their timestamps are
// younger than their own refresh intervals, otherwise those fields
// stay nil and must be re-fetched. Storage failures are logged and
// treated as "no session found".
func (s *SessionStore) Restore(ctx context.Context) {
	s.mu.Lock()
	s.state.IsLoading = true
	s.mu.Unlock()

	user, session := s.loadPersistedIdentity()
	if user == nil || session == nil {
		s.mu.Lock()
		s.state = SessionState{}
		s.mu.Unlock()
		return
	}

	s.client.adoptSession(&authResult{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})

	now := s.now()
	balances, balanceAt := s.loadBalanceCache(now)
	transactions, txAt := s.loadTransactionCache(now)

	s.mu.Lock()
	s.state = SessionState{
		User:                  user,
		IsAuthenticated:       true,
		Balances:              balances,
		LastBalanceUpdate:     balanceAt,
		Transactions:          transactions,
		LastTransactionUpdate: txAt,
	}
	s.mu.Unlock()

	s.startScheduler()
}

// loadPersistedIdentity reads the user and session records, returning
// nils when either is absent, unreadable, or expired.
func (s *SessionStore) loadPersistedIdentity() (*User, *persistedSession) {
	userData, err := s.store.Get(storageKeyUser)
	if err != nil {
		if err != storage.ErrNotFound {
			s.warn("Failed to read persisted user", "error", err)
		}
		return nil, nil
	}

	var user User
	if err := json.Unmarshal(userData, &user); err != nil {
		s.warn("Failed to decode persisted user", "error", err)
		return nil, nil
	}

	sessionData, err := s.store.Get(storageKeySession)
	if err != nil {
		if err != storage.ErrNotFound {
			s.warn("Failed to read persisted session", "error", err)
		}
		return nil, nil
	}

	var session persistedSession
	if err := json.Unmarshal(sessionData, &session); err != nil {
		s.warn("Failed to decode persisted session", "error", err)
		return nil, nil
	}

	if !session.ExpiresAt.IsZero() && s.now().After(session.ExpiresAt) {
		s.debug("Persisted session expired", "expiresAt", session.ExpiresAt)
		return nil, nil
	}

	return &user, &session
}

func (s *SessionStore) loadBalanceCache(now time.Time) (*AccountBalance, time.Time) {
	data, err := s.store.Get(storageKeyBalances)
	if err != nil {
		return nil, time.Time{}
	}

	var cached persistedBalances
	if err := json.Unmarshal(data, &cached); err != nil || cached.Data == nil {
		return nil, time.Time{}
	}

	if now.Sub(cached.Timestamp) >= s.balanceInterval {
		// Stale; must be re-fetched.
		return nil, time.Time{}
	}
	return cached.Data, cached.Timestamp
}

func (s *SessionStore) loadTransactionCache(now time.Time) (*TransactionHistory, time.Time) {
	data, err := s.store.Get(storageKeyTransactions)
	if err != nil {
		return nil, time.Time{}
	}

	var cached persistedTransactions
	if err := json.Unmarshal(data, &cached); err != nil || cached.Data == nil {
		return nil, time.Time{}
	}

	if now.Sub(cached.Timestamp) >= s.txInterval {
		return nil, time.Time{}
	}
	return cached.Data, cached.Timestamp
}

// CreateAccount provisions a new custodial account and enters the
// Authenticated state.
func (s *SessionStore) CreateAccount(ctx context.Context, params *CreateAccountParams) (*User, error) {
	s.beginBlocking()

	user, err := s.client.Accounts.Create(ctx, params)
	if err != nil {
		s.failBlocking(err)
		return nil, err
	}

	s.completeAuth(user)
	return user, nil
}

// Login authenticates by user ID and enters the Authenticated state.
func (s *SessionStore) Login(ctx context.Context, userID string) (*User, error) {
	s.beginBlocking()

	user, err := s.client.Auth.Login(ctx, userID)
	if err != nil {
		s.failBlocking(err)
		return nil, err
	}

	s.completeAuth(user)
	return user, nil
}

// LoginWithPassword authenticates by user ID and password.
func (s *SessionStore) LoginWithPassword(ctx context.Context, userID, password string) (*User, error) {
	s.beginBlocking()

	user, err := s.client.Auth.LoginWithPassword(ctx, userID, password)
	if err != nil {
		s.failBlocking(err)
		return nil, err
	}

	s.completeAuth(user)
	return user, nil
}

// Logout returns to Anonymous: all persisted keys are purged and the
// request engine's cache and in-flight state are cleared so a new
// session cannot observe the previous user's payloads. The server-side
// token invalidation is best-effort.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.stopScheduler()

	err := s.client.Auth.Logout(ctx)
	if err != nil {
		s.warn("Server-side logout failed", "error", err)
	}

	for _, key := range []string{storageKeyUser, storageKeySession, storageKeyBalances, storageKeyTransactions} {
		if derr := s.store.Delete(key); derr != nil {
			s.warn("Failed to purge persisted key", "key", key, "error", derr)
		}
	}

	s.client.transport.Reset()

	s.mu.Lock()
	s.state = SessionState{}
	s.balanceApplied = s.balanceSeq
	s.txApplied = s.txSeq
	s.mu.Unlock()

	return err
}

// Close stops background refresh without touching persisted state.
func (s *SessionStore) Close() {
	s.stopScheduler()
}

// SendPayment sends a payment and, on success, force-refreshes
// balances and transaction history so the state reflects the new
// transaction without waiting for the next interval.
func (s *SessionStore) SendPayment(ctx context.Context, params *SendPaymentParams) (*Payment, error) {
	payment, err := s.client.Payments.Send(ctx, params)
	if err != nil {
		return nil, err
	}
	s.afterPayment(ctx)
	return payment, nil
}

// Purchase pays a merchant and refreshes like SendPayment.
func (s *SessionStore) Purchase(ctx context.Context, params *PurchaseParams) (*Payment, error) {
	payment, err := s.client.Payments.Purchase(ctx, params)
	if err != nil {
		return nil, err
	}
	s.afterPayment(ctx)
	return payment, nil
}

// afterPayment busts the engine cache and re-fetches. Failures here
// are already logged by the refresh paths; the payment itself
// succeeded.
func (s *SessionStore) afterPayment(ctx context.Context) {
	_ = s.refreshBalances(ctx, true)
	_ = s.refreshTransactions(ctx, true)
}

// RefreshBalances fetches the current balances. Best-effort: a failure
// is logged and returned, but never mutates authentication state or
// the previously applied balances.
func (s *SessionStore) RefreshBalances(ctx context.Context) error {
	return s.refreshBalances(ctx, false)
}

// RefreshTransactions fetches the transaction history. Best-effort,
// like RefreshBalances. A non-forced refresh that comes back empty
// schedules exactly one forced retry before the empty result is
// accepted, compensating for backend read-after-write lag after a
// just-completed payment.
func (s *SessionStore) RefreshTransactions(ctx context.Context) error {
	return s.refreshTransactions(ctx, false)
}

func (s *SessionStore) refreshBalances(ctx context.Context, forced bool) error {
	s.mu.Lock()
	user := s.state.User
	s.balanceSeq++
	seq := s.balanceSeq
	s.mu.Unlock()

	if user == nil {
		return ErrNotAuthenticated
	}

	if forced {
		s.client.transport.ClearCache()
	}

	balance, err := s.client.Balances.Get(ctx, user.AccountID)
	if err != nil {
		s.warn("Balance refresh failed", "error", err)
		return err
	}

	now := s.now()

	s.mu.Lock()
	if seq <= s.balanceApplied || !s.state.IsAuthenticated {
		// A newer refresh already settled, or the session ended.
		s.mu.Unlock()
		return nil
	}
	s.balanceApplied = seq
	s.state.Balances = balance
	s.state.LastBalanceUpdate = now
	s.mu.Unlock()

	s.persistBalances(balance, now)
	return nil
}

func (s *SessionStore) refreshTransactions(ctx context.Context, forced bool) error {
	s.mu.Lock()
	user := s.state.User
	s.txSeq++
	seq := s.txSeq
	s.mu.Unlock()

	if user == nil {
		return ErrNotAuthenticated
	}

	if forced {
		s.client.transport.ClearCache()
	}

	history, err := s.client.Transactions.List(ctx, user.AccountID, nil)
	if err != nil {
		s.warn("Transaction refresh failed", "error", err)
		return err
	}

	if !forced && history != nil && len(history.Transactions) == 0 {
		s.scheduleEmptyRetry()
		return nil
	}

	now := s.now()

	s.mu.Lock()
	if seq <= s.txApplied || !s.state.IsAuthenticated {
		s.mu.Unlock()
		return nil
	}
	s.txApplied = seq
	s.state.Transactions = history
	s.state.LastTransactionUpdate = now
	s.mu.Unlock()

	s.persistTransactions(history, now)
	return nil
}

// scheduleEmptyRetry arms the single forced retry. A second empty
// non-forced refresh while the timer is armed does not schedule
// another.
func (s *SessionStore) scheduleEmptyRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emptyRetryTimer != nil {
		return
	}

	s.debug("Transaction refresh returned no items, scheduling forced retry", "delay", s.emptyRetryDelay)

	s.emptyRetryTimer = time.AfterFunc(s.emptyRetryDelay, func() {
		s.mu.Lock()
		s.emptyRetryTimer = nil
		authenticated := s.state.IsAuthenticated
		s.mu.Unlock()

		if !authenticated {
			return
		}
		_ = s.refreshTransactions(context.Background(), true)
	})
}

// beginBlocking marks the start of a user-initiated blocking action.
func (s *SessionStore) beginBlocking() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

// failBlocking records a failed blocking action: back to Anonymous
// with the normalized message set for display.
func (s *SessionStore) failBlocking(err error) {
	s.mu.Lock()
	s.state.User = nil
	s.state.IsAuthenticated = false
	s.state.IsLoading = false
	s.state.Error = err.Error()
	s.mu.Unlock()
}

// completeAuth enters the Authenticated state, persists the identity,
// and starts background refresh.
func (s *SessionStore) completeAuth(user *User) {
	s.mu.Lock()
	s.state.User = user
	s.state.IsAuthenticated = true
	s.state.IsLoading = false
	s.state.Error = ""
	s.mu.Unlock()

	s.persistIdentity(user)
	s.startScheduler()
}

func (s *SessionStore) persistIdentity(user *User) {
	if data, err := json.Marshal(user); err == nil {
		if serr := s.store.Set(storageKeyUser, data); serr != nil {
			s.warn("Failed to persist user", "error", serr)
		}
	}

	record := persistedSession{
		Timestamp: s.now(),
		Version:   sessionVersion,
	}
	if session := s.client.session; session != nil {
		record.Token = session.Token
		record.ExpiresAt = session.ExpiresAt
	}
	if data, err := json.Marshal(record); err == nil {
		if serr := s.store.Set(storageKeySession, data); serr != nil {
			s.warn("Failed to persist session", "error", serr)
		}
	}
}

func (s *SessionStore) persistBalances(balance *AccountBalance, now time.Time) {
	data, err := json.Marshal(persistedBalances{Data: balance, Timestamp: now})
	if err != nil {
		return
	}
	if serr := s.store.Set(storageKeyBalances, data); serr != nil {
		s.warn("Failed to persist balances", "error", serr)
	}
}

func (s *SessionStore) persistTransactions(history *TransactionHistory, now time.Time) {
	data, err := json.Marshal(persistedTransactions{Data: history, Timestamp: now})
	if err != nil {
		return
	}
	if serr := s.store.Set(storageKeyTransactions, data); serr != nil {
		s.warn("Failed to persist transactions", "error", serr)
	}
}

func (s *SessionStore) warn(msg string, keysAndValues ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, keysAndValues...)
	}
}

func (s *SessionStore) debug(msg string, keysAndValues ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, keysAndValues...)
	}
}
