package paylink

import (
	"context"
)

// AccountService handles custodial account operations
type AccountService interface {
	// Create provisions a new custodial account and its user identity
	Create(ctx context.Context, params *CreateAccountParams) (*User, error)

	// Get retrieves a single account by ID
	Get(ctx context.Context, accountID string) (*Account, error)
}

// AuthService exchanges user credentials for a server-issued session
type AuthService interface {
	// Login authenticates by user ID alone
	Login(ctx context.Context, userID string) (*User, error)

	// LoginWithPassword authenticates by user ID and password
	LoginWithPassword(ctx context.Context, userID, password string) (*User, error)

	// Logout invalidates the current session token
	Logout(ctx context.Context) error

	// Session returns the current session, or nil when anonymous
	Session() *Session
}

// BalanceService handles balance reads
type BalanceService interface {
	// Get retrieves the balance set for an account
	Get(ctx context.Context, accountID string) (*AccountBalance, error)
}

// TransactionService handles transaction reads
type TransactionService interface {
	// List retrieves a page of transaction history for an account
	List(ctx context.Context, accountID string, opts *ListOptions) (*TransactionHistory, error)

	// Get retrieves a single transaction
	Get(ctx context.Context, transactionID string) (*Transaction, error)
}

// PaymentService handles write operations that move funds
type PaymentService interface {
	// Send transfers funds from the authenticated account to an address
	Send(ctx context.Context, params *SendPaymentParams) (*Payment, error)

	// Purchase pays a merchant for an order
	Purchase(ctx context.Context, params *PurchaseParams) (*Payment, error)
}
