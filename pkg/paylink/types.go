package paylink

import (
	"time"
)

// AccountType distinguishes the two kinds of custodial accounts.
type AccountType string

const (
	AccountTypeCustomer AccountType = "customer"
	AccountTypeMerchant AccountType = "merchant"
)

// User identifies an authenticated user and their custodial account.
// Immutable once created except for reassignment on login.
type User struct {
	UserID      string      `json:"userId"`
	AccountID   string      `json:"accountId"`
	AccountType AccountType `json:"accountType"`
	Network     string      `json:"network"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Account is the backend-managed blockchain account behind a user.
type Account struct {
	ID        string      `json:"id"`
	Type      AccountType `json:"type"`
	Network   string      `json:"network"`
	Address   string      `json:"address"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AssetBalance is a single asset position. Amounts are decimal strings
// as the backend reports them; the client never does arithmetic on
// them.
type AssetBalance struct {
	Asset     string `json:"asset"`
	Available string `json:"available"`
	Pending   string `json:"pending"`
}

// AccountBalance is the balance set for one account.
type AccountBalance struct {
	AccountID string         `json:"accountId"`
	Balances  []AssetBalance `json:"balances"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TransactionType distinguishes transaction kinds.
type TransactionType string

const (
	TransactionTypePayment  TransactionType = "payment"
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeDeposit  TransactionType = "deposit"
)

// Transaction is one ledger entry on a custodial account.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Status      string          `json:"status"`
	Asset       string          `json:"asset"`
	Amount      string          `json:"amount"`
	Fee         string          `json:"fee,omitempty"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	Memo        string          `json:"memo,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	ConfirmedAt *time.Time      `json:"confirmedAt,omitempty"`
}

// TransactionHistory is a page of transactions for one account.
type TransactionHistory struct {
	AccountID    string         `json:"accountId"`
	Transactions []*Transaction `json:"transactions"`
	Total        int            `json:"total"`
	HasMore      bool           `json:"hasMore"`
}

// Payment is the result of a send or purchase operation.
type Payment struct {
	Transaction *Transaction `json:"transaction"`
	Reference   string       `json:"reference,omitempty"`
}

// CreateAccountParams creates a new custodial account and user.
type CreateAccountParams struct {
	AccountType AccountType `json:"accountType"`
	Network     string      `json:"network"`
	Password    string      `json:"password,omitempty"`
}

// SendPaymentParams sends funds from the authenticated account.
type SendPaymentParams struct {
	ToAddress string `json:"toAddress"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo,omitempty"`
}

// PurchaseParams pays a merchant for an order.
type PurchaseParams struct {
	MerchantID string `json:"merchantId"`
	OrderID    string `json:"orderId"`
	Asset      string `json:"asset"`
	Amount     string `json:"amount"`
}

// ListOptions pages through transaction history.
type ListOptions struct {
	Limit  int
	Offset int
}

// Session is the authenticated session the SDK holds after login. The
// token is server-issued and opaque; the client never derives or
// stores a reversible mapping of secrets to identities.
type Session struct {
	Token      string    `json:"token"`
	UserID     string    `json:"userId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	DeviceUUID string    `json:"deviceUuid"`
}
