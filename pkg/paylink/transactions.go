package paylink

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// transactionService implements the TransactionService interface
type transactionService struct {
	client *Client
}

// List retrieves a page of transaction history for an account
func (s *transactionService) List(ctx context.Context, accountID string, opts *ListOptions) (*TransactionHistory, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "accountID", Message: "must not be empty"}
	}

	query := url.Values{}
	if opts != nil {
		if opts.Limit > 0 {
			query.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			query.Set("offset", strconv.Itoa(opts.Offset))
		}
	}

	var history TransactionHistory
	if err := s.client.get(ctx, fmt.Sprintf("/v1/accounts/%s/transactions", accountID), query, &history); err != nil {
		return nil, err
	}

	return &history, nil
}

// Get retrieves a single transaction
func (s *transactionService) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	if transactionID == "" {
		return nil, &ValidationError{Field: "transactionID", Message: "must not be empty"}
	}

	var tx Transaction
	if err := s.client.get(ctx, fmt.Sprintf("/v1/transactions/%s", transactionID), nil, &tx); err != nil {
		return nil, err
	}

	return &tx, nil
}
