package paylink

import (
	"context"
	"fmt"
)

// accountService implements the AccountService interface
type accountService struct {
	client *Client
}

// Create provisions a new custodial account. The backend issues a
// session token alongside the new user, so creation also
// authenticates.
func (s *accountService) Create(ctx context.Context, params *CreateAccountParams) (*User, error) {
	if params == nil {
		params = &CreateAccountParams{}
	}
	if params.AccountType == "" {
		params.AccountType = AccountTypeCustomer
	}

	var result authResult
	if err := s.client.post(ctx, "/v1/accounts", params, &result); err != nil {
		return nil, err
	}

	s.client.adoptSession(&result)

	return result.User, nil
}

// Get retrieves a single account by ID
func (s *accountService) Get(ctx context.Context, accountID string) (*Account, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "accountID", Message: "must not be empty"}
	}

	var account Account
	if err := s.client.get(ctx, fmt.Sprintf("/v1/accounts/%s", accountID), nil, &account); err != nil {
		return nil, err
	}

	return &account, nil
}
