package paylink

import (
	"context"
	"fmt"
)

// balanceService implements the BalanceService interface
type balanceService struct {
	client *Client
}

// Get retrieves the balance set for an account
func (s *balanceService) Get(ctx context.Context, accountID string) (*AccountBalance, error) {
	if accountID == "" {
		return nil, &ValidationError{Field: "accountID", Message: "must not be empty"}
	}

	var balance AccountBalance
	if err := s.client.get(ctx, fmt.Sprintf("/v1/accounts/%s/balances", accountID), nil, &balance); err != nil {
		return nil, err
	}

	return &balance, nil
}
