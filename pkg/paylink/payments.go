package paylink

import (
	"context"
)

// paymentService implements the PaymentService interface. Payments are
// write operations: never cached, never deduplicated.
type paymentService struct {
	client *Client
}

// Send transfers funds from the authenticated account to an address
func (s *paymentService) Send(ctx context.Context, params *SendPaymentParams) (*Payment, error) {
	if params == nil {
		return nil, &ValidationError{Field: "params", Message: "must not be nil"}
	}
	if params.ToAddress == "" {
		return nil, &ValidationError{Field: "toAddress", Message: "must not be empty"}
	}
	if params.Asset == "" {
		return nil, &ValidationError{Field: "asset", Message: "must not be empty"}
	}
	if params.Amount == "" {
		return nil, &ValidationError{Field: "amount", Message: "must not be empty"}
	}

	var payment Payment
	if err := s.client.post(ctx, "/v1/payments", params, &payment); err != nil {
		return nil, err
	}

	return &payment, nil
}

// Purchase pays a merchant for an order
func (s *paymentService) Purchase(ctx context.Context, params *PurchaseParams) (*Payment, error) {
	if params == nil {
		return nil, &ValidationError{Field: "params", Message: "must not be nil"}
	}
	if params.MerchantID == "" {
		return nil, &ValidationError{Field: "merchantId", Message: "must not be empty"}
	}
	if params.Asset == "" {
		return nil, &ValidationError{Field: "asset", Message: "must not be empty"}
	}
	if params.Amount == "" {
		return nil, &ValidationError{Field: "amount", Message: "must not be empty"}
	}

	var payment Payment
	if err := s.client.post(ctx, "/v1/purchases", params, &payment); err != nil {
		return nil, err
	}

	return &payment, nil
}
