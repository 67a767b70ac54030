package paylink

import (
	"context"
	"time"

	"github.com/google/uuid"

	internalTypes "github.com/paylink-dev/paylink-go/internal/types"
)

// authService implements the AuthService interface. Authentication is
// a token exchange: the backend swaps credentials for an opaque bearer
// token. The client never derives or stores a mapping of secrets to
// identities.
type authService struct {
	client *Client
}

// authResult is the wire shape of every authenticating operation.
type authResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// tokenRequest is the body of the token exchange.
type tokenRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password,omitempty"`
}

// Login authenticates by user ID alone
func (a *authService) Login(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userID", Message: "must not be empty"}
	}
	return a.exchange(ctx, &tokenRequest{UserID: userID})
}

// LoginWithPassword authenticates by user ID and password
func (a *authService) LoginWithPassword(ctx context.Context, userID, password string) (*User, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userID", Message: "must not be empty"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "must not be empty"}
	}
	return a.exchange(ctx, &tokenRequest{UserID: userID, Password: password})
}

// Logout invalidates the current session token. The server call is
// best-effort; local session state is cleared regardless.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.post(ctx, "/v1/auth/logout", nil, nil)

	a.client.session = nil
	a.client.transport.SetSession(nil)

	return err
}

// Session returns the current session, or nil when anonymous
func (a *authService) Session() *Session {
	return a.client.session
}

// exchange performs the token exchange and adopts the resulting
// session.
func (a *authService) exchange(ctx context.Context, req *tokenRequest) (*User, error) {
	var result authResult
	if err := a.client.post(ctx, "/v1/auth/token", req, &result); err != nil {
		return nil, err
	}

	a.client.adoptSession(&result)

	if a.client.options.Logger != nil {
		a.client.options.Logger.Info("Login successful", "userId", req.UserID)
	}

	return result.User, nil
}

// adoptSession installs a freshly issued session on the client and its
// transport.
func (c *Client) adoptSession(result *authResult) {
	session := &Session{
		Token:      result.Token,
		ExpiresAt:  result.ExpiresAt,
		DeviceUUID: uuid.New().String(),
	}
	if result.User != nil {
		session.UserID = result.User.UserID
	}

	c.session = session
	c.transport.SetSession(&internalTypes.Session{
		Token:      session.Token,
		UserID:     session.UserID,
		ExpiresAt:  session.ExpiresAt,
		DeviceUUID: session.DeviceUUID,
	})
}
