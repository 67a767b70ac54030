package paylink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stubAuthExchange(tr *MockTransport, user *User, token string) {
	tr.On("Post", mock.Anything, "/v1/auth/token", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			result := args.Get(3).(*authResult)
			result.User = user
			result.Token = token
			result.ExpiresAt = time.Now().Add(time.Hour)
		}).
		Return(nil)
	tr.On("SetSession", mock.Anything).Return()
}

func TestAuthService_Login(t *testing.T) {
	tr := new(MockTransport)
	user := &User{UserID: "user-1", AccountID: "acct-1", AccountType: AccountTypeCustomer}
	stubAuthExchange(tr, user, "tok-abc")

	client := newMockedClient(t, tr)

	got, err := client.Auth.Login(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	session := client.Auth.Session()
	require.NotNil(t, session)
	assert.Equal(t, "tok-abc", session.Token)
	assert.Equal(t, "user-1", session.UserID)
	assert.NotEmpty(t, session.DeviceUUID)

	sent := tr.Calls[0].Arguments.Get(2).(*tokenRequest)
	assert.Equal(t, "user-1", sent.UserID)
	assert.Empty(t, sent.Password)

	tr.AssertExpectations(t)
}

func TestAuthService_LoginWithPassword(t *testing.T) {
	tr := new(MockTransport)
	stubAuthExchange(tr, &User{UserID: "user-1"}, "tok-abc")

	client := newMockedClient(t, tr)

	_, err := client.Auth.LoginWithPassword(context.Background(), "user-1", "hunter2")
	require.NoError(t, err)

	sent := tr.Calls[0].Arguments.Get(2).(*tokenRequest)
	assert.Equal(t, "hunter2", sent.Password)
}

func TestAuthService_LoginValidation(t *testing.T) {
	tr := new(MockTransport)
	client := newMockedClient(t, tr)

	_, err := client.Auth.Login(context.Background(), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userID", verr.Field)

	_, err = client.Auth.LoginWithPassword(context.Background(), "user-1", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	// Validation fails before any network call.
	tr.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_LoginFailure(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Post", mock.Anything, "/v1/auth/token", mock.Anything, mock.Anything).
		Return(&Error{Message: "Unknown user", ErrorCode: "NOT_FOUND", StatusCode: 404})

	client := newMockedClient(t, tr)

	_, err := client.Auth.Login(context.Background(), "nobody")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.ErrorCode)
	assert.Nil(t, client.Auth.Session())
}

func TestAuthService_Logout(t *testing.T) {
	tr := new(MockTransport)
	stubAuthExchange(tr, &User{UserID: "user-1"}, "tok-abc")
	tr.On("Post", mock.Anything, "/v1/auth/logout", mock.Anything, mock.Anything).Return(nil)

	client := newMockedClient(t, tr)

	_, err := client.Auth.Login(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, client.Auth.Session())

	require.NoError(t, client.Auth.Logout(context.Background()))
	assert.Nil(t, client.Auth.Session())
}

func TestAuthService_LogoutClearsSessionEvenOnServerError(t *testing.T) {
	tr := new(MockTransport)
	stubAuthExchange(tr, &User{UserID: "user-1"}, "tok-abc")
	tr.On("Post", mock.Anything, "/v1/auth/logout", mock.Anything, mock.Anything).
		Return(&Error{Message: "boom", ErrorCode: "SERVER_ERROR", StatusCode: 500})

	client := newMockedClient(t, tr)

	_, err := client.Auth.Login(context.Background(), "user-1")
	require.NoError(t, err)

	err = client.Auth.Logout(context.Background())
	require.Error(t, err)
	assert.Nil(t, client.Auth.Session(), "local session cleared regardless")
}
