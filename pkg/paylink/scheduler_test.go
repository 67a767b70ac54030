package paylink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylink-dev/paylink-go/internal/storage"
)

const (
	balancesPath     = "/v1/accounts/acct-1/balances"
	transactionsPath = "/v1/accounts/acct-1/transactions"
)

func TestScheduler_ImmediateRefreshOnLogin(t *testing.T) {
	tr := &fakeTransport{
		postFn: authPostFn(testUser()),
		getFn: serveData(
			&AccountBalance{AccountID: "acct-1"},
			&TransactionHistory{AccountID: "acct-1", Transactions: []*Transaction{{ID: "tx-1"}}},
		),
	}
	client := newSessionClient(t, tr, storage.NewMemoryStore(), nil)

	_, err := client.Session.Login(context.Background(), "user-1")
	require.NoError(t, err)

	// One balance and one transaction fetch fire without waiting a
	// full interval.
	require.Eventually(t, func() bool {
		return tr.getCount(balancesPath) >= 1 && tr.getCount(transactionsPath) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_PeriodicRefresh(t *testing.T) {
	tr := &fakeTransport{
		postFn: authPostFn(testUser()),
		getFn: serveData(
			&AccountBalance{AccountID: "acct-1"},
			&TransactionHistory{AccountID: "acct-1", Transactions: []*Transaction{{ID: "tx-1"}}},
		),
	}
	client := newSessionClient(t, tr, storage.NewMemoryStore(), &ClientOptions{
		BalanceRefreshInterval:     20 * time.Millisecond,
		TransactionRefreshInterval: 25 * time.Millisecond,
	})

	_, err := client.Session.Login(context.Background(), "user-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return tr.getCount(balancesPath) >= 3 && tr.getCount(transactionsPath) >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_StopsOnLogout(t *testing.T) {
	tr := &fakeTransport{
		postFn: authPostFn(testUser()),
		getFn: serveData(
			&AccountBalance{AccountID: "acct-1"},
			&TransactionHistory{AccountID: "acct-1", Transactions: []*Transaction{{ID: "tx-1"}}},
		),
	}
	client := newSessionClient(t, tr, storage.NewMemoryStore(), &ClientOptions{
		BalanceRefreshInterval:     20 * time.Millisecond,
		TransactionRefreshInterval: 20 * time.Millisecond,
	})

	_, err := client.Session.Login(context.Background(), "user-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return tr.getCount(balancesPath) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Session.Logout(context.Background()))

	// No fetch fires once the session ends.
	settled := tr.getCount(balancesPath) + tr.getCount(transactionsPath)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, tr.getCount(balancesPath)+tr.getCount(transactionsPath))
}

func TestScheduler_CloseStopsRefreshWithoutPurging(t *testing.T) {
	tr := &fakeTransport{
		postFn: authPostFn(testUser()),
		getFn: serveData(
			&AccountBalance{AccountID: "acct-1"},
			&TransactionHistory{AccountID: "acct-1", Transactions: []*Transaction{{ID: "tx-1"}}},
		),
	}
	store := storage.NewMemoryStore()
	client := newSessionClient(t, tr, store, &ClientOptions{
		BalanceRefreshInterval:     20 * time.Millisecond,
		TransactionRefreshInterval: 20 * time.Millisecond,
	})

	_, err := client.Session.Login(context.Background(), "user-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return tr.getCount(balancesPath) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	client.Session.Close()

	settled := tr.getCount(balancesPath)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, tr.getCount(balancesPath))

	// Close keeps persisted state so the session restores next run.
	_, err = store.Get("user")
	assert.NoError(t, err)
	_, err = store.Get("session")
	assert.NoError(t, err)
}

func TestScheduler_ReLoginReplacesScheduler(t *testing.T) {
	tr := &fakeTransport{
		postFn: authPostFn(testUser()),
		getFn: serveData(
			&AccountBalance{AccountID: "acct-1"},
			&TransactionHistory{AccountID: "acct-1", Transactions: []*Transaction{{ID: "tx-1"}}},
		),
	}
	client := newSessionClient(t, tr, storage.NewMemoryStore(), nil)

	_, err := client.Session.Login(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = client.Session.Login(context.Background(), "user-1")
	require.NoError(t, err)

	// Both schedulers fired their immediate refresh; only the second
	// is still running, so Close leaves nothing behind.
	require.Eventually(t, func() bool {
		return tr.getCount(balancesPath) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	client.Session.Close()
	assert.True(t, client.Session.State().IsAuthenticated)
}
