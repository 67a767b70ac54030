package paylink

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	internalTypes "github.com/paylink-dev/paylink-go/internal/types"
)

// MockTransport is a testify mock of the Transport interface, used by
// the service tests.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	args := m.Called(ctx, path, query, out)
	return args.Error(0)
}

func (m *MockTransport) Post(ctx context.Context, path string, body, out interface{}) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}

func (m *MockTransport) SetAuth(token string) {
	m.Called(token)
}

func (m *MockTransport) SetSession(session *internalTypes.Session) {
	m.Called(session)
}

func (m *MockTransport) ClearCache() {
	m.Called()
}

func (m *MockTransport) Reset() {
	m.Called()
}

// newMockedClient builds a client whose transport is the given mock.
func newMockedClient(t *testing.T, tr Transport) *Client {
	t.Helper()

	client, err := NewClient(&ClientOptions{DisableCache: true})
	require.NoError(t, err)
	client.transport = tr
	return client
}

// fakeTransport is a scriptable Transport for the session and scheduler
// tests, where calls arrive from background goroutines and a strict
// expectation mock would be brittle.
type fakeTransport struct {
	mu sync.Mutex

	getFn  func(path string, query url.Values, out interface{}) error
	postFn func(path string, body, out interface{}) error

	getPaths        []string
	postPaths       []string
	clearCacheCalls int
	resetCalls      int
	session         *internalTypes.Session
}

func (f *fakeTransport) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	f.mu.Lock()
	f.getPaths = append(f.getPaths, path)
	fn := f.getFn
	f.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(path, query, out)
}

func (f *fakeTransport) Post(ctx context.Context, path string, body, out interface{}) error {
	f.mu.Lock()
	f.postPaths = append(f.postPaths, path)
	fn := f.postFn
	f.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(path, body, out)
}

func (f *fakeTransport) SetAuth(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		f.session = &internalTypes.Session{}
	}
	f.session.Token = token
}

func (f *fakeTransport) SetSession(session *internalTypes.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = session
}

func (f *fakeTransport) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCacheCalls++
}

func (f *fakeTransport) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
}

func (f *fakeTransport) getCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, p := range f.getPaths {
		if p == path {
			n++
		}
	}
	return n
}

func (f *fakeTransport) clearCacheCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearCacheCalls
}

func (f *fakeTransport) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetCalls
}
