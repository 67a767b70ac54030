package paylink

import (
	"context"
	"time"
)

// startScheduler begins background hydration. Called on every entry
// into the Authenticated state; any previous scheduler is stopped
// first so exactly one runs per session.
func (s *SessionStore) startScheduler() {
	s.stopScheduler()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.schedulerCancel = cancel
	s.schedulerDone = done
	s.mu.Unlock()

	go s.runScheduler(ctx, done)
}

// stopScheduler cancels the periodic timers and the pending forced
// transaction retry, if any. No timer survives the session.
func (s *SessionStore) stopScheduler() {
	s.mu.Lock()
	cancel := s.schedulerCancel
	done := s.schedulerDone
	s.schedulerCancel = nil
	s.schedulerDone = nil
	if s.emptyRetryTimer != nil {
		s.emptyRetryTimer.Stop()
		s.emptyRetryTimer = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// runScheduler performs one immediate hydration of balances and
// transactions, then drives the two independent periodic timers until
// cancelled.
func (s *SessionStore) runScheduler(ctx context.Context, done chan struct{}) {
	defer close(done)

	_ = s.refreshBalances(ctx, false)
	_ = s.refreshTransactions(ctx, false)

	balanceTicker := time.NewTicker(s.balanceInterval)
	defer balanceTicker.Stop()
	txTicker := time.NewTicker(s.txInterval)
	defer txTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-balanceTicker.C:
			_ = s.refreshBalances(ctx, false)
		case <-txTicker.C:
			_ = s.refreshTransactions(ctx, false)
		}
	}
}
