package service

import (
	"context"
	"sync"
	"time"
)

// SettlementLedger is the one-shot guard around payment execution. Begin
// must latch synchronously, before any network call is issued, so two
// near-simultaneous callback deliveries can never both pass the guard.
type SettlementLedger interface {
	// Begin latches paymentID for execution. Returns false when the id is
	// already in flight or settled; the caller must then skip execution.
	Begin(paymentID string) bool
	// Release frees a latched id after a genuine failure so the user can
	// retry deliberately.
	Release(paymentID string)
	// MarkSettled records the id as settled for the rest of the process
	// lifetime. Settled ids never pass Begin again.
	MarkSettled(paymentID string)
	HasSettled(paymentID string) bool
}

// Sleeper delays between settlement confirmation and navigation. An
// interface so tests don't wait out real time.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type DefaultSleeper struct{}

func (s *DefaultSleeper) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type memorySettlementLedger struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
	settled  map[string]struct{}
}

func NewMemorySettlementLedger() SettlementLedger {
	return &memorySettlementLedger{
		inFlight: make(map[string]struct{}),
		settled:  make(map[string]struct{}),
	}
}

func (l *memorySettlementLedger) Begin(paymentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.settled[paymentID]; ok {
		return false
	}
	if _, ok := l.inFlight[paymentID]; ok {
		return false
	}
	l.inFlight[paymentID] = struct{}{}
	return true
}

func (l *memorySettlementLedger) Release(paymentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.inFlight, paymentID)
}

func (l *memorySettlementLedger) MarkSettled(paymentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.inFlight, paymentID)
	l.settled[paymentID] = struct{}{}
}

func (l *memorySettlementLedger) HasSettled(paymentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.settled[paymentID]
	return ok
}
