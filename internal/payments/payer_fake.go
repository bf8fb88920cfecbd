package payments

import (
	"context"
	"fmt"
	"sync"

	id "namemart/pkg/domain"
	"namemart/pkg/platform/sentinel"
)

// FakeTreasurer records pushes in memory and can be told to reject specific
// recipients, which is how tests exercise the escrow fallback paths.
type FakeTreasurer struct {
	mu      sync.Mutex
	paid    map[id.Address]id.Amount
	reject  map[id.Address]bool
	onPush  func(to id.Address, amount id.Amount)
	pushLog []Push
}

// Push is one recorded outbound payment.
type Push struct {
	To     id.Address
	Amount id.Amount
}

func NewFakeTreasurer() *FakeTreasurer {
	return &FakeTreasurer{
		paid:   make(map[id.Address]id.Amount),
		reject: make(map[id.Address]bool),
	}
}

// Reject makes every push to the given account fail.
func (f *FakeTreasurer) Reject(to id.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reject[to] = true
}

// Accept clears a rejection set by Reject.
func (f *FakeTreasurer) Accept(to id.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reject, to)
}

// OnPush installs a hook invoked during a successful push, before it is
// recorded. Tests use it to simulate recipients that re-enter the system.
func (f *FakeTreasurer) OnPush(hook func(to id.Address, amount id.Amount)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPush = hook
}

func (f *FakeTreasurer) Push(_ context.Context, to id.Address, amount id.Amount) error {
	f.mu.Lock()
	rejected := f.reject[to]
	hook := f.onPush
	f.mu.Unlock()

	if rejected {
		return fmt.Errorf("push to %s: %w", to, sentinel.ErrPaymentFailed)
	}
	if hook != nil {
		hook(to, amount)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid[to] += amount
	f.pushLog = append(f.pushLog, Push{To: to, Amount: amount})
	return nil
}

// Paid returns the total successfully pushed to an account.
func (f *FakeTreasurer) Paid(to id.Address) id.Amount {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paid[to]
}

// Pushes returns a copy of the recorded push log.
func (f *FakeTreasurer) Pushes() []Push {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Push{}, f.pushLog...)
}
