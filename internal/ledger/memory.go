package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownAccount    = errors.New("unknown account")
	ErrBalanceTooLow     = errors.New("balance too low")
	ErrAllowanceTooLow   = errors.New("allowance too low")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// MemoryLedger is a mutex-guarded in-memory Gateway. The operator account
// is the identity acting on behalf of the engine: pulls from any other
// account consume an allowance granted to the operator, while the operator
// moves its own funds freely (payouts).
type MemoryLedger struct {
	mu          sync.Mutex
	operator    string
	balances    map[string]int64
	allowances  map[string]int64 // owner -> amount the operator may pull
	transferErr error
}

// NewMemoryLedger creates an empty ledger with the given operator identity.
func NewMemoryLedger(operator string) *MemoryLedger {
	return &MemoryLedger{
		operator:   operator,
		balances:   map[string]int64{operator: 0},
		allowances: make(map[string]int64),
	}
}

// Deposit credits an account, creating it if needed.
func (m *MemoryLedger) Deposit(identity string, amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[identity] += amount
	return nil
}

// Approve sets the amount the operator may pull from owner. It replaces
// any previous authorization rather than accumulating.
func (m *MemoryLedger) Approve(owner string, amount int64) error {
	if amount < 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[owner]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}
	m.allowances[owner] = amount
	return nil
}

// FailTransfers makes every subsequent PullTransfer fail with err until
// called again with nil. Used by tests to exercise the abort path.
func (m *MemoryLedger) FailTransfers(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferErr = err
}

// AvailableBalance implements Gateway.
func (m *MemoryLedger) AvailableBalance(identity string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[identity]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAccount, identity)
	}
	return balance, nil
}

// SpendAuthorization implements Gateway. Only authorizations granted to
// the operator are tracked; any other spender has none.
func (m *MemoryLedger) SpendAuthorization(owner, spender string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[owner]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}
	if spender != m.operator {
		return 0, nil
	}
	return m.allowances[owner], nil
}

// PullTransfer implements Gateway. Transfers from the operator's own
// account skip the allowance check; everything else decrements the
// owner's allowance alongside the balance.
func (m *MemoryLedger) PullTransfer(from, to string, amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transferErr != nil {
		return m.transferErr
	}
	balance, ok := m.balances[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, from)
	}
	if balance < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrBalanceTooLow, from, balance, amount)
	}
	if from != m.operator {
		if m.allowances[from] < amount {
			return fmt.Errorf("%w: %s authorized %d, needs %d", ErrAllowanceTooLow, from, m.allowances[from], amount)
		}
		m.allowances[from] -= amount
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}
