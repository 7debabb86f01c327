package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerDepositAndBalance(t *testing.T) {
	t.Parallel()

	m := NewMemoryLedger("pot")
	require.NoError(t, m.Deposit("alice", 100))

	balance, err := m.AvailableBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	_, err = m.AvailableBalance("nobody")
	require.ErrorIs(t, err, ErrUnknownAccount)

	require.ErrorIs(t, m.Deposit("alice", 0), ErrNonPositiveAmount)
}

func TestMemoryLedgerApproveReplacesAllowance(t *testing.T) {
	t.Parallel()

	m := NewMemoryLedger("pot")
	require.NoError(t, m.Deposit("alice", 100))
	require.NoError(t, m.Approve("alice", 50))
	require.NoError(t, m.Approve("alice", 30))

	allowance, err := m.SpendAuthorization("alice", "pot")
	require.NoError(t, err)
	assert.Equal(t, int64(30), allowance)

	// Authorizations only exist towards the operator.
	allowance, err = m.SpendAuthorization("alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, allowance)

	require.ErrorIs(t, m.Approve("nobody", 10), ErrUnknownAccount)
}

func TestMemoryLedgerPullTransferConsumesAllowance(t *testing.T) {
	t.Parallel()

	m := NewMemoryLedger("pot")
	require.NoError(t, m.Deposit("alice", 100))
	require.NoError(t, m.Approve("alice", 25))

	require.NoError(t, m.PullTransfer("alice", "pot", 10))

	balance, err := m.AvailableBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(90), balance)

	allowance, err := m.SpendAuthorization("alice", "pot")
	require.NoError(t, err)
	assert.Equal(t, int64(15), allowance)

	// Exhausting the allowance blocks further pulls even with balance left.
	require.NoError(t, m.PullTransfer("alice", "pot", 15))
	require.ErrorIs(t, m.PullTransfer("alice", "pot", 1), ErrAllowanceTooLow)
}

func TestMemoryLedgerOperatorMovesOwnFundsFreely(t *testing.T) {
	t.Parallel()

	m := NewMemoryLedger("pot")
	require.NoError(t, m.Deposit("pot", 40))

	// No allowance needed when the operator pays out.
	require.NoError(t, m.PullTransfer("pot", "alice", 40))

	balance, err := m.AvailableBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	require.ErrorIs(t, m.PullTransfer("pot", "alice", 1), ErrBalanceTooLow)
}

func TestMemoryLedgerTransferIsAllOrNothing(t *testing.T) {
	t.Parallel()

	m := NewMemoryLedger("pot")
	require.NoError(t, m.Deposit("alice", 100))
	require.NoError(t, m.Approve("alice", 5))

	// Balance fine, allowance short: nothing moves.
	require.ErrorIs(t, m.PullTransfer("alice", "pot", 10), ErrAllowanceTooLow)

	balance, err := m.AvailableBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	allowance, err := m.SpendAuthorization("alice", "pot")
	require.NoError(t, err)
	assert.Equal(t, int64(5), allowance)
}

func TestMemoryLedgerFailureInjection(t *testing.T) {
	t.Parallel()

	m := NewMemoryLedger("pot")
	require.NoError(t, m.Deposit("alice", 100))
	require.NoError(t, m.Approve("alice", 100))

	boom := errors.New("ledger offline")
	m.FailTransfers(boom)
	require.ErrorIs(t, m.PullTransfer("alice", "pot", 10), boom)

	m.FailTransfers(nil)
	require.NoError(t, m.PullTransfer("alice", "pot", 10))
}
