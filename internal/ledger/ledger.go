// Package ledger defines the contract the round engine requires of an
// external value-holding system, plus an in-memory implementation used by
// tests and the reference daemon.
package ledger

// Gateway is the boundary to the external value ledger. Balances and
// authorizations read through it are advisory: the only authoritative
// signal is whether PullTransfer succeeds. Callers must not mutate their
// own state unless PullTransfer returned nil.
type Gateway interface {
	// AvailableBalance returns the spendable balance held by identity.
	AvailableBalance(identity string) (int64, error)

	// SpendAuthorization returns how much spender may pull from owner.
	SpendAuthorization(owner, spender string) (int64, error)

	// PullTransfer moves amount from one account to another. The move is
	// all-or-nothing: on error no value has moved.
	PullTransfer(from, to string, amount int64) error
}
