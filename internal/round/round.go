// Package round implements the round lifecycle and fund accounting state
// machine for the last-contributor-wins pot game. Participants pull a
// fixed stake into the engine's custody account; each accepted bet pushes
// the close time back by a fixed delay; once the round closes, the whole
// fund pays out to the last contributor.
package round

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lastpot/lastpot/internal/access"
	"github.com/lastpot/lastpot/internal/ledger"
)

// Ledger owns the round lifecycle and the fund balance. All three
// mutating operations run under one mutex so no caller ever observes a
// partially updated round; the external pull-transfer sits inside the
// same critical section, and local state is only committed after the
// transfer reported success.
type Ledger struct {
	gateway ledger.Gateway
	guard   *access.Guard
	custody string
	params  *ParamStore
	clock   quartz.Clock
	bus     EventBus
	logger  *log.Logger

	mu                   sync.Mutex
	roundID              string
	fund                 int64
	lastContributor      string
	lastContributionTime time.Time
}

// NewLedger creates a closed, empty round ledger. Custody names the
// account on the external ledger that holds collected stakes; it must be
// the same identity bettors authorize spends for.
func NewLedger(gateway ledger.Gateway, guard *access.Guard, custody string, params *ParamStore, clock quartz.Clock, bus EventBus, logger *log.Logger) *Ledger {
	return &Ledger{
		gateway: gateway,
		guard:   guard,
		custody: custody,
		params:  params,
		clock:   clock,
		bus:     bus,
		logger:  logger.WithPrefix("round"),
	}
}

// Snapshot is a consistent read of the round state.
type Snapshot struct {
	RoundID              string
	Active               bool
	Fund                 int64
	Stake                int64
	Delay                time.Duration
	CloseTime            time.Time
	LastContributor      string
	LastContributionTime time.Time
}

// PlaceBet pulls the current stake from bettor into custody and records
// them as the last contributor, extending the close time by the round's
// delay. The pre-flight balance and authorization checks are advisory;
// the transfer's own result decides, and a failed transfer leaves the
// round untouched.
func (l *Ledger) PlaceBet(bettor string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if !now.Before(l.params.CloseTime()) {
		return ErrRoundNotActive
	}

	stake := l.params.Stake()
	balance, err := l.gateway.AvailableBalance(bettor)
	if err != nil {
		return fmt.Errorf("balance check for %s: %w", bettor, err)
	}
	if balance < stake {
		return ErrInsufficientBalance
	}
	authorized, err := l.gateway.SpendAuthorization(bettor, l.custody)
	if err != nil {
		return fmt.Errorf("authorization check for %s: %w", bettor, err)
	}
	if authorized < stake {
		return ErrInsufficientAuthorization
	}

	if err := l.gateway.PullTransfer(bettor, l.custody, stake); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	// Commit. Nothing above this point mutated the round, so a transfer
	// failure is indistinguishable from the call never having happened.
	l.fund += stake
	l.lastContributor = bettor
	l.lastContributionTime = now
	closeTime := l.params.Extend()

	l.logger.Info("bet placed",
		"round", l.roundID,
		"bettor", bettor,
		"stake", stake,
		"fund", l.fund,
		"closeTime", closeTime)
	l.bus.Publish(NewBetPlacedEvent(l.roundID, bettor, stake, l.fund, closeTime, now))
	return nil
}

// ClaimPrize pays the accumulated fund to the recorded last contributor
// and drains the round. Any caller may trigger the payout; the recipient
// is always the recorded winner. Requires the round to be closed and the
// fund non-empty.
func (l *Ledger) ClaimPrize(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Before(l.params.CloseTime()) {
		return ErrRoundStillActive
	}
	if l.fund == 0 {
		return ErrPrizeFundEmpty
	}

	winner := l.lastContributor
	amount := l.fund
	if err := l.gateway.PullTransfer(l.custody, winner, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	l.fund = 0
	l.lastContributor = ""
	l.lastContributionTime = time.Time{}

	l.logger.Info("prize claimed",
		"round", l.roundID,
		"winner", winner,
		"caller", caller,
		"amount", amount)
	l.bus.Publish(NewPrizeClaimedEvent(l.roundID, winner, caller, amount, now))
	return nil
}

// StartRound reseeds the parameters and opens a fresh round. Only the
// administrator may call it, only while the previous round is closed and
// its prize has been claimed.
func (l *Ledger) StartRound(admin string, p Params) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.guard.IsAdmin(admin) {
		return access.ErrUnauthorized
	}
	now := l.clock.Now()
	if now.Before(l.params.CloseTime()) {
		return ErrRoundStillActive
	}
	if l.fund > 0 {
		return ErrPrizeFundNotEmpty
	}
	if err := l.params.Validate(now, p); err != nil {
		return err
	}

	l.params.Reset(p)
	l.roundID = uuid.NewString()

	l.logger.Info("round started",
		"round", l.roundID,
		"closeTime", p.CloseTime,
		"stake", p.Stake,
		"delay", p.Delay)
	l.bus.Publish(NewRoundStartedEvent(l.roundID, admin, p, now))
	return nil
}

// TransferAdmin hands the admin capability to a new identity and emits
// the corresponding event.
func (l *Ledger) TransferAdmin(caller, newAdmin string) error {
	previous := l.guard.Admin()
	if err := l.guard.Transfer(caller, newAdmin); err != nil {
		return err
	}
	l.logger.Info("admin transferred", "previous", previous, "current", newAdmin)
	l.bus.Publish(NewAdminTransferredEvent(previous, newAdmin, l.clock.Now()))
	return nil
}

// Active reports whether bets are currently accepted.
func (l *Ledger) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clock.Now().Before(l.params.CloseTime())
}

// Fund returns the accumulated stakes awaiting payout.
func (l *Ledger) Fund() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fund
}

// CloseTime returns the instant after which the round no longer accepts bets.
func (l *Ledger) CloseTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.CloseTime()
}

// ExtensionDelay returns the duration added to the close time per bet.
func (l *Ledger) ExtensionDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Delay()
}

// StakeAmount returns the fixed contribution required per bet.
func (l *Ledger) StakeAmount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params.Stake()
}

// LastContributor returns the identity entitled to the fund once the
// round closes, or "" when the fund is empty.
func (l *Ledger) LastContributor() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastContributor
}

// LastContributionTime returns when the most recent bet was accepted.
func (l *Ledger) LastContributionTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastContributionTime
}

// RoundID returns the identifier of the current round cycle, or "" before
// the first StartRound.
func (l *Ledger) RoundID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roundID
}

// Snapshot returns a consistent view of the whole round.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		RoundID:              l.roundID,
		Active:               l.clock.Now().Before(l.params.CloseTime()),
		Fund:                 l.fund,
		Stake:                l.params.Stake(),
		Delay:                l.params.Delay(),
		CloseTime:            l.params.CloseTime(),
		LastContributor:      l.lastContributor,
		LastContributionTime: l.lastContributionTime,
	}
}
