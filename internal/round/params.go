package round

import (
	"time"
)

// Params is one round's configuration: when it closes, how much each bet
// costs, and how far each bet pushes the close time back.
type Params struct {
	CloseTime time.Time
	Stake     int64
	Delay     time.Duration
}

// ParamStore holds the active round's parameters and the policy floors
// used to validate replacements. It isolates policy (minimums, units)
// from the state machine; it carries no locking of its own and is only
// touched under the Ledger's mutex.
type ParamStore struct {
	minStake int64
	minDelay time.Duration
	current  Params
}

// Default policy floors. Hosts with stricter policy pass their own.
const (
	DefaultMinStake = 1
	DefaultMinDelay = time.Second
)

// NewParamStore creates a store with the given floors. Non-positive
// floors fall back to the defaults.
func NewParamStore(minStake int64, minDelay time.Duration) *ParamStore {
	if minStake <= 0 {
		minStake = DefaultMinStake
	}
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	return &ParamStore{minStake: minStake, minDelay: minDelay}
}

// Validate checks a replacement parameter set against the policy floors
// and the current instant. It names the first offending field.
func (ps *ParamStore) Validate(now time.Time, p Params) error {
	if !p.CloseTime.After(now) {
		return &InvalidParameterError{Field: "closeTime", Reason: "must be in the future"}
	}
	if p.Stake < ps.minStake {
		return &InvalidParameterError{Field: "stake", Reason: "below minimum"}
	}
	if p.Delay < ps.minDelay {
		return &InvalidParameterError{Field: "delay", Reason: "below minimum"}
	}
	return nil
}

// Reset overwrites all three parameters at once.
func (ps *ParamStore) Reset(p Params) {
	ps.current = p
}

// Extend pushes the close time back by the extension delay and returns
// the new close time. The close time only ever increases while a round
// is active.
func (ps *ParamStore) Extend() time.Time {
	ps.current.CloseTime = ps.current.CloseTime.Add(ps.current.Delay)
	return ps.current.CloseTime
}

func (ps *ParamStore) CloseTime() time.Time    { return ps.current.CloseTime }
func (ps *ParamStore) Stake() int64            { return ps.current.Stake }
func (ps *ParamStore) Delay() time.Duration    { return ps.current.Delay }
func (ps *ParamStore) Current() Params         { return ps.current }
func (ps *ParamStore) MinStake() int64         { return ps.minStake }
func (ps *ParamStore) MinDelay() time.Duration { return ps.minDelay }
