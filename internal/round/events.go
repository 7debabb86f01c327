package round

import (
	"time"
)

// EventType identifies a round domain event.
type EventType string

const (
	EventTypeBetPlaced        EventType = "bet_placed"
	EventTypePrizeClaimed     EventType = "prize_claimed"
	EventTypeRoundStarted     EventType = "round_started"
	EventTypeAdminTransferred EventType = "admin_transferred"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is any notification emitted by a mutating round operation. Each
// carries a stable schema (identity, amount, timestamp) for observability
// and off-system indexing.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// BetPlacedEvent is published after a bet has been pulled and committed.
type BetPlacedEvent struct {
	RoundID   string
	Bettor    string
	Amount    int64
	Fund      int64
	CloseTime time.Time
	timestamp time.Time
}

func (e BetPlacedEvent) EventType() EventType { return EventTypeBetPlaced }
func (e BetPlacedEvent) Timestamp() time.Time { return e.timestamp }

// NewBetPlacedEvent creates a bet placed event.
func NewBetPlacedEvent(roundID, bettor string, amount, fund int64, closeTime, ts time.Time) BetPlacedEvent {
	return BetPlacedEvent{
		RoundID:   roundID,
		Bettor:    bettor,
		Amount:    amount,
		Fund:      fund,
		CloseTime: closeTime,
		timestamp: ts,
	}
}

// PrizeClaimedEvent is published after the fund has been paid out. Caller
// and Winner can differ: any caller may trigger the payout, the recorded
// last contributor always receives it.
type PrizeClaimedEvent struct {
	RoundID   string
	Winner    string
	Caller    string
	Amount    int64
	timestamp time.Time
}

func (e PrizeClaimedEvent) EventType() EventType { return EventTypePrizeClaimed }
func (e PrizeClaimedEvent) Timestamp() time.Time { return e.timestamp }

// NewPrizeClaimedEvent creates a prize claimed event.
func NewPrizeClaimedEvent(roundID, winner, caller string, amount int64, ts time.Time) PrizeClaimedEvent {
	return PrizeClaimedEvent{
		RoundID:   roundID,
		Winner:    winner,
		Caller:    caller,
		Amount:    amount,
		timestamp: ts,
	}
}

// RoundStartedEvent is published when an administrator opens a new round.
type RoundStartedEvent struct {
	RoundID   string
	Admin     string
	CloseTime time.Time
	Stake     int64
	Delay     time.Duration
	timestamp time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundStartedEvent creates a round started event.
func NewRoundStartedEvent(roundID, admin string, p Params, ts time.Time) RoundStartedEvent {
	return RoundStartedEvent{
		RoundID:   roundID,
		Admin:     admin,
		CloseTime: p.CloseTime,
		Stake:     p.Stake,
		Delay:     p.Delay,
		timestamp: ts,
	}
}

// AdminTransferredEvent is published when the admin capability moves.
type AdminTransferredEvent struct {
	Previous  string
	Current   string
	timestamp time.Time
}

func (e AdminTransferredEvent) EventType() EventType { return EventTypeAdminTransferred }
func (e AdminTransferredEvent) Timestamp() time.Time { return e.timestamp }

// NewAdminTransferredEvent creates an admin transferred event.
func NewAdminTransferredEvent(previous, current string, ts time.Time) AdminTransferredEvent {
	return AdminTransferredEvent{
		Previous:  previous,
		Current:   current,
		timestamp: ts,
	}
}

// Subscriber can subscribe to round events.
type Subscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription.
type EventBus interface {
	Subscribe(subscriber Subscriber)
	Unsubscribe(subscriber Subscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus implementation. Delivery
// is synchronous; subscribers must not block.
type SimpleEventBus struct {
	subscribers []Subscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]Subscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events.
func (bus *SimpleEventBus) Subscribe(subscriber Subscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events.
func (bus *SimpleEventBus) Unsubscribe(subscriber Subscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers.
func (bus *SimpleEventBus) Publish(event Event) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
