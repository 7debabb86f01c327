package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies a websocket message.
type MessageType string

// Client -> server message types
const (
	MessageTypePlaceBet      MessageType = "place_bet"
	MessageTypeClaimPrize    MessageType = "claim_prize"
	MessageTypeStartRound    MessageType = "start_round"
	MessageTypeTransferAdmin MessageType = "transfer_admin"
	MessageTypeStatus        MessageType = "status"
)

// Server -> client message types
const (
	MessageTypeAck         MessageType = "ack"
	MessageTypeError       MessageType = "error"
	MessageTypeRoundStatus MessageType = "round_status"
	MessageTypeRoundEvent  MessageType = "round_event"
)

// Message is the base websocket message envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	var dataBytes json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		dataBytes = b
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client -> Server payloads

type PlaceBetData struct {
	Bettor string `json:"bettor"`
}

type ClaimPrizeData struct {
	Caller string `json:"caller"`
}

type StartRoundData struct {
	Admin        string    `json:"admin"`
	CloseTime    time.Time `json:"closeTime"`
	Stake        int64     `json:"stake"`
	DelaySeconds int64     `json:"delaySeconds"`
}

type TransferAdminData struct {
	Caller   string `json:"caller"`
	NewAdmin string `json:"newAdmin"`
}

// Server -> Client payloads

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoundStatusData struct {
	RoundID              string    `json:"roundId"`
	Active               bool      `json:"active"`
	Fund                 int64     `json:"fund"`
	Stake                int64     `json:"stake"`
	DelaySeconds         int64     `json:"delaySeconds"`
	CloseTime            time.Time `json:"closeTime"`
	LastContributor      string    `json:"lastContributor,omitempty"`
	LastContributionTime time.Time `json:"lastContributionTime,omitzero"`
}

// RoundEventData is the broadcast form of a round event. Identity carries
// the bettor, winner or new admin depending on the event type.
type RoundEventData struct {
	Event     string    `json:"event"`
	RoundID   string    `json:"roundId,omitempty"`
	Identity  string    `json:"identity,omitempty"`
	Caller    string    `json:"caller,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Fund      int64     `json:"fund,omitempty"`
	CloseTime time.Time `json:"closeTime,omitzero"`
	Timestamp time.Time `json:"eventTimestamp"`
}
