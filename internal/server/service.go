package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lastpot/lastpot/internal/access"
	"github.com/lastpot/lastpot/internal/round"
)

// Error codes surfaced to clients. They mirror the engine's error kinds
// one to one so front-ends can branch without parsing messages.
const (
	CodeRoundNotActive            = "round_not_active"
	CodeRoundStillActive          = "round_still_active"
	CodeInsufficientBalance       = "insufficient_balance"
	CodeInsufficientAuthorization = "insufficient_authorization"
	CodeTransferFailed            = "transfer_failed"
	CodePrizeFundEmpty            = "prize_fund_empty"
	CodePrizeFundNotEmpty         = "prize_fund_not_empty"
	CodeUnauthorized              = "unauthorized"
	CodeInvalidParameter          = "invalid_parameter"
	CodeBadRequest                = "bad_request"
	CodeInternal                  = "internal"
)

// Service dispatches client operations onto the round ledger.
type Service struct {
	ledger *round.Ledger
	logger *log.Logger
}

// NewService creates a service around the given ledger.
func NewService(ledger *round.Ledger, logger *log.Logger) *Service {
	return &Service{
		ledger: ledger,
		logger: logger.WithPrefix("service"),
	}
}

// HandleMessage executes one client operation and returns the reply. The
// reply always carries the request ID of the inbound message.
func (s *Service) HandleMessage(msg *Message) *Message {
	reply, err := s.dispatch(msg)
	if err != nil {
		reply = s.errorMessage(err)
	}
	reply.RequestID = msg.RequestID
	return reply
}

func (s *Service) dispatch(msg *Message) (*Message, error) {
	switch msg.Type {
	case MessageTypePlaceBet:
		var data PlaceBetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, badRequest("malformed place_bet data", err)
		}
		if data.Bettor == "" {
			return nil, badRequest("bettor is required", nil)
		}
		if err := s.ledger.PlaceBet(data.Bettor); err != nil {
			return nil, err
		}
		return s.statusMessage()

	case MessageTypeClaimPrize:
		var data ClaimPrizeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, badRequest("malformed claim_prize data", err)
		}
		if data.Caller == "" {
			return nil, badRequest("caller is required", nil)
		}
		if err := s.ledger.ClaimPrize(data.Caller); err != nil {
			return nil, err
		}
		return s.statusMessage()

	case MessageTypeStartRound:
		var data StartRoundData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, badRequest("malformed start_round data", err)
		}
		params := round.Params{
			CloseTime: data.CloseTime,
			Stake:     data.Stake,
			Delay:     time.Duration(data.DelaySeconds) * time.Second,
		}
		if err := s.ledger.StartRound(data.Admin, params); err != nil {
			return nil, err
		}
		return s.statusMessage()

	case MessageTypeTransferAdmin:
		var data TransferAdminData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return nil, badRequest("malformed transfer_admin data", err)
		}
		if err := s.ledger.TransferAdmin(data.Caller, data.NewAdmin); err != nil {
			return nil, err
		}
		return NewMessage(MessageTypeAck, nil)

	case MessageTypeStatus:
		return s.statusMessage()

	default:
		return nil, badRequest(fmt.Sprintf("unknown message type %q", msg.Type), nil)
	}
}

func (s *Service) statusMessage() (*Message, error) {
	snap := s.ledger.Snapshot()
	return NewMessage(MessageTypeRoundStatus, RoundStatusData{
		RoundID:              snap.RoundID,
		Active:               snap.Active,
		Fund:                 snap.Fund,
		Stake:                snap.Stake,
		DelaySeconds:         int64(snap.Delay / time.Second),
		CloseTime:            snap.CloseTime,
		LastContributor:      snap.LastContributor,
		LastContributionTime: snap.LastContributionTime,
	})
}

func (s *Service) errorMessage(err error) *Message {
	code := errorCode(err)
	if code == CodeInternal {
		s.logger.Error("operation failed", "error", err)
	}
	msg, mErr := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: err.Error(),
	})
	if mErr != nil {
		// ErrorData marshalling cannot realistically fail; keep a valid reply anyway.
		return &Message{Type: MessageTypeError, Timestamp: time.Now()}
	}
	return msg
}

type requestError struct {
	msg   string
	cause error
}

func (e *requestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func badRequest(msg string, cause error) error {
	return &requestError{msg: msg, cause: cause}
}

func errorCode(err error) string {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return CodeBadRequest
	}
	if _, ok := round.IsInvalidParameter(err); ok {
		return CodeInvalidParameter
	}
	switch {
	case errors.Is(err, round.ErrRoundNotActive):
		return CodeRoundNotActive
	case errors.Is(err, round.ErrRoundStillActive):
		return CodeRoundStillActive
	case errors.Is(err, round.ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, round.ErrInsufficientAuthorization):
		return CodeInsufficientAuthorization
	case errors.Is(err, round.ErrTransferFailed):
		return CodeTransferFailed
	case errors.Is(err, round.ErrPrizeFundEmpty):
		return CodePrizeFundEmpty
	case errors.Is(err, round.ErrPrizeFundNotEmpty):
		return CodePrizeFundNotEmpty
	case errors.Is(err, access.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, access.ErrEmptyIdentity):
		return CodeInvalidParameter
	default:
		return CodeInternal
	}
}
