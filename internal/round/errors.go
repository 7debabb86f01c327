package round

import (
	"errors"
	"fmt"
)

// Every failure surfaced by the engine is terminal for that call; nothing
// is retried and no error is swallowed.
var (
	ErrRoundNotActive            = errors.New("round is not active")
	ErrRoundStillActive          = errors.New("round is still active")
	ErrInsufficientBalance       = errors.New("insufficient balance for stake")
	ErrInsufficientAuthorization = errors.New("insufficient spend authorization for stake")
	ErrTransferFailed            = errors.New("ledger transfer failed")
	ErrPrizeFundEmpty            = errors.New("prize fund is empty")
	ErrPrizeFundNotEmpty         = errors.New("prize fund has not been claimed")
)

// InvalidParameterError reports which round parameter failed validation.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// IsInvalidParameter reports whether err is an InvalidParameterError,
// optionally returning it for field inspection.
func IsInvalidParameter(err error) (*InvalidParameterError, bool) {
	var ipe *InvalidParameterError
	if errors.As(err, &ipe) {
		return ipe, true
	}
	return nil, false
}
