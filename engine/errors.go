package engine

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the coordinators. Validation kinds are final and
// must not be retried; ErrLedger wraps transient store failures and is safe
// to retry with backoff.
var (
	ErrRoundNotFound       = errors.New("round not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRoundNotJoinable    = errors.New("round not joinable")
	ErrInvalidStakeAmount  = errors.New("stake amount does not match round stake")
	ErrInvalidSource       = errors.New("unknown stake source")
	ErrLedger              = errors.New("ledger store failure")
)

func ledgerErr(err error) error {
	return fmt.Errorf("%w: %v", ErrLedger, err)
}
