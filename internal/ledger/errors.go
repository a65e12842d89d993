package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("ledger: invalid amount")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrTokenPaused         = errors.New("ledger: token is paused")
	// ErrVerificationTimeout is returned when fiat verification does not finish in time.
	ErrVerificationTimeout = errors.New("ledger: fiat verification timed out")
)
