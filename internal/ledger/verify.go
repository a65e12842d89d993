package ledger

import (
	"context"
	"fmt"
	"time"
)

// DefaultVerifyDelay stands in for the latency of a fiat deposit check.
const DefaultVerifyDelay = 800 * time.Millisecond

// Verifier confirms collateral backing a mint before balances change.
type Verifier interface {
	Verify(ctx context.Context, amount int64, destination string) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, amount int64, destination string) error

func (f VerifierFunc) Verify(ctx context.Context, amount int64, destination string) error {
	return f(ctx, amount, destination)
}

// DelayVerifier waits Delay and then approves. A positive Timeout bounds the wait.
type DelayVerifier struct {
	Delay   time.Duration
	Timeout time.Duration
}

func (v DelayVerifier) Verify(ctx context.Context, amount int64, destination string) error {
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}
	if v.Delay <= 0 {
		if err := ctx.Err(); err != nil {
			return verificationAborted(err, amount, destination)
		}
		return nil
	}

	timer := time.NewTimer(v.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return verificationAborted(ctx.Err(), amount, destination)
	}
}

// verificationAborted reports an expired or cancelled wait as
// ErrVerificationTimeout while keeping the context cause matchable.
func verificationAborted(cause error, amount int64, destination string) error {
	return fmt.Errorf("%w: %d to %s: %w", ErrVerificationTimeout, amount, destination, cause)
}

type noopVerifier struct{}

func (noopVerifier) Verify(context.Context, int64, string) error { return nil }
