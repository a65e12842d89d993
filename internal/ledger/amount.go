package ledger

import (
	"fmt"
	"math"
)

// Normalize truncates amount toward zero and rejects anything that is not a
// positive whole number afterwards.
func Normalize(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, amount)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %v must be greater than zero", ErrInvalidAmount, amount)
	}
	whole := math.Trunc(amount)
	if whole < 1 {
		return 0, fmt.Errorf("%w: %v truncates to zero", ErrInvalidAmount, amount)
	}
	if whole >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is too large", ErrInvalidAmount, amount)
	}
	return int64(whole), nil
}
