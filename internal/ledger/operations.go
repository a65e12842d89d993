package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// Result describes a completed mint or burn.
type Result struct {
	Address     string `json:"address"`
	Amount      int64  `json:"amount"`
	NewBalance  int64  `json:"newBalance"`
	TotalSupply int64  `json:"totalSupply"`
	TxID        string `json:"txId"`
}

func requireAccount(address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: empty account address", token.ErrAddressParse)
	}
	return nil
}

// Mint credits amount to destination and grows the supply. The actor must hold
// the minter role. Fiat verification runs before any state changes; the pause
// flag is checked both before and after it.
func (l *Ledger) Mint(ctx context.Context, actor roles.Actor, amount float64, destination string) (Result, error) {
	res, err := l.doMint(ctx, actor, amount, destination)
	l.metrics.RecordOperation(string(audit.ActionMint), err)
	return res, err
}

func (l *Ledger) doMint(ctx context.Context, actor roles.Actor, amount float64, destination string) (Result, error) {
	amt, err := Normalize(amount)
	if err != nil {
		return Result{}, err
	}
	if err := requireAccount(destination); err != nil {
		return Result{}, err
	}
	if err := l.roles.Authorize(actor, roles.Minter); err != nil {
		return Result{}, err
	}
	if l.Paused() {
		return Result{}, ErrTokenPaused
	}

	if err := l.verifier.Verify(ctx, amt, destination); err != nil {
		return Result{}, fmt.Errorf("verify fiat deposit: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		return Result{}, ErrTokenPaused
	}
	if amt > math.MaxInt64-l.supply {
		return Result{}, fmt.Errorf("%w: supply would overflow", ErrInvalidAmount)
	}

	l.balances[destination] += amt
	l.supply += amt
	txID := l.newID("tx_mint")
	l.audit.Record(audit.ActionMint, fmt.Sprintf("Minted %d to %s", amt, destination), txID)
	l.metrics.SetTotalSupply(l.supply)

	l.log.WithFields(map[string]interface{}{
		"amount":       amt,
		"destination":  destination,
		"total_supply": l.supply,
		"tx_id":        txID,
	}).Info("mint completed")

	return Result{
		Address:     destination,
		Amount:      amt,
		NewBalance:  l.balances[destination],
		TotalSupply: l.supply,
		TxID:        txID,
	}, nil
}

// Burn debits amount from source and shrinks the supply. The actor must hold the
// burner role. The pause flag does not apply.
func (l *Ledger) Burn(ctx context.Context, actor roles.Actor, amount float64, source string) (Result, error) {
	res, err := l.doBurn(ctx, actor, amount, source)
	l.metrics.RecordOperation(string(audit.ActionBurn), err)
	return res, err
}

func (l *Ledger) doBurn(_ context.Context, actor roles.Actor, amount float64, source string) (Result, error) {
	amt, err := Normalize(amount)
	if err != nil {
		return Result{}, err
	}
	if err := requireAccount(source); err != nil {
		return Result{}, err
	}
	if err := l.roles.Authorize(actor, roles.Burner); err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.balances[source]
	if current < amt {
		return Result{}, fmt.Errorf("%w: %s holds %d, requested %d", ErrInsufficientBalance, source, current, amt)
	}

	l.balances[source] = current - amt
	l.supply -= amt
	txID := l.newID("tx_burn")
	l.audit.Record(audit.ActionBurn, fmt.Sprintf("Burned %d from %s", amt, source), txID)
	l.metrics.SetTotalSupply(l.supply)

	l.log.WithFields(map[string]interface{}{
		"amount":       amt,
		"source":       source,
		"total_supply": l.supply,
		"tx_id":        txID,
	}).Info("burn completed")

	return Result{
		Address:     source,
		Amount:      amt,
		NewBalance:  l.balances[source],
		TotalSupply: l.supply,
		TxID:        txID,
	}, nil
}

// Pause blocks further mints. Requires the pauser role.
func (l *Ledger) Pause(actor roles.Actor) (string, error) {
	return l.setPaused(actor, true)
}

// Unpause lifts the mint block. Requires the pauser role.
func (l *Ledger) Unpause(actor roles.Actor) (string, error) {
	return l.setPaused(actor, false)
}

func (l *Ledger) setPaused(actor roles.Actor, paused bool) (string, error) {
	action, prefix := audit.ActionPause, "tx_pause"
	if !paused {
		action, prefix = audit.ActionUnpause, "tx_unpause"
	}
	if err := l.roles.Authorize(actor, roles.Pauser); err != nil {
		l.metrics.RecordOperation(string(action), err)
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.paused = paused
	txID := l.newID(prefix)
	state := "paused"
	if !paused {
		state = "unpaused"
	}
	l.audit.Record(action, fmt.Sprintf("Token %s by %s", state, actor.Address), txID)
	l.metrics.RecordOperation(string(action), nil)
	return txID, nil
}

// Move transfers a balance between accounts without touching the supply.
// A nil amount moves the full balance of from. It performs no role check and
// writes no audit entry; callers own both.
func (l *Ledger) Move(from, to string, amount *float64) (int64, error) {
	if err := requireAccount(from); err != nil {
		return 0, err
	}
	if err := requireAccount(to); err != nil {
		return 0, err
	}

	var requested int64
	if amount != nil {
		amt, err := Normalize(*amount)
		if err != nil {
			return 0, err
		}
		requested = amt
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[from]
	if amount == nil {
		requested = balance
	}
	if requested <= 0 || requested > balance {
		return 0, fmt.Errorf("%w: %s holds %d, requested %d", ErrInsufficientBalance, from, balance, requested)
	}

	l.balances[from] = balance - requested
	l.balances[to] += requested
	return requested, nil
}

// NewTxID issues a transaction id through the ledger's generator.
func (l *Ledger) NewTxID(prefix string) string {
	return l.newID(prefix)
}
