// Package ledger implements the balance table and supply accounting of a token.
package ledger

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// IDGenerator produces synthetic transaction identifiers.
type IDGenerator func(prefix string) string

// NewTxID returns prefix followed by a random suffix, e.g. "tx_mint_3f2a9c1d0b7e".
func NewTxID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Holder is one row of the balance table.
type Holder struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// State is the persisted projection of a ledger.
type State struct {
	Mint        string
	Config      token.Config
	Paused      bool
	TotalSupply int64
	Balances    map[string]int64
}

// Ledger owns balances, the supply counter and the pause flag of one token.
type Ledger struct {
	mu       sync.RWMutex
	mint     string
	cfg      token.Config
	balances map[string]int64
	supply   int64
	paused   bool

	roles    *roles.Registry
	audit    *audit.Log
	verifier Verifier
	newID    IDGenerator
	log      *logging.Logger
	metrics  *metrics.Metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithVerifier replaces the fiat verification step run before every mint.
func WithVerifier(v Verifier) Option {
	return func(l *Ledger) {
		if v == nil {
			v = noopVerifier{}
		}
		l.verifier = v
	}
}

// WithIDGenerator replaces the transaction id source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(l *Ledger) { l.newID = gen }
}

func WithLogger(log *logging.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New creates an empty ledger for mint.
func New(mint string, cfg token.Config, reg *roles.Registry, log *audit.Log, opts ...Option) *Ledger {
	l := &Ledger{
		mint:     mint,
		cfg:      cfg,
		balances: make(map[string]int64),
		roles:    reg,
		audit:    log,
		verifier: DelayVerifier{Delay: DefaultVerifyDelay},
		newID:    NewTxID,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logging.NewDefault("ledger")
	}
	return l
}

// Restore rebuilds a ledger from persisted state. Negative balances are dropped to
// zero and the supply counter is recomputed from the balances when they disagree.
func Restore(state State, reg *roles.Registry, log *audit.Log, opts ...Option) *Ledger {
	l := New(state.Mint, state.Config, reg, log, opts...)
	l.paused = state.Paused

	var sum int64
	for addr, bal := range state.Balances {
		if bal < 0 {
			l.log.WithFields(map[string]interface{}{"address": addr, "balance": bal}).Warn("negative balance in stored state, resetting to zero")
			bal = 0
		}
		l.balances[addr] = bal
		sum += bal
	}
	if sum != state.TotalSupply {
		l.log.WithFields(map[string]interface{}{"stored": state.TotalSupply, "computed": sum}).Warn("stored supply disagrees with balances, using computed value")
	}
	l.supply = sum
	l.metrics.SetTotalSupply(sum)
	return l
}

// State returns a copy of everything needed to restore the ledger.
func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balances := make(map[string]int64, len(l.balances))
	for addr, bal := range l.balances {
		balances[addr] = bal
	}
	return State{
		Mint:        l.mint,
		Config:      l.cfg,
		Paused:      l.paused,
		TotalSupply: l.supply,
		Balances:    balances,
	}
}

// MintAddress returns the address identifying the token.
func (l *Ledger) MintAddress() string { return l.mint }

func (l *Ledger) Config() token.Config { return l.cfg }

func (l *Ledger) Roles() *roles.Registry { return l.roles }

func (l *Ledger) Audit() *audit.Log { return l.audit }

// Paused reports the pause flag.
func (l *Ledger) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// TotalSupply returns the running supply counter.
func (l *Ledger) TotalSupply() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply
}

// BalanceOf returns the balance of address, zero when unknown.
func (l *Ledger) BalanceOf(address string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[address]
}

// Reconcile returns the supply counter and the recomputed sum of balances.
func (l *Ledger) Reconcile() (counter, sum int64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, bal := range l.balances {
		sum += bal
	}
	return l.supply, sum
}

// ListHolders returns accounts with balance >= minBalance, largest first.
func (l *Ledger) ListHolders(minBalance int64) []Holder {
	l.mu.RLock()
	holders := make([]Holder, 0, len(l.balances))
	for addr, bal := range l.balances {
		if bal >= minBalance {
			holders = append(holders, Holder{Address: addr, Balance: bal})
		}
	}
	l.mu.RUnlock()

	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Balance != holders[j].Balance {
			return holders[i].Balance > holders[j].Balance
		}
		return holders[i].Address < holders[j].Address
	})
	return holders
}

// HolderCount counts accounts with a positive balance.
func (l *Ledger) HolderCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, bal := range l.balances {
		if bal > 0 {
			n++
		}
	}
	return n
}
