// Package compliance implements blacklist, freeze, seizure and suspicious-activity
// monitoring on top of a token ledger.
package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// FrozenReason tags blacklist entries created by Freeze.
const FrozenReason = "frozen by pauser"

// DefaultReason is stored when a blacklist request carries no reason.
const DefaultReason = "No reason"

// Notifier receives human-readable alerts. Implementations must not block.
type Notifier interface {
	SendAlert(title, message string)
}

type noopNotifier struct{}

func (noopNotifier) SendAlert(string, string) {}

// Entry is one blacklisted address.
type Entry struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// SeizeResult describes a completed seizure.
type SeizeResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	TxID   string `json:"txId"`
}

// FreezeResult reports whether a freeze or thaw changed anything.
type FreezeResult struct {
	Address string `json:"address"`
	Changed bool   `json:"changed"`
	TxID    string `json:"txId"`
}

// Engine owns the blacklist of one token.
type Engine struct {
	mu        sync.RWMutex
	blacklist map[string]string

	ledger    *ledger.Ledger
	roles     *roles.Registry
	audit     *audit.Log
	notifier  Notifier
	predicate Predicate
	log       *logging.Logger
	metrics   *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithPredicate replaces the suspicious-signature heuristic.
func WithPredicate(p Predicate) Option {
	return func(e *Engine) {
		if p != nil {
			e.predicate = p
		}
	}
}

func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates a compliance engine over l. Roles and audit are shared with l.
func New(l *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{
		blacklist: make(map[string]string),
		ledger:    l,
		roles:     l.Roles(),
		audit:     l.Audit(),
		notifier:  noopNotifier{},
		predicate: DefaultPredicate,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.NewDefault("compliance")
	}
	return e
}

// Restore creates an engine whose blacklist is a copy of entries.
func Restore(l *ledger.Ledger, entries map[string]string, opts ...Option) *Engine {
	e := New(l, opts...)
	for addr, reason := range entries {
		e.blacklist[addr] = reason
	}
	return e
}

func (e *Engine) ensureEnabled(action string) error {
	if !e.ledger.Config().ComplianceEnabled() {
		return fmt.Errorf("%w: %s", ErrComplianceNotEnabled, action)
	}
	return nil
}

func (e *Engine) record(action audit.Action, err error) {
	e.metrics.RecordOperation(string(action), err)
}

// BlacklistAdd blocks address, overwriting any previous reason, and returns the
// blacklist size.
func (e *Engine) BlacklistAdd(ctx context.Context, actor roles.Actor, address, reason string) (int, error) {
	count, err := e.blacklistAdd(ctx, actor, address, reason)
	e.record(audit.ActionBlacklistAdd, err)
	return count, err
}

func (e *Engine) blacklistAdd(ctx context.Context, actor roles.Actor, address, reason string) (int, error) {
	if err := e.ensureEnabled("blacklist add"); err != nil {
		return 0, err
	}
	if err := requireAccount(address); err != nil {
		return 0, err
	}
	if err := e.roles.Authorize(actor, roles.Blacklister); err != nil {
		return 0, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultReason
	}

	e.mu.Lock()
	e.blacklist[address] = reason
	count := len(e.blacklist)
	e.audit.Record(audit.ActionBlacklistAdd, fmt.Sprintf("%s :: %s", address, reason), "")
	e.mu.Unlock()

	e.log.WithContext(ctx).WithFields(map[string]interface{}{"address": address, "reason": reason}).Info("address blacklisted")
	e.notifier.SendAlert("Address Blacklisted", fmt.Sprintf("Address: `%s`\nReason: **%s**", address, reason))
	return count, nil
}

// BlacklistRemove clears address and returns the blacklist size.
func (e *Engine) BlacklistRemove(ctx context.Context, actor roles.Actor, address string) (int, error) {
	count, err := e.blacklistRemove(ctx, actor, address)
	e.record(audit.ActionBlacklistRemove, err)
	return count, err
}

func (e *Engine) blacklistRemove(ctx context.Context, actor roles.Actor, address string) (int, error) {
	if err := e.ensureEnabled("blacklist remove"); err != nil {
		return 0, err
	}
	if err := e.roles.Authorize(actor, roles.Blacklister); err != nil {
		return 0, err
	}

	e.mu.Lock()
	reason, ok := e.blacklist[address]
	if !ok {
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrNotBlacklisted, address)
	}
	delete(e.blacklist, address)
	count := len(e.blacklist)
	e.audit.Record(audit.ActionBlacklistRemove, fmt.Sprintf("%s :: %s", address, reason), "")
	e.mu.Unlock()

	e.log.WithContext(ctx).WithField("address", address).Info("address removed from blacklist")
	e.notifier.SendAlert("Address Removed From Blacklist", fmt.Sprintf("Address: `%s`\nPrevious Reason: **%s**", address, reason))
	return count, nil
}

// Seize moves funds from a sanctioned account to to. A nil amount takes the full
// balance. While the blacklist is empty any account may be targeted.
func (e *Engine) Seize(ctx context.Context, actor roles.Actor, from, to string, amount *float64) (SeizeResult, error) {
	res, err := e.seize(ctx, actor, from, to, amount)
	e.record(audit.ActionSeize, err)
	return res, err
}

func (e *Engine) seize(ctx context.Context, actor roles.Actor, from, to string, amount *float64) (SeizeResult, error) {
	if err := e.ensureEnabled("seize"); err != nil {
		return SeizeResult{}, err
	}
	if err := e.roles.Authorize(actor, roles.Seizer); err != nil {
		return SeizeResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.blacklist) > 0 {
		if _, ok := e.blacklist[from]; !ok {
			return SeizeResult{}, fmt.Errorf("%w: %s", ErrTargetNotBlacklisted, from)
		}
	}

	moved, err := e.ledger.Move(from, to, amount)
	if err != nil {
		return SeizeResult{}, err
	}

	txID := e.ledger.NewTxID("tx_seize")
	e.audit.Record(audit.ActionSeize, fmt.Sprintf("Seized %d from %s to %s", moved, from, to), txID)
	e.log.WithContext(ctx).WithFields(map[string]interface{}{
		"from":   from,
		"to":     to,
		"amount": moved,
		"tx_id":  txID,
	}).Warn("funds seized")

	return SeizeResult{From: from, To: to, Amount: moved, TxID: txID}, nil
}

// Freeze tags address as frozen unless it is already on the blacklist.
// Requires the pauser role; available on every preset.
func (e *Engine) Freeze(ctx context.Context, actor roles.Actor, address string) (FreezeResult, error) {
	res, err := e.freeze(ctx, actor, address)
	e.record(audit.ActionFreeze, err)
	return res, err
}

func (e *Engine) freeze(ctx context.Context, actor roles.Actor, address string) (FreezeResult, error) {
	if err := requireAccount(address); err != nil {
		return FreezeResult{}, err
	}
	if err := e.roles.Authorize(actor, roles.Pauser); err != nil {
		return FreezeResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	txID := e.ledger.NewTxID("tx_freeze")
	if _, exists := e.blacklist[address]; exists {
		return FreezeResult{Address: address, TxID: txID}, nil
	}
	e.blacklist[address] = FrozenReason
	e.audit.Record(audit.ActionFreeze, fmt.Sprintf("Froze %s", address), txID)
	e.log.WithContext(ctx).WithField("address", address).Info("account frozen")
	return FreezeResult{Address: address, Changed: true, TxID: txID}, nil
}

// Thaw removes a freeze. Entries with any other reason are left alone.
func (e *Engine) Thaw(ctx context.Context, actor roles.Actor, address string) (FreezeResult, error) {
	res, err := e.thaw(ctx, actor, address)
	e.record(audit.ActionThaw, err)
	return res, err
}

func (e *Engine) thaw(ctx context.Context, actor roles.Actor, address string) (FreezeResult, error) {
	if err := requireAccount(address); err != nil {
		return FreezeResult{}, err
	}
	if err := e.roles.Authorize(actor, roles.Pauser); err != nil {
		return FreezeResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	txID := e.ledger.NewTxID("tx_thaw")
	if e.blacklist[address] != FrozenReason {
		return FreezeResult{Address: address, TxID: txID}, nil
	}
	delete(e.blacklist, address)
	e.audit.Record(audit.ActionThaw, fmt.Sprintf("Thawed %s", address), txID)
	e.log.WithContext(ctx).WithField("address", address).Info("account thawed")
	return FreezeResult{Address: address, Changed: true, TxID: txID}, nil
}

// MonitorSuspiciousActivity runs the predicate over signature, recording and
// alerting on a hit. It reports whether the signature was flagged.
func (e *Engine) MonitorSuspiciousActivity(ctx context.Context, signature string) bool {
	if !e.predicate.Suspicious(signature) {
		return false
	}

	e.LogComplianceEvent(audit.ActionSuspiciousTransfer, signature)
	e.log.WithContext(ctx).WithField("signature", signature).Warn("suspicious transaction detected")
	e.notifier.SendAlert("Suspicious Activity Detected", fmt.Sprintf("Tx Signature: `%s`\nFlag: Algorithmic anomaly", signature))
	e.record(audit.ActionSuspiciousTransfer, nil)
	return true
}

// LogComplianceEvent appends an audit entry unconditionally.
func (e *Engine) LogComplianceEvent(action audit.Action, details string) audit.Entry {
	entry := e.audit.Record(action, details, "")
	e.log.WithFields(map[string]interface{}{"action": action, "details": details}).Info("compliance event")
	return entry
}

// IsBlacklisted reports whether address has a blacklist entry of any reason.
func (e *Engine) IsBlacklisted(address string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.blacklist[address]
	return ok
}

// Reason returns the stored reason for address.
func (e *Engine) Reason(address string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reason, ok := e.blacklist[address]
	return reason, ok
}

// List returns every entry ordered by address.
func (e *Engine) List() []Entry {
	e.mu.RLock()
	entries := make([]Entry, 0, len(e.blacklist))
	for addr, reason := range e.blacklist {
		entries = append(entries, Entry{Address: addr, Reason: reason})
	}
	e.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })
	return entries
}

// Count returns the number of blacklist entries, frozen accounts included.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.blacklist)
}

// Snapshot returns a copy of the blacklist.
func (e *Engine) Snapshot() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.blacklist))
	for addr, reason := range e.blacklist {
		out[addr] = reason
	}
	return out
}

func requireAccount(address string) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: empty account address", token.ErrAddressParse)
	}
	return nil
}

// Checkpoint returns the ledger state and the blacklist captured under one lock,
// so a concurrent seizure cannot land between the two reads.
func (e *Engine) Checkpoint() (ledger.State, map[string]string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.blacklist))
	for addr, reason := range e.blacklist {
		out[addr] = reason
	}
	return e.ledger.State(), out
}
