package compliance

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

const (
	authority = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	other     = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

var master = roles.As(authority)

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) SendAlert(title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

func (n *recordingNotifier) Titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.titles...)
}

func newEngine(t *testing.T, preset string, opts ...Option) (*Engine, *ledger.Ledger) {
	t.Helper()
	reg, err := roles.NewRegistry(authority)
	require.NoError(t, err)
	cfg, err := token.Definition{Name: "Test USD", Symbol: "TUSD", Preset: preset}.Resolve()
	require.NoError(t, err)

	l := ledger.New("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", cfg, reg, audit.New(audit.DefaultCapacity),
		ledger.WithVerifier(nil), ledger.WithLogger(logging.NewDiscard()))
	base := []Option{WithLogger(logging.NewDiscard())}
	return New(l, append(base, opts...)...), l
}

func TestComplianceGate(t *testing.T) {
	e, _ := newEngine(t, "sss-1")
	ctx := context.Background()

	_, err := e.BlacklistAdd(ctx, master, "X", "reason")
	assert.ErrorIs(t, err, ErrComplianceNotEnabled)
	_, err = e.BlacklistRemove(ctx, master, "X")
	assert.ErrorIs(t, err, ErrComplianceNotEnabled)
	_, err = e.Seize(ctx, master, "X", "T", nil)
	assert.ErrorIs(t, err, ErrComplianceNotEnabled)
}

func TestBlacklistRoundTrip(t *testing.T) {
	notifier := &recordingNotifier{}
	e, _ := newEngine(t, "sss-2", WithNotifier(notifier))
	ctx := context.Background()

	count, err := e.BlacklistAdd(ctx, master, "X", "reason")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, e.IsBlacklisted("X"))

	count, err = e.BlacklistRemove(ctx, master, "X")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, e.IsBlacklisted("X"))

	_, err = e.BlacklistRemove(ctx, master, "X")
	assert.ErrorIs(t, err, ErrNotBlacklisted)

	assert.Equal(t, []string{"Address Blacklisted", "Address Removed From Blacklist"}, notifier.Titles())
	assert.Len(t, e.audit.Query("blacklist_add"), 1)
	assert.Len(t, e.audit.Query("blacklist_remove"), 1)
}

func TestBlacklistAddOverwritesReason(t *testing.T) {
	e, _ := newEngine(t, "sss-2")
	ctx := context.Background()

	_, err := e.BlacklistAdd(ctx, master, "X", "first")
	require.NoError(t, err)
	count, err := e.BlacklistAdd(ctx, master, "X", "")
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	reason, ok := e.Reason("X")
	require.True(t, ok)
	assert.Equal(t, DefaultReason, reason)
}

func TestBlacklistRequiresBlacklister(t *testing.T) {
	e, _ := newEngine(t, "sss-2")
	_, err := e.BlacklistAdd(context.Background(), roles.As(other), "X", "r")
	assert.ErrorIs(t, err, roles.ErrUnauthorized)
	assert.Zero(t, e.Count())
}

func TestSeizeRequiresBlacklistedTarget(t *testing.T) {
	e, l := newEngine(t, "sss-2")
	ctx := context.Background()
	_, err := l.Mint(ctx, master, 40, "Y")
	require.NoError(t, err)
	_, err = l.Mint(ctx, master, 10, "Z")
	require.NoError(t, err)
	_, err = e.BlacklistAdd(ctx, master, "Y", "sanctioned")
	require.NoError(t, err)

	_, err = e.Seize(ctx, master, "Z", "T", nil)
	assert.ErrorIs(t, err, ErrTargetNotBlacklisted)
	assert.Equal(t, int64(10), l.BalanceOf("Z"))

	res, err := e.Seize(ctx, master, "Y", "T", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.Amount)
	assert.Zero(t, l.BalanceOf("Y"))
	assert.Equal(t, int64(40), l.BalanceOf("T"))
	assert.Equal(t, int64(50), l.TotalSupply())
	assert.Contains(t, res.TxID, "tx_seize_")
}

func TestSeizeWithEmptyBlacklistTargetsAnyone(t *testing.T) {
	e, l := newEngine(t, "sss-2")
	ctx := context.Background()
	_, err := l.Mint(ctx, master, 25, "Z")
	require.NoError(t, err)

	res, err := e.Seize(ctx, master, "Z", "T", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Amount)
}

func TestSeizeAmountResolution(t *testing.T) {
	e, l := newEngine(t, "sss-2")
	ctx := context.Background()
	_, err := l.Mint(ctx, master, 100, "Y")
	require.NoError(t, err)
	_, err = e.BlacklistAdd(ctx, master, "Y", "sanctioned")
	require.NoError(t, err)

	tooMuch := 101.0
	_, err = e.Seize(ctx, master, "Y", "T", &tooMuch)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	part := 30.9
	res, err := e.Seize(ctx, master, "Y", "T", &part)
	require.NoError(t, err)
	assert.Equal(t, int64(30), res.Amount)
	assert.Equal(t, int64(70), l.BalanceOf("Y"))

	_, err = e.Seize(ctx, master, "empty", "T", nil)
	assert.ErrorIs(t, err, ErrTargetNotBlacklisted)

	_, err = e.BlacklistAdd(ctx, master, "empty", "sanctioned")
	require.NoError(t, err)
	_, err = e.Seize(ctx, master, "empty", "T", nil)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestSeizeRequiresSeizer(t *testing.T) {
	e, l := newEngine(t, "sss-2")
	ctx := context.Background()
	require.NoError(t, l.Roles().UpdateRole(master, roles.Seizer, other))

	_, err := e.Seize(ctx, master, "Y", "T", nil)
	assert.ErrorIs(t, err, roles.ErrUnauthorized)
}

func TestFreezeAndThaw(t *testing.T) {
	e, _ := newEngine(t, "sss-1")
	ctx := context.Background()

	res, err := e.Freeze(ctx, master, "F")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	reason, _ := e.Reason("F")
	assert.Equal(t, FrozenReason, reason)

	res, err = e.Thaw(ctx, master, "F")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, e.IsBlacklisted("F"))

	assert.Len(t, e.audit.Query("freeze"), 1)
	assert.Len(t, e.audit.Query("thaw"), 1)
}

func TestFreezeKeepsExistingBlacklistReason(t *testing.T) {
	e, _ := newEngine(t, "sss-2")
	ctx := context.Background()
	_, err := e.BlacklistAdd(ctx, master, "B", "sanctioned")
	require.NoError(t, err)

	res, err := e.Freeze(ctx, master, "B")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	res, err = e.Thaw(ctx, master, "B")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	reason, ok := e.Reason("B")
	require.True(t, ok)
	assert.Equal(t, "sanctioned", reason)
}

func TestFreezeRequiresPauser(t *testing.T) {
	e, _ := newEngine(t, "sss-1")
	_, err := e.Freeze(context.Background(), roles.As(other), "F")
	assert.ErrorIs(t, err, roles.ErrUnauthorized)
}

func TestMonitorSuspiciousActivity(t *testing.T) {
	notifier := &recordingNotifier{}
	e, _ := newEngine(t, "sss-1", WithNotifier(notifier))
	ctx := context.Background()

	assert.True(t, e.MonitorSuspiciousActivity(ctx, "5xMaLiCiOuSsig"))
	assert.False(t, e.MonitorSuspiciousActivity(ctx, "5xCleanSignature"))

	entries := e.audit.Query("suspicious_transfer")
	require.Len(t, entries, 1)
	assert.Equal(t, "5xMaLiCiOuSsig", entries[0].Details)
	assert.Equal(t, []string{"Suspicious Activity Detected"}, notifier.Titles())
}

func TestCustomPredicate(t *testing.T) {
	e, _ := newEngine(t, "sss-1", WithPredicate(PredicateFunc(func(sig string) bool { return sig == "flag-me" })))
	assert.True(t, e.MonitorSuspiciousActivity(context.Background(), "flag-me"))
	assert.False(t, e.MonitorSuspiciousActivity(context.Background(), "malicious-but-ignored"))
}

func TestLogComplianceEventUnconditional(t *testing.T) {
	e, _ := newEngine(t, "sss-1")
	entry := e.LogComplianceEvent(audit.ActionSeize, "5xSeizeSig")
	assert.Equal(t, audit.ActionSeize, entry.Action)
	assert.Len(t, e.audit.Query("seize"), 1)
}

func TestEndToEndSeizeScenario(t *testing.T) {
	e, l := newEngine(t, "sss-2")
	ctx := context.Background()

	_, err := l.Mint(ctx, master, 1000, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), l.TotalSupply())

	_, err = e.BlacklistAdd(ctx, master, "alice", "test")
	require.NoError(t, err)

	_, err = e.Seize(ctx, master, "alice", "treasury", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), l.BalanceOf("treasury"))
	assert.Zero(t, l.BalanceOf("alice"))
	assert.Equal(t, int64(1000), l.TotalSupply())
}

func TestRestoreCopiesEntries(t *testing.T) {
	_, l := newEngine(t, "sss-2")
	src := map[string]string{"A": "r1", "B": FrozenReason}
	e := Restore(l, src, WithLogger(logging.NewDiscard()))
	src["C"] = "late"

	assert.Equal(t, 2, e.Count())
	assert.Equal(t, []Entry{{"A", "r1"}, {"B", FrozenReason}}, e.List())
}

func TestCheckpointIsConsistent(t *testing.T) {
	e, l := newEngine(t, "sss-2")
	ctx := context.Background()
	_, err := l.Mint(ctx, master, 10, "A")
	require.NoError(t, err)
	_, err = e.BlacklistAdd(ctx, master, "A", "r")
	require.NoError(t, err)

	state, blacklist := e.Checkpoint()
	assert.Equal(t, int64(10), state.Balances["A"])
	assert.Equal(t, "r", blacklist["A"])
}
