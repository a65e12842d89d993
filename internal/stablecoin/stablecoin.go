// Package stablecoin assembles the ledger, compliance engine, role registry and
// audit log of one token, and keeps its snapshot written through to a store.
package stablecoin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/compliance"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/snapshot"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// ErrPersist marks an operation that succeeded in memory but whose snapshot
// could not be written.
var ErrPersist = errors.New("stablecoin: state not saved")

// Options carries the collaborators injected into a token.
type Options struct {
	// Store receives the snapshot after every mutating call. Nil disables persistence.
	Store snapshot.Store
	// StrictSave makes mutating calls return write-through failures wrapped
	// in ErrPersist. The in-memory change is kept either way.
	StrictSave bool

	Logger    *logging.Logger
	Metrics   *metrics.Metrics
	Notifier  compliance.Notifier
	Predicate compliance.Predicate
	Verifier  ledger.Verifier

	// IDGenerator overrides synthetic transaction ids.
	IDGenerator ledger.IDGenerator
	// Clock overrides audit timestamps.
	Clock func() time.Time
	// AuditCapacity defaults to audit.DefaultCapacity.
	AuditCapacity int
	// AuditSink mirrors audit entries, e.g. to a JSON lines file.
	AuditSink audit.Sink
}

func (o Options) logger() *logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.NewDefault("stablecoin")
}

func (o Options) auditLog() *audit.Log {
	var opts []audit.Option
	if o.Clock != nil {
		opts = append(opts, audit.WithClock(o.Clock))
	}
	if o.AuditSink != nil {
		opts = append(opts, audit.WithSink(o.AuditSink))
	}
	return audit.New(o.AuditCapacity, opts...)
}

func (o Options) ledgerOptions(log *logging.Logger) []ledger.Option {
	opts := []ledger.Option{ledger.WithLogger(log), ledger.WithMetrics(o.Metrics)}
	if o.Verifier != nil {
		opts = append(opts, ledger.WithVerifier(o.Verifier))
	}
	if o.IDGenerator != nil {
		opts = append(opts, ledger.WithIDGenerator(o.IDGenerator))
	}
	return opts
}

func (o Options) complianceOptions(log *logging.Logger) []compliance.Option {
	return []compliance.Option{
		compliance.WithLogger(log),
		compliance.WithMetrics(o.Metrics),
		compliance.WithNotifier(o.Notifier),
		compliance.WithPredicate(o.Predicate),
	}
}

// Token is a single stablecoin instance.
type Token struct {
	roles      *roles.Registry
	audit      *audit.Log
	ledger     *ledger.Ledger
	compliance *compliance.Engine

	store   snapshot.Store
	strict  bool
	log     *logging.Logger
	metrics *metrics.Metrics
}

// Create initializes a new token with every role held by authority.
func Create(ctx context.Context, def token.Definition, authority string, opts Options) (*Token, error) {
	cfg, err := def.Resolve()
	if err != nil {
		return nil, err
	}
	reg, err := roles.NewRegistry(authority)
	if err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	mint, err := token.NewMintAddress()
	if err != nil {
		return nil, err
	}

	log := opts.logger()
	auditLog := opts.auditLog()
	l := ledger.New(mint, cfg, reg, auditLog, opts.ledgerOptions(log)...)
	t := &Token{
		roles:      reg,
		audit:      auditLog,
		ledger:     l,
		compliance: compliance.New(l, opts.complianceOptions(log)...),
		store:      opts.Store,
		strict:     opts.StrictSave,
		log:        log,
		metrics:    opts.Metrics,
	}

	auditLog.Record(audit.ActionInit, fmt.Sprintf("Initialized %s (%s) preset=%s decimals=%d", cfg.Name, cfg.Symbol, cfg.Preset, cfg.Decimals), "")
	log.WithFields(map[string]interface{}{
		"mint":   mint,
		"name":   cfg.Name,
		"symbol": cfg.Symbol,
		"preset": cfg.Preset,
	}).Info("token created")

	if err := t.persist(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Open restores the token stored under mint.
func Open(ctx context.Context, mint string, opts Options) (*Token, error) {
	if opts.Store == nil {
		return nil, errors.New("stablecoin: open requires a snapshot store")
	}
	snap, err := opts.Store.Load(ctx, mint)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap, opts), nil
}

// FromSnapshot rebuilds a token from snap without touching the store.
func FromSnapshot(snap *snapshot.Snapshot, opts Options) *Token {
	log := opts.logger()
	engines := snapshot.Restore(snap, opts.auditLog(), opts.ledgerOptions(log), opts.complianceOptions(log))
	opts.Metrics.SetTotalSupply(engines.Ledger.TotalSupply())
	return &Token{
		roles:      engines.Roles,
		audit:      engines.Audit,
		ledger:     engines.Ledger,
		compliance: engines.Compliance,
		store:      opts.Store,
		strict:     opts.StrictSave,
		log:        log,
		metrics:    opts.Metrics,
	}
}

// OpenOrCreate opens the stored token, creating it from def when none exists.
func OpenOrCreate(ctx context.Context, mint string, def token.Definition, authority string, opts Options) (*Token, bool, error) {
	if opts.Store != nil {
		t, err := Open(ctx, mint, opts)
		if err == nil {
			return t, false, nil
		}
		if !errors.Is(err, snapshot.ErrNotFound) {
			return nil, false, err
		}
	}
	t, err := Create(ctx, def, authority, opts)
	return t, err == nil, err
}

func (t *Token) Ledger() *ledger.Ledger         { return t.ledger }
func (t *Token) Compliance() *compliance.Engine { return t.compliance }
func (t *Token) Roles() *roles.Registry         { return t.roles }
func (t *Token) Audit() *audit.Log              { return t.audit }

// MintAddress identifies the token.
func (t *Token) MintAddress() string { return t.ledger.MintAddress() }

// Snapshot captures the current state.
func (t *Token) Snapshot() *snapshot.Snapshot {
	return snapshot.Capture(t.compliance, t.roles, t.audit)
}

// Save writes the snapshot to the store and reports failures.
func (t *Token) Save(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	return t.store.Save(ctx, t.Snapshot())
}

// persist writes the snapshot after a mutation. Failures are logged and only
// returned in strict mode.
func (t *Token) persist(ctx context.Context) error {
	err := t.Save(ctx)
	if err == nil {
		return nil
	}
	t.log.WithContext(ctx).WithError(err).Error("snapshot write-through failed")
	if !t.strict {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersist, err)
}
