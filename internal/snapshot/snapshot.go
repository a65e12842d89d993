// Package snapshot serializes and restores the complete state of a token.
package snapshot

import (
	"context"
	"errors"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/compliance"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// DefaultFileName is the well-known state file in the working directory.
const DefaultFileName = ".sss-token-state.json"

// ErrNotFound is returned by stores holding no snapshot for the requested mint.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is the flat persisted record of one token.
type Snapshot struct {
	Mint        string            `json:"mint"`
	Name        string            `json:"name"`
	Symbol      string            `json:"symbol"`
	URI         string            `json:"uri,omitempty"`
	Decimals    uint8             `json:"decimals"`
	Preset      token.Preset      `json:"preset"`
	Extensions  token.Extensions  `json:"extensions"`
	Paused      bool              `json:"paused"`
	TotalSupply int64             `json:"totalSupply"`
	Balances    map[string]int64  `json:"balances"`
	Blacklist   map[string]string `json:"blacklist"`
	Roles       roles.Assignments `json:"roles"`
	// AuditLog holds the retained audit entries, newest first.
	AuditLog []audit.Entry `json:"auditLog,omitempty"`
}

// Store persists snapshots keyed by mint address.
type Store interface {
	Load(ctx context.Context, mint string) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Capture projects the engine state into a Snapshot. A nil log leaves the
// audit history out.
func Capture(c *compliance.Engine, reg *roles.Registry, log *audit.Log) *Snapshot {
	state, blacklist := c.Checkpoint()
	snap := &Snapshot{
		Mint:        state.Mint,
		Name:        state.Config.Name,
		Symbol:      state.Config.Symbol,
		URI:         state.Config.URI,
		Decimals:    state.Config.Decimals,
		Preset:      state.Config.Preset,
		Extensions:  state.Config.Extensions,
		Paused:      state.Paused,
		TotalSupply: state.TotalSupply,
		Balances:    state.Balances,
		Blacklist:   blacklist,
		Roles:       reg.Snapshot(),
	}
	if log != nil {
		snap.AuditLog = log.Query("")
	}
	return snap
}

// Engines groups the restored components.
type Engines struct {
	Roles      *roles.Registry
	Audit      *audit.Log
	Ledger     *ledger.Ledger
	Compliance *compliance.Engine
}

// Restore rebuilds engines from snap and reloads its audit history into log.
// It never fails: malformed addresses become
// the placeholder address and an unknown preset falls back to sss-1.
func Restore(snap *Snapshot, log *audit.Log, ledgerOpts []ledger.Option, complianceOpts []compliance.Option) Engines {
	if log == nil {
		log = audit.New(audit.DefaultCapacity)
	}
	if len(snap.AuditLog) > 0 {
		log.Restore(snap.AuditLog)
	}
	reg := roles.Restore(snap.Roles)

	preset, err := token.ParsePreset(string(snap.Preset))
	if err != nil {
		preset = token.PresetSSS1
	}
	cfg := token.Config{
		Name:       snap.Name,
		Symbol:     snap.Symbol,
		URI:        snap.URI,
		Decimals:   snap.Decimals,
		Preset:     preset,
		Extensions: snap.Extensions,
	}

	l := ledger.Restore(ledger.State{
		Mint:        token.ParseAddressOrPlaceholder(snap.Mint),
		Config:      cfg,
		Paused:      snap.Paused,
		TotalSupply: snap.TotalSupply,
		Balances:    snap.Balances,
	}, reg, log, ledgerOpts...)

	return Engines{
		Roles:      reg,
		Audit:      log,
		Ledger:     l,
		Compliance: compliance.Restore(l, snap.Blacklist, complianceOpts...),
	}
}
