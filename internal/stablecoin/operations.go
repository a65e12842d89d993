package stablecoin

import (
	"context"
	"fmt"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/compliance"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/roles"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// Status summarizes the token for dashboards and the CLI.
type Status struct {
	Mint                 string       `json:"mint"`
	Name                 string       `json:"name"`
	Symbol               string       `json:"symbol"`
	URI                  string       `json:"uri,omitempty"`
	Preset               token.Preset `json:"preset"`
	Decimals             uint8        `json:"decimals"`
	Paused               bool         `json:"paused"`
	TotalSupply          int64        `json:"totalSupply"`
	Holders              int          `json:"holders"`
	ComplianceEnabled    bool         `json:"complianceEnabled"`
	PermanentDelegate    bool         `json:"permanentDelegate"`
	TransferHook         bool         `json:"transferHook"`
	DefaultAccountFrozen bool         `json:"defaultAccountFrozen"`
	Metadata             bool         `json:"metadata"`
	BlacklistCount       int          `json:"blacklistCount"`
}

// Status reads a consistent view of ledger and blacklist.
func (t *Token) Status() Status {
	state, blacklist := t.compliance.Checkpoint()
	holders := 0
	for _, b := range state.Balances {
		if b > 0 {
			holders++
		}
	}
	cfg := state.Config
	return Status{
		Mint:                 state.Mint,
		Name:                 cfg.Name,
		Symbol:               cfg.Symbol,
		URI:                  cfg.URI,
		Preset:               cfg.Preset,
		Decimals:             cfg.Decimals,
		Paused:               state.Paused,
		TotalSupply:          state.TotalSupply,
		Holders:              holders,
		ComplianceEnabled:    cfg.ComplianceEnabled(),
		PermanentDelegate:    cfg.Extensions.PermanentDelegate,
		TransferHook:         cfg.Extensions.TransferHook,
		DefaultAccountFrozen: cfg.Extensions.DefaultAccountFrozen,
		Metadata:             cfg.Extensions.Metadata,
		BlacklistCount:       len(blacklist),
	}
}

// HolderOf returns an actor holding r. Used by trusted local callers.
func (t *Token) HolderOf(r roles.Role) roles.Actor {
	return roles.As(t.roles.Holder(r))
}

func (t *Token) Mint(ctx context.Context, actor roles.Actor, amount float64, destination string) (ledger.Result, error) {
	res, err := t.ledger.Mint(ctx, actor, amount, destination)
	if err != nil {
		return res, err
	}
	return res, t.persist(ctx)
}

func (t *Token) Burn(ctx context.Context, actor roles.Actor, amount float64, source string) (ledger.Result, error) {
	res, err := t.ledger.Burn(ctx, actor, amount, source)
	if err != nil {
		return res, err
	}
	return res, t.persist(ctx)
}

func (t *Token) Pause(ctx context.Context, actor roles.Actor) (string, error) {
	tx, err := t.ledger.Pause(actor)
	if err != nil {
		return tx, err
	}
	return tx, t.persist(ctx)
}

func (t *Token) Unpause(ctx context.Context, actor roles.Actor) (string, error) {
	tx, err := t.ledger.Unpause(actor)
	if err != nil {
		return tx, err
	}
	return tx, t.persist(ctx)
}

func (t *Token) BlacklistAdd(ctx context.Context, actor roles.Actor, address, reason string) (int, error) {
	n, err := t.compliance.BlacklistAdd(ctx, actor, address, reason)
	if err != nil {
		return n, err
	}
	return n, t.persist(ctx)
}

func (t *Token) BlacklistRemove(ctx context.Context, actor roles.Actor, address string) (int, error) {
	n, err := t.compliance.BlacklistRemove(ctx, actor, address)
	if err != nil {
		return n, err
	}
	return n, t.persist(ctx)
}

func (t *Token) Seize(ctx context.Context, actor roles.Actor, from, to string, amount *float64) (compliance.SeizeResult, error) {
	res, err := t.compliance.Seize(ctx, actor, from, to, amount)
	if err != nil {
		return res, err
	}
	return res, t.persist(ctx)
}

func (t *Token) Freeze(ctx context.Context, actor roles.Actor, address string) (compliance.FreezeResult, error) {
	res, err := t.compliance.Freeze(ctx, actor, address)
	if err != nil || !res.Changed {
		return res, err
	}
	return res, t.persist(ctx)
}

func (t *Token) Thaw(ctx context.Context, actor roles.Actor, address string) (compliance.FreezeResult, error) {
	res, err := t.compliance.Thaw(ctx, actor, address)
	if err != nil || !res.Changed {
		return res, err
	}
	return res, t.persist(ctx)
}

// AddMinter hands the minter role to address. Requires master.
func (t *Token) AddMinter(ctx context.Context, actor roles.Actor, address string) (string, error) {
	if err := t.roles.UpdateRole(actor, roles.Minter, address); err != nil {
		return "", err
	}
	tx := t.ledger.NewTxID("tx_role")
	t.audit.Record(audit.ActionMinterAdd, fmt.Sprintf("Minter set to %s", address), tx)
	return tx, t.persist(ctx)
}

// RemoveMinter returns the minter role to master when address holds it.
func (t *Token) RemoveMinter(ctx context.Context, actor roles.Actor, address string) (string, error) {
	if err := t.roles.RemoveHolder(actor, roles.Minter, address); err != nil {
		return "", err
	}
	tx := t.ledger.NewTxID("tx_role")
	t.audit.Record(audit.ActionMinterRemove, fmt.Sprintf("Minter %s removed", address), tx)
	return tx, t.persist(ctx)
}

// UpdateRoles applies a partial role update. Requires master.
func (t *Token) UpdateRoles(ctx context.Context, actor roles.Actor, u roles.Update) (roles.Assignments, error) {
	if err := t.roles.Apply(actor, u); err != nil {
		return roles.Assignments{}, err
	}
	if u.Minter != nil {
		t.audit.Record(audit.ActionMinterAdd, fmt.Sprintf("Minter set to %s", *u.Minter), "")
	}
	for _, change := range []struct {
		role    roles.Role
		address *string
	}{
		{roles.Burner, u.Burner},
		{roles.Pauser, u.Pauser},
		{roles.Blacklister, u.Blacklister},
		{roles.Seizer, u.Seizer},
	} {
		if change.address != nil {
			t.audit.Record(audit.ActionRoleUpdate, fmt.Sprintf("Role %s set to %s", change.role, *change.address), "")
		}
	}
	if u.Master != nil {
		t.audit.Record(audit.ActionTransferAuthority, fmt.Sprintf("Authority transferred to %s", *u.Master), "")
	}
	return t.roles.Snapshot(), t.persist(ctx)
}

// TransferAuthority hands master to address. Other roles are unchanged.
func (t *Token) TransferAuthority(ctx context.Context, actor roles.Actor, address string) (string, error) {
	if err := t.roles.TransferAuthority(actor, address); err != nil {
		return "", err
	}
	tx := t.ledger.NewTxID("tx_authority")
	t.audit.Record(audit.ActionTransferAuthority, fmt.Sprintf("Authority transferred to %s", address), tx)
	return tx, t.persist(ctx)
}

// AuditLog returns entries matching action, newest first. Empty returns all.
func (t *Token) AuditLog(action string) []audit.Entry {
	return t.audit.Query(action)
}

// ComplianceAuditLog is AuditLog restricted to compliance actions.
func (t *Token) ComplianceAuditLog(action string) []audit.Entry {
	all := t.audit.Query(action)
	out := make([]audit.Entry, 0, len(all))
	for _, e := range all {
		if e.Action.Compliance() {
			out = append(out, e)
		}
	}
	return out
}
