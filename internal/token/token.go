// Package token defines the immutable configuration of a stablecoin mint and the
// address rules shared by the ledger and compliance engines.
package token

import (
	"errors"
	"fmt"
	"strings"
)

// Preset selects the feature tier of a token.
type Preset string

const (
	// PresetSSS1 is the minimal tier: mint, burn, freeze, pause.
	PresetSSS1 Preset = "sss-1"
	// PresetSSS2 adds blacklist and seize, gated by the permanent delegate and transfer hook extensions.
	PresetSSS2 Preset = "sss-2"
)

// DefaultDecimals is used when a definition leaves decimals unset.
const DefaultDecimals = 6

// ErrInvalidConfig is returned for a token definition that cannot be created.
var ErrInvalidConfig = errors.New("token: invalid configuration")

// ParsePreset accepts "sss-1"/"sss-2" and the "tier-1"/"tier-2" aliases.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sss-1", "tier-1", "sss1":
		return PresetSSS1, nil
	case "sss-2", "tier-2", "sss2":
		return PresetSSS2, nil
	}
	return "", fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, s)
}

// Extensions are the Token-2022 extension flags enabled on the mint.
type Extensions struct {
	PermanentDelegate    bool `json:"permanentDelegate" yaml:"permanentDelegate" toml:"permanentDelegate"`
	TransferHook         bool `json:"transferHook" yaml:"transferHook" toml:"transferHook"`
	DefaultAccountFrozen bool `json:"defaultAccountFrozen" yaml:"defaultAccountFrozen" toml:"defaultAccountFrozen"`
	Metadata             bool `json:"metadata" yaml:"metadata" toml:"metadata"`
}

// ExtensionOverrides carries user-supplied extension flags. Nil fields keep the preset default.
type ExtensionOverrides struct {
	PermanentDelegate    *bool `json:"permanentDelegate,omitempty" yaml:"permanentDelegate,omitempty" toml:"permanentDelegate,omitempty"`
	TransferHook         *bool `json:"transferHook,omitempty" yaml:"transferHook,omitempty" toml:"transferHook,omitempty"`
	DefaultAccountFrozen *bool `json:"defaultAccountFrozen,omitempty" yaml:"defaultAccountFrozen,omitempty" toml:"defaultAccountFrozen,omitempty"`
	Metadata             *bool `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata,omitempty"`
}

// Config is the token definition. It does not change after creation.
type Config struct {
	Name       string     `json:"name"`
	Symbol     string     `json:"symbol"`
	URI        string     `json:"uri,omitempty"`
	Decimals   uint8      `json:"decimals"`
	Preset     Preset     `json:"preset"`
	Extensions Extensions `json:"extensions"`
}

// Definition is the caller input from which a Config is resolved.
type Definition struct {
	Name       string             `json:"name" yaml:"name" toml:"name"`
	Symbol     string             `json:"symbol" yaml:"symbol" toml:"symbol"`
	URI        string             `json:"uri" yaml:"uri" toml:"uri"`
	Decimals   *uint8             `json:"decimals,omitempty" yaml:"decimals,omitempty" toml:"decimals,omitempty"`
	Preset     string             `json:"preset" yaml:"preset" toml:"preset"`
	Extensions ExtensionOverrides `json:"extensions" yaml:"extensions" toml:"extensions"`
}

// Resolve validates d and fills preset and extension defaults.
//
// An explicit preset wins. Otherwise a definition asking for a permanent delegate
// or a transfer hook resolves to sss-2.
func (d Definition) Resolve() (Config, error) {
	if strings.TrimSpace(d.Name) == "" {
		return Config{}, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(d.Symbol) == "" {
		return Config{}, fmt.Errorf("%w: symbol is required", ErrInvalidConfig)
	}

	preset := PresetSSS1
	if d.Preset != "" {
		p, err := ParsePreset(d.Preset)
		if err != nil {
			return Config{}, err
		}
		preset = p
	} else if isTrue(d.Extensions.PermanentDelegate) || isTrue(d.Extensions.TransferHook) {
		preset = PresetSSS2
	}

	decimals := uint8(DefaultDecimals)
	if d.Decimals != nil {
		decimals = *d.Decimals
	}

	return Config{
		Name:       strings.TrimSpace(d.Name),
		Symbol:     strings.TrimSpace(d.Symbol),
		URI:        d.URI,
		Decimals:   decimals,
		Preset:     preset,
		Extensions: ResolveExtensions(preset, d.Extensions),
	}, nil
}

// ResolveExtensions applies overrides on top of the preset defaults.
func ResolveExtensions(preset Preset, o ExtensionOverrides) Extensions {
	ext := Extensions{Metadata: true}
	if preset == PresetSSS2 {
		ext.PermanentDelegate = true
		ext.TransferHook = true
	}
	if o.PermanentDelegate != nil {
		ext.PermanentDelegate = *o.PermanentDelegate
	}
	if o.TransferHook != nil {
		ext.TransferHook = *o.TransferHook
	}
	if o.DefaultAccountFrozen != nil {
		ext.DefaultAccountFrozen = *o.DefaultAccountFrozen
	}
	if o.Metadata != nil {
		ext.Metadata = *o.Metadata
	}
	return ext
}

// ComplianceEnabled reports whether blacklist and seize are available.
func (c Config) ComplianceEnabled() bool {
	return c.Preset == PresetSSS2 && c.Extensions.PermanentDelegate && c.Extensions.TransferHook
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
