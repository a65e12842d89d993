// Package roles holds the single-holder role registry of a token.
package roles

import (
	"errors"
	"fmt"
	"sync"

	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

// Role names a privileged capability.
type Role string

const (
	Master      Role = "master"
	Minter      Role = "minter"
	Burner      Role = "burner"
	Pauser      Role = "pauser"
	Blacklister Role = "blacklister"
	Seizer      Role = "seizer"
)

// All lists every role in display order.
var All = []Role{Master, Minter, Burner, Pauser, Blacklister, Seizer}

var (
	// ErrNotCurrentHolder is returned when removing a role from an address that does not hold it.
	ErrNotCurrentHolder = errors.New("roles: address is not the current holder")
	// ErrUnauthorized is returned when the acting signer does not hold the required role.
	ErrUnauthorized = errors.New("roles: unauthorized")
	// ErrUnknownRole is returned for a role name outside the fixed set.
	ErrUnknownRole = errors.New("roles: unknown role")
)

// ParseRole maps a role name to a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range All {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Actor is the authenticated signer invoking a privileged operation.
type Actor struct {
	Address string
}

// As returns an actor for address.
func As(address string) Actor {
	return Actor{Address: address}
}

// Assignments is the full role table.
type Assignments struct {
	Master      string `json:"master"`
	Minter      string `json:"minter"`
	Burner      string `json:"burner"`
	Pauser      string `json:"pauser"`
	Blacklister string `json:"blacklister"`
	Seizer      string `json:"seizer"`
}

// Get returns the holder of r.
func (a Assignments) Get(r Role) string {
	switch r {
	case Master:
		return a.Master
	case Minter:
		return a.Minter
	case Burner:
		return a.Burner
	case Pauser:
		return a.Pauser
	case Blacklister:
		return a.Blacklister
	case Seizer:
		return a.Seizer
	}
	return ""
}

func (a *Assignments) set(r Role, address string) {
	switch r {
	case Master:
		a.Master = address
	case Minter:
		a.Minter = address
	case Burner:
		a.Burner = address
	case Pauser:
		a.Pauser = address
	case Blacklister:
		a.Blacklister = address
	case Seizer:
		a.Seizer = address
	}
}

// Update is a partial reassignment. Nil fields leave the role unchanged.
type Update struct {
	Master      *string `json:"master,omitempty"`
	Minter      *string `json:"minter,omitempty"`
	Burner      *string `json:"burner,omitempty"`
	Pauser      *string `json:"pauser,omitempty"`
	Blacklister *string `json:"blacklister,omitempty"`
	Seizer      *string `json:"seizer,omitempty"`
}

func (u Update) fields() map[Role]*string {
	return map[Role]*string{
		Master:      u.Master,
		Minter:      u.Minter,
		Burner:      u.Burner,
		Pauser:      u.Pauser,
		Blacklister: u.Blacklister,
		Seizer:      u.Seizer,
	}
}

// Registry tracks exactly one holder per role.
type Registry struct {
	mu      sync.RWMutex
	holders Assignments
}

// NewRegistry assigns every role to master.
func NewRegistry(master string) (*Registry, error) {
	addr, err := token.ParseAddress(master)
	if err != nil {
		return nil, err
	}
	return &Registry{holders: Assignments{
		Master:      addr,
		Minter:      addr,
		Burner:      addr,
		Pauser:      addr,
		Blacklister: addr,
		Seizer:      addr,
	}}, nil
}

// Restore rebuilds a registry from stored assignments, replacing unparsable
// addresses with the placeholder address.
func Restore(a Assignments) *Registry {
	restored := Assignments{}
	for _, r := range All {
		restored.set(r, token.ParseAddressOrPlaceholder(a.Get(r)))
	}
	return &Registry{holders: restored}
}

// Holder returns the current holder of r.
func (reg *Registry) Holder(r Role) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.holders.Get(r)
}

// Snapshot returns a copy of every assignment.
func (reg *Registry) Snapshot() Assignments {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.holders
}

// Authorize fails with ErrUnauthorized unless actor holds r.
func (reg *Registry) Authorize(actor Actor, r Role) error {
	holder := reg.Holder(r)
	if holder == "" || actor.Address != holder {
		return fmt.Errorf("%w: %s required", ErrUnauthorized, r)
	}
	return nil
}

// UpdateRole replaces the holder of r. Requires master.
func (reg *Registry) UpdateRole(actor Actor, r Role, address string) error {
	if _, err := ParseRole(string(r)); err != nil {
		return err
	}
	addr, err := token.ParseAddress(address)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if actor.Address != reg.holders.Master {
		return fmt.Errorf("%w: %s required", ErrUnauthorized, Master)
	}
	reg.holders.set(r, addr)
	return nil
}

// Apply merges a partial update atomically. Every provided address is validated
// before anything changes. Requires master.
func (reg *Registry) Apply(actor Actor, u Update) error {
	parsed := make(map[Role]string)
	for r, v := range u.fields() {
		if v == nil {
			continue
		}
		addr, err := token.ParseAddress(*v)
		if err != nil {
			return fmt.Errorf("%s: %w", r, err)
		}
		parsed[r] = addr
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if actor.Address != reg.holders.Master {
		return fmt.Errorf("%w: %s required", ErrUnauthorized, Master)
	}
	for r, addr := range parsed {
		reg.holders.set(r, addr)
	}
	return nil
}

// RemoveHolder resets r to the current master when address holds it.
// Requires master.
func (reg *Registry) RemoveHolder(actor Actor, r Role, address string) error {
	addr, err := token.ParseAddress(address)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if actor.Address != reg.holders.Master {
		return fmt.Errorf("%w: %s required", ErrUnauthorized, Master)
	}
	if reg.holders.Get(r) != addr {
		return fmt.Errorf("%w: %s is not %s", ErrNotCurrentHolder, addr, r)
	}
	reg.holders.set(r, reg.holders.Master)
	return nil
}

// TransferAuthority reassigns master only. Requires master.
func (reg *Registry) TransferAuthority(actor Actor, address string) error {
	return reg.UpdateRole(actor, Master, address)
}

// Minters returns the minter and burner holders, in that order.
func (reg *Registry) Minters() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return []string{reg.holders.Minter, reg.holders.Burner}
}
