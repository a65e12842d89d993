package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/stablecoin_layer/internal/token"
)

const (
	masterAddr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	addrA      = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	addrB      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(masterAddr)
	require.NoError(t, err)
	return reg
}

func TestNewRegistryDefaultsToMaster(t *testing.T) {
	reg := newRegistry(t)
	for _, r := range All {
		assert.Equal(t, masterAddr, reg.Holder(r), r)
	}
}

func TestNewRegistryRejectsBadMaster(t *testing.T) {
	_, err := NewRegistry("nope")
	assert.ErrorIs(t, err, token.ErrAddressParse)
}

func TestUpdateRoleSingleHolder(t *testing.T) {
	reg := newRegistry(t)
	master := As(masterAddr)

	require.NoError(t, reg.UpdateRole(master, Minter, addrA))
	require.NoError(t, reg.UpdateRole(master, Minter, addrB))

	assert.Equal(t, addrB, reg.Holder(Minter))
	assert.ErrorIs(t, reg.Authorize(As(addrA), Minter), ErrUnauthorized)
	assert.NoError(t, reg.Authorize(As(addrB), Minter))
}

func TestUpdateRoleRequiresMaster(t *testing.T) {
	reg := newRegistry(t)
	err := reg.UpdateRole(As(addrA), Minter, addrA)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, masterAddr, reg.Holder(Minter))
}

func TestUpdateRoleRejectsMalformedAddress(t *testing.T) {
	reg := newRegistry(t)
	err := reg.UpdateRole(As(masterAddr), Pauser, "0OIl")
	assert.ErrorIs(t, err, token.ErrAddressParse)
}

func TestApplyPartialUpdate(t *testing.T) {
	reg := newRegistry(t)
	a, b := addrA, addrB

	require.NoError(t, reg.Apply(As(masterAddr), Update{Burner: &a, Seizer: &b}))

	got := reg.Snapshot()
	assert.Equal(t, masterAddr, got.Minter)
	assert.Equal(t, addrA, got.Burner)
	assert.Equal(t, addrB, got.Seizer)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	reg := newRegistry(t)
	good, bad := addrA, "bad address"

	err := reg.Apply(As(masterAddr), Update{Minter: &good, Pauser: &bad})
	require.ErrorIs(t, err, token.ErrAddressParse)
	assert.Equal(t, masterAddr, reg.Holder(Minter))
}

func TestRemoveHolder(t *testing.T) {
	reg := newRegistry(t)
	master := As(masterAddr)
	require.NoError(t, reg.UpdateRole(master, Minter, addrA))

	err := reg.RemoveHolder(master, Minter, addrB)
	assert.ErrorIs(t, err, ErrNotCurrentHolder)
	assert.Equal(t, addrA, reg.Holder(Minter))

	require.NoError(t, reg.RemoveHolder(master, Minter, addrA))
	assert.Equal(t, masterAddr, reg.Holder(Minter))
}

func TestTransferAuthorityDoesNotCascade(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.TransferAuthority(As(masterAddr), addrA))

	assert.Equal(t, addrA, reg.Holder(Master))
	assert.Equal(t, masterAddr, reg.Holder(Minter))
	assert.ErrorIs(t, reg.TransferAuthority(As(masterAddr), addrB), ErrUnauthorized)
}

func TestMintersListsMinterThenBurner(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.UpdateRole(As(masterAddr), Burner, addrB))
	assert.Equal(t, []string{masterAddr, addrB}, reg.Minters())
}

func TestRestoreSubstitutesPlaceholder(t *testing.T) {
	reg := Restore(Assignments{
		Master:      masterAddr,
		Minter:      "corrupted",
		Burner:      addrA,
		Pauser:      masterAddr,
		Blacklister: masterAddr,
		Seizer:      "",
	})
	assert.Equal(t, token.PlaceholderAddress, reg.Holder(Minter))
	assert.Equal(t, token.PlaceholderAddress, reg.Holder(Seizer))
	assert.Equal(t, addrA, reg.Holder(Burner))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("seizer")
	require.NoError(t, err)
	assert.Equal(t, Seizer, r)

	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrUnknownRole)
}
