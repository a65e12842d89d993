package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPredicate(t *testing.T) {
	assert.True(t, DefaultPredicate.Suspicious("xxMALICIOUSxx"))
	assert.False(t, DefaultPredicate.Suspicious("benign-signature"))
	assert.False(t, DefaultPredicate.Suspicious(""))
}

func TestScriptPredicate(t *testing.T) {
	p, err := NewScriptPredicate(`signature.length > 10 && signature.indexOf("drain") >= 0`, 0, nil)
	require.NoError(t, err)

	assert.True(t, p.Suspicious("5xdrain-wallet-sig"))
	assert.False(t, p.Suspicious("drain"))
	assert.False(t, p.Suspicious("5xordinary-transfer"))
}

func TestScriptPredicateCompileError(t *testing.T) {
	_, err := NewScriptPredicate(`signature.(`, 0, nil)
	assert.Error(t, err)
}

func TestScriptPredicateTimeout(t *testing.T) {
	var failures []error
	p, err := NewScriptPredicate(`while (true) {}`, 10*time.Millisecond, func(err error) { failures = append(failures, err) })
	require.NoError(t, err)

	assert.False(t, p.Suspicious("anything"))
	require.Len(t, failures, 1)

	p2, err := NewScriptPredicate(`signature === "ok"`, 10*time.Millisecond, nil)
	require.NoError(t, err)
	assert.True(t, p2.Suspicious("ok"))
}

func TestScriptPredicateRecoversAfterTimeout(t *testing.T) {
	var failures int
	p, err := NewScriptPredicate(`if (signature === "spin") { while (true) {} }; signature === "ok"`,
		5*time.Millisecond, func(error) { failures++ })
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		assert.False(t, p.Suspicious("spin"))
		assert.True(t, p.Suspicious("ok"), "evaluation %d after a timeout", i)
		assert.False(t, p.Suspicious("other"))
	}
	assert.Equal(t, 20, failures)
}

func TestScriptPredicateRuntimeError(t *testing.T) {
	var failures int
	p, err := NewScriptPredicate(`undefinedFn(signature)`, 0, func(error) { failures++ })
	require.NoError(t, err)
	assert.False(t, p.Suspicious("x"))
	assert.Equal(t, 1, failures)
}
