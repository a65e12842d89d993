package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendNewestFirst(t *testing.T) {
	log := New(10)
	log.Record(ActionMint, "first", "tx1")
	log.Record(ActionBurn, "second", "tx2")

	entries := log.Query("")
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Details)
	assert.Equal(t, "first", entries[1].Details)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestCapacityEvictsOldest(t *testing.T) {
	log := New(DefaultCapacity)
	for i := 0; i < 600; i++ {
		log.Record(ActionMint, fmt.Sprintf("entry-%d", i), "")
	}

	entries := log.Query("")
	require.Len(t, entries, 500)
	assert.Equal(t, "entry-599", entries[0].Details)
	assert.Equal(t, "entry-100", entries[499].Details)
	for _, e := range entries {
		assert.NotEqual(t, "entry-99", e.Details)
	}
}

func TestQueryCaseInsensitive(t *testing.T) {
	log := New(10)
	log.Record(ActionMint, "m", "")
	log.Record(ActionBlacklistAdd, "b", "")
	log.Record(ActionMint, "m2", "")

	got := log.Query("MINT")
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].Details)
	assert.Empty(t, log.Query("mint_extra"))
}

func TestClockOption(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	log := New(5, WithClock(func() time.Time { return fixed }))
	e := log.Record(ActionPause, "paused", "")
	assert.Equal(t, fixed, e.Timestamp)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	log := New(5)
	var seen []Action
	unsubscribe := log.Subscribe(func(e Entry) { seen = append(seen, e.Action) })

	log.Record(ActionFreeze, "a", "")
	unsubscribe()
	log.Record(ActionThaw, "b", "")

	assert.Equal(t, []Action{ActionFreeze}, seen)
}

func TestFileSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log := New(5, WithSink(NewFileSink(path)))
	log.Record(ActionSeize, "moved 10", "tx_seize")
	log.Record(ActionThaw, "thawed", "")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"action":"seize"`)
}

func TestComplianceActions(t *testing.T) {
	assert.True(t, ActionSeize.Compliance())
	assert.True(t, ActionSuspiciousTransfer.Compliance())
	assert.False(t, ActionMint.Compliance())
	assert.False(t, ActionInit.Compliance())
}

func TestRestoreKeepsOrderWithoutNotifying(t *testing.T) {
	source := New(10)
	source.Record(ActionInit, "created", "")
	source.Record(ActionMint, "minted", "tx1")
	saved := source.Query("")

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log := New(10, WithSink(NewFileSink(path)))
	var seen int
	log.Subscribe(func(Entry) { seen++ })
	log.Restore(saved)

	assert.Equal(t, saved, log.Query(""))
	assert.Zero(t, seen)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	next := log.Record(ActionBurn, "burned", "tx2")
	entries := log.Query("")
	require.Len(t, entries, 3)
	assert.Equal(t, next.ID, entries[0].ID)
	assert.Equal(t, "created", entries[2].Details)
}

func TestRestoreTruncatesToCapacity(t *testing.T) {
	var saved []Entry
	for i := 4; i >= 0; i-- {
		saved = append(saved, Entry{ID: fmt.Sprint(i), Action: ActionMint, Details: fmt.Sprintf("entry-%d", i)})
	}

	log := New(3)
	log.Restore(saved)
	entries := log.Query("")
	require.Len(t, entries, 3)
	assert.Equal(t, "entry-4", entries[0].Details)
	assert.Equal(t, "entry-2", entries[2].Details)

	log.Record(ActionBurn, "entry-5", "")
	entries = log.Query("")
	require.Len(t, entries, 3)
	assert.Equal(t, "entry-5", entries[0].Details)
	assert.Equal(t, "entry-3", entries[2].Details)
}
