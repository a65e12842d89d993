// Package audit provides the bounded, newest-first record of state-changing token actions.
package audit

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries retained before the oldest are evicted.
const DefaultCapacity = 500

// Action tags a recorded entry.
type Action string

const (
	ActionInit               Action = "init"
	ActionMint               Action = "mint"
	ActionBurn               Action = "burn"
	ActionMinterAdd          Action = "minter_add"
	ActionMinterRemove       Action = "minter_remove"
	ActionRoleUpdate         Action = "role_update"
	ActionBlacklistAdd       Action = "blacklist_add"
	ActionBlacklistRemove    Action = "blacklist_remove"
	ActionSeize              Action = "seize"
	ActionFreeze             Action = "freeze"
	ActionThaw               Action = "thaw"
	ActionPause              Action = "pause"
	ActionUnpause            Action = "unpause"
	ActionTransferAuthority  Action = "transfer_authority"
	ActionSuspiciousTransfer Action = "suspicious_transfer"
)

// Entry is one recorded action. Entries are never modified after Append.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
	TxID      string    `json:"txId,omitempty"`
}

// Handler receives entries after they are appended.
type Handler func(Entry)

// Sink persists entries outside the in-memory buffer.
type Sink interface {
	Write(Entry) error
}

// Log is a fixed-capacity ring of entries. The zero value is not usable; call New.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	size     int
	head     int
	count    int
	now      func() time.Time
	sink     Sink
	handlers []handlerEntry
	nextID   int64
}

type handlerEntry struct {
	id      int64
	handler Handler
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithSink mirrors every appended entry to sink. Sink errors are ignored.
func WithSink(sink Sink) Option {
	return func(l *Log) { l.sink = sink }
}

// New creates a Log retaining at most capacity entries.
func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		entries: make([]Entry, capacity),
		size:    capacity,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record builds an entry for action and appends it.
func (l *Log) Record(action Action, details, txID string) Entry {
	return l.Append(Entry{Action: action, Details: details, TxID: txID})
}

// Append stores entry as the newest record, evicting the oldest past capacity.
func (l *Log) Append(entry Entry) Entry {
	l.mu.Lock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	l.entries[l.head] = entry
	l.head = (l.head + 1) % l.size
	if l.count < l.size {
		l.count++
	}

	handlers := make([]handlerEntry, len(l.handlers))
	copy(handlers, l.handlers)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		_ = sink.Write(entry)
	}
	for _, h := range handlers {
		h.handler(entry)
	}
	return entry
}

// Restore replaces the retained entries with entries, given newest first as
// Query returns them. Only the newest Capacity entries are kept. The sink and
// subscribers are not called.
func (l *Log) Restore(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(entries) > l.size {
		entries = entries[:l.size]
	}
	l.entries = make([]Entry, l.size)
	l.count = len(entries)
	for i := range entries {
		l.entries[i] = entries[len(entries)-1-i]
	}
	l.head = l.count % l.size
}

// Query returns entries newest first. A non-empty action keeps only entries whose
// action matches case-insensitively.
func (l *Log) Query(action string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	filter := strings.TrimSpace(action)
	out := make([]Entry, 0, l.count)
	for i := 0; i < l.count; i++ {
		e := l.entries[(l.head-1-i+l.size)%l.size]
		if filter != "" && !strings.EqualFold(string(e.Action), filter) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Capacity returns the retention bound.
func (l *Log) Capacity() int {
	return l.size
}

// Subscribe registers handler for new entries and returns an unsubscribe function.
// Handlers run synchronously on the appending goroutine and must not block.
func (l *Log) Subscribe(handler Handler) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.handlers = append(l.handlers, handlerEntry{id: id, handler: handler})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, h := range l.handlers {
			if h.id == id {
				l.handlers = append(l.handlers[:i], l.handlers[i+1:]...)
				return
			}
		}
	}
}

// Compliance reports whether action belongs to the compliance engine's history.
func (a Action) Compliance() bool {
	switch a {
	case ActionBlacklistAdd, ActionBlacklistRemove, ActionSeize, ActionFreeze, ActionThaw, ActionSuspiciousTransfer:
		return true
	}
	return false
}
