package ledger

import (
	"context"
	"errors"
	"sync"
)

// ErrCorruptRow is wrapped by load errors caused by an unreadable stored row.
var ErrCorruptRow = errors.New("corrupt ledger row")

// Store persists a whole ledger. Load always returns the full table and
// Save always rewrites it; a failed Save leaves the previous table intact.
type Store interface {
	// Init creates the empty schema if it does not exist yet. Calling it
	// again is a no-op.
	Init(ctx context.Context) error
	Load(ctx context.Context) (*Ledger, error)
	Save(ctx context.Context, l *Ledger) error
}

// MemoryStore keeps the ledger in process memory.
type MemoryStore struct {
	mu          sync.Mutex
	rows        []Entry
	initialised bool
}

// NewMemoryStore returns an uninitialised in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialised {
		m.rows = nil
		m.initialised = true
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) (*Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FromEntries(m.rows), nil
}

func (m *MemoryStore) Save(ctx context.Context, l *Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = l.Entries()
	m.initialised = true
	return nil
}
