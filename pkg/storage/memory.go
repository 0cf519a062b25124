package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmylchreest/refyne-dataflow/pkg/table"
)

// Memory is an in-process Storage. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	current *table.Table
	version int
}

// NewMemory creates a Memory storage seeded with t as the dataframe view.
// A nil t starts with an empty table.
func NewMemory(t *table.Table) *Memory {
	if t == nil {
		t = table.New()
	}
	return &Memory{current: t}
}

// Read returns a copy of the current table.
func (m *Memory) Read(ctx context.Context, view string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if view != ViewDataFrame {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone(), nil
}

// Write replaces the current table with t.
func (m *Memory) Write(ctx context.Context, t *table.Table) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t == nil {
		return "", fmt.Errorf("write: nil table")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
	m.version++
	return Handle(fmt.Sprintf("memory://%s@%d", ViewDataFrame, m.version)), nil
}

// Version returns the number of committed writes.
func (m *Memory) Version() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Snapshot returns a copy of the current table without going through Read.
func (m *Memory) Snapshot() *table.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}
