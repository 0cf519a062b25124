// Package storage defines the persistence boundary operators read tables
// from and commit refined tables to.
//
// A Storage hands out tables by transferring ownership: Read returns a copy
// the caller may mutate freely, and Write takes the table back as the new
// current state. Callers must not touch a table after passing it to Write.
package storage

import (
	"context"
	"errors"

	"github.com/jmylchreest/refyne-dataflow/pkg/table"
)

// ViewDataFrame is the logical view every operator reads.
const ViewDataFrame = "dataframe"

// ErrUnknownView is returned when reading a view the storage does not hold.
var ErrUnknownView = errors.New("unknown view")

// Handle identifies a committed table. Operators ignore it.
type Handle string

// Storage provides the current table state and accepts refined tables.
type Storage interface {
	// Read returns the current table for view. The result is independent of
	// other readers until it is written back.
	Read(ctx context.Context, view string) (*table.Table, error)

	// Write commits t as the new current state and takes ownership of it.
	Write(ctx context.Context, t *table.Table) (Handle, error)
}
