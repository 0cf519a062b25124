// Package operator defines the contract shared by all pipeline operators,
// the registry that maps configuration names to operator constructors, and
// the column refinement handshake every refiner runs through.
//
// An operator reads one column of the "dataframe" view, transforms each value
// independently, writes the table back exactly once and returns the keys a
// downstream operator should consume. Operators never reference each other;
// chaining happens through storage and the returned keys.
package operator

import (
	"context"

	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
)

// Description language tags. Any other tag selects the fallback description.
const (
	LangZH = "zh"
	LangEN = "en"
)

// Operator transforms one column of the table held by a Storage.
type Operator interface {
	// Name returns the registry name of the operator.
	Name() string

	// Describe returns a human-readable description in the given language.
	Describe(lang string) string

	// Run refines the inputKey column and returns the keys downstream
	// operators should read.
	Run(ctx context.Context, st storage.Storage, inputKey string) ([]string, error)
}

// StatsReporter is implemented by operators that keep diagnostics for their
// most recent run.
type StatsReporter interface {
	Stats() *Stats
}

// Factory constructs a fresh operator instance.
type Factory func() Operator
