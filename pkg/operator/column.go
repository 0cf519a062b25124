package operator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/refyne-dataflow/internal/logger"
	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
)

// previewLen is how many characters of a value debug logs show.
const previewLen = 30

// ctxCheckEvery is how often, in rows, a shard checks for cancellation.
const ctxCheckEvery = 1024

// RefineFunc transforms a single value and reports whether it changed.
// It must be pure: the result may depend only on s.
type RefineFunc func(s string) (refined string, modified bool, err error)

// ColumnOption configures RefineColumn.
type ColumnOption func(*columnConfig)

type columnConfig struct {
	workers int
}

// WithWorkers shards the column across n goroutines. Values of n below 2
// process the column on the calling goroutine.
func WithWorkers(n int) ColumnOption {
	return func(c *columnConfig) {
		c.workers = n
	}
}

// RefineColumn runs the read, transform, write handshake for operator name
// over column key:
//
//   - the dataframe view is read once and must contain key
//   - every value is passed through fn; nil values are kept as-is and any
//     other non-string value fails the run with a TypeConversionError
//   - the first failing value aborts the run and nothing is written
//   - the table is written back exactly once, after the whole column is done
//
// Row count and order are preserved and other columns are left untouched.
func RefineColumn(ctx context.Context, st storage.Storage, name, key string, fn RefineFunc, opts ...ColumnOption) (*Stats, error) {
	cfg := &columnConfig{workers: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	logger.Info("running operator", "operator", name, "input_key", key)

	tbl, err := st.Read(ctx, storage.ViewDataFrame)
	if err != nil {
		return nil, fmt.Errorf("%s: read: %w", name, err)
	}

	col, ok := tbl.Column(key)
	if !ok {
		return nil, &MissingColumnError{Operator: name, Key: key, Columns: tbl.Columns()}
	}

	refined := make([]any, len(col))
	r := &refiner{name: name, key: key, fn: fn, in: col, out: refined}

	stats := &Stats{Operator: name, InputKey: key, Rows: len(col)}
	modified, nulls, err := r.run(ctx, cfg.workers)
	if err != nil {
		return nil, err
	}
	stats.Modified = modified
	stats.Nulls = nulls

	if err := tbl.SetColumn(key, refined); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if _, err := st.Write(ctx, tbl); err != nil {
		return nil, fmt.Errorf("%s: write: %w", name, err)
	}

	stats.Duration = time.Since(start)
	logger.Info("refining complete",
		"operator", name,
		"input_key", key,
		"rows", stats.Rows,
		"modified", stats.Modified,
		"duration", stats.Duration,
	)
	return stats, nil
}

type refiner struct {
	name string
	key  string
	fn   RefineFunc
	in   []any
	out  []any
}

// run processes the column, sharded into contiguous ranges when workers > 1.
func (r *refiner) run(ctx context.Context, workers int) (modified, nulls int, err error) {
	n := len(r.in)
	if workers < 2 || n < 2 {
		return r.refineRange(ctx, 0, n)
	}
	if workers > n {
		workers = n
	}

	type tally struct{ modified, nulls int }
	tallies := make([]tally, workers)
	size := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*size, min((w+1)*size, n)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			m, nl, err := r.refineRange(gctx, lo, hi)
			tallies[w] = tally{m, nl}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for _, t := range tallies {
		modified += t.modified
		nulls += t.nulls
	}
	return modified, nulls, nil
}

func (r *refiner) refineRange(ctx context.Context, lo, hi int) (modified, nulls int, err error) {
	for i := lo; i < hi; i++ {
		if (i-lo)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, 0, err
			}
		}

		switch v := r.in[i].(type) {
		case nil:
			nulls++
		case string:
			refined, changed, err := r.fn(v)
			if err != nil {
				return 0, 0, &RefineError{Operator: r.name, Key: r.key, Row: i, Err: err}
			}
			if changed {
				modified++
				logger.Debug("value modified",
					"operator", r.name,
					"row", i,
					"original", preview(v),
					"refined", preview(refined),
				)
			}
			r.out[i] = refined
		default:
			return 0, 0, &TypeConversionError{Operator: r.name, Key: r.key, Row: i, Value: v}
		}
	}
	return modified, nulls, nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLen {
		return s
	}
	return string(runes[:previewLen]) + "..."
}
