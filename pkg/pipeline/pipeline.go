// Package pipeline runs a configured sequence of operators against a storage.
//
// Operators are resolved by name through an operator.Registry before any data
// is touched, then run one after another. Each step's returned keys feed the
// next step's input key unless the step names its own.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/refyne-dataflow/internal/logger"
	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
)

// StepResult records the outcome of one completed step.
type StepResult struct {
	Index    int             `json:"index"`
	Operator string          `json:"operator"`
	InputKey string          `json:"input_key"`
	Keys     []string        `json:"keys"`
	Stats    *operator.Stats `json:"stats,omitempty"`
	Duration time.Duration   `json:"duration"`
}

type stage struct {
	step Step
	op   operator.Operator
}

// Pipeline is an ordered list of resolved operators.
type Pipeline struct {
	stages []stage
}

// New resolves every step's operator in reg.
func New(reg *operator.Registry, steps []Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.New("pipeline has no steps")
	}

	stages := make([]stage, len(steps))
	for i, s := range steps {
		op, err := reg.New(s.Operator)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		stages[i] = stage{step: s, op: op}
	}
	return &Pipeline{stages: stages}, nil
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Run executes the steps in order against st. It stops at the first error
// and returns the results of the steps that completed.
func (p *Pipeline) Run(ctx context.Context, st storage.Storage) ([]StepResult, error) {
	results := make([]StepResult, 0, len(p.stages))
	key := ""

	for i, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		in := s.step.InputKey
		if in == "" {
			in = key
		}
		if in == "" {
			return results, fmt.Errorf("step %d (%s): no input key", i, s.op.Name())
		}

		logger.DebugContext(ctx, "pipeline step starting", "step", i, "operator", s.op.Name(), "input_key", in)
		start := time.Now()
		keys, err := s.op.Run(ctx, st, in)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, s.op.Name(), err)
		}

		res := StepResult{
			Index:    i,
			Operator: s.op.Name(),
			InputKey: in,
			Keys:     keys,
			Duration: time.Since(start),
		}
		if sr, ok := s.op.(operator.StatsReporter); ok {
			res.Stats = sr.Stats()
		}
		results = append(results, res)

		if len(keys) > 0 {
			key = keys[0]
		}
	}

	logger.InfoContext(ctx, "pipeline complete", "steps", len(results))
	return results, nil
}
