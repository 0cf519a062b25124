// Package refine provides text refiners: operators that clean one text
// column of a table in place.
//
// The transforms are regular-expression substitutions evaluated with
// regexp2, which gives them Unicode-aware \w, \s and \b classes, lazy
// quantifiers and backreferences. Each transform is pure and local to a
// single value, and applying it twice gives the same result as applying it once.
package refine

import (
	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
)

// Registry names.
const (
	ReferenceMarkupRemoverName       = "ReferenceMarkupRemover"
	RepeatedPunctuationCollapserName = "RepeatedPunctuationCollapser"
)

// Option configures a refiner.
type Option func(*config)

type config struct {
	workers int
}

// WithWorkers shards each run across n goroutines.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Module registers the refiners in this package. Options apply to every
// operator the registry constructs.
type Module struct {
	Options []Option
}

// Register adds every refiner to r.
func (m Module) Register(r *operator.Registry) error {
	if err := r.Register(ReferenceMarkupRemoverName, func() operator.Operator {
		return NewReferenceMarkupRemover(m.Options...)
	}); err != nil {
		return err
	}
	return r.Register(RepeatedPunctuationCollapserName, func() operator.Operator {
		return NewRepeatedPunctuationCollapser(m.Options...)
	})
}

// describe picks the description for lang, falling back for unknown tags.
func describe(lang, zh, en, fallback string) string {
	switch lang {
	case operator.LangZH:
		return zh
	case operator.LangEN:
		return en
	default:
		return fallback
	}
}
