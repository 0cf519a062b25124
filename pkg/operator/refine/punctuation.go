package refine

import (
	"context"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
)

// repeatPattern matches a run of two or more identical characters that are
// either non-word non-space symbols or underscores.
var repeatPattern = regexp2.MustCompile(
	`([^`+wordChars+spaceChars+`])\1+|(_)\2+`,
	regexp2.None)

// CollapseRepeatedPunctuation reduces every run of a repeated punctuation
// character or underscore to a single occurrence. Letters, digits and
// whitespace runs are left alone. Invalid UTF-8 fails with ErrInvalidUTF8.
func CollapseRepeatedPunctuation(s string) (string, error) {
	if err := checkUTF8(s); err != nil {
		return s, err
	}
	return repeatPattern.ReplaceFunc(s, func(m regexp2.Match) string {
		r, _ := utf8.DecodeRuneInString(m.String())
		return string(r)
	}, -1, -1)
}

func refinePunctuation(s string) (string, bool, error) {
	out, err := CollapseRepeatedPunctuation(s)
	if err != nil {
		return s, false, err
	}
	return out, out != s, nil
}

// RepeatedPunctuationCollapser collapses repeated punctuation in a text column,
// turning "!!!" into "!" and ",," into ",".
type RepeatedPunctuationCollapser struct {
	cfg   config
	stats *operator.Stats
}

// NewRepeatedPunctuationCollapser creates the operator.
func NewRepeatedPunctuationCollapser(opts ...Option) *RepeatedPunctuationCollapser {
	return &RepeatedPunctuationCollapser{cfg: newConfig(opts)}
}

// Name returns the registry name.
func (c *RepeatedPunctuationCollapser) Name() string {
	return RepeatedPunctuationCollapserName
}

// Describe returns the operator description.
func (c *RepeatedPunctuationCollapser) Describe(lang string) string {
	return describe(lang,
		"将文本中连续重复的标点符号（含下划线）折叠为一个，例如 \"!!!\" 变为 \"!\"，\",,\" 变为 \",\"。"+
			"字母、数字和空白不受影响。\n"+
			"运行参数：\n"+
			"- input_key：输入文本字段名\n"+
			"输出：\n"+
			"- 原地更新该字段后的数据表\n"+
			"- 返回 [input_key]，供后续算子读取",
		"Collapses runs of a repeated punctuation character or underscore to a single one, "+
			"e.g. \"!!!\" becomes \"!\" and \",,\" becomes \",\". Letters, digits and whitespace are untouched.\n"+
			"Run parameters:\n"+
			"- input_key: name of the text field to refine\n"+
			"Output:\n"+
			"- the table with that field refined in place\n"+
			"- [input_key], for downstream operators to read",
		"RepeatedPunctuationCollapser collapses repeated punctuation in text.",
	)
}

// Run refines inputKey in place and returns [inputKey].
func (c *RepeatedPunctuationCollapser) Run(ctx context.Context, st storage.Storage, inputKey string) ([]string, error) {
	stats, err := operator.RefineColumn(ctx, st, c.Name(), inputKey, refinePunctuation,
		operator.WithWorkers(c.cfg.workers))
	if err != nil {
		return nil, err
	}
	c.stats = stats
	return []string{inputKey}, nil
}

// Stats returns diagnostics for the most recent successful run.
func (c *RepeatedPunctuationCollapser) Stats() *operator.Stats {
	return c.stats
}
