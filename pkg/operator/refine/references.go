package refine

import (
	"context"

	"github.com/dlclark/regexp2"

	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
)

// refOpen matches an opening <ref> tag, attributes included.
const refOpen = `<ref` + wordEnd + `[^>]*>`

// refPattern matches <ref> markup: a closed pair (shortest span), an opening
// tag running unclosed to the end of the value, or an opening tag running up
// to a stray "/br".
var refPattern = regexp2.MustCompile(
	refOpen+`.*?</ref>`+
		`|`+refOpen+`[^<]*$`+
		`|`+refOpen+`.*?/br`,
	regexp2.None)

// citeOpen matches "{{cite kind|".
const citeOpen = `\{\{cite[` + spaceChars + `]+[` + wordChars + `]+\|`

// citePattern matches {{cite kind|...}} templates, closed or unterminated.
var citePattern = regexp2.MustCompile(
	citeOpen+`[^}]*\}\}`+
		`|`+citeOpen+`[^}]*$`,
	regexp2.None)

// RemoveReferences strips <ref> tags and {{cite}} templates from s. The ref
// pass runs first, then the cite pass over its output. It returns the
// refined text and the number of spans removed. Invalid UTF-8 fails with
// ErrInvalidUTF8.
func RemoveReferences(s string) (string, int, error) {
	if err := checkUTF8(s); err != nil {
		return s, 0, err
	}
	out, refs, err := removeAll(refPattern, s)
	if err != nil {
		return s, 0, err
	}
	out, cites, err := removeAll(citePattern, out)
	if err != nil {
		return s, 0, err
	}
	return out, refs + cites, nil
}

// removeAll deletes every non-overlapping match of re, scanning left to right once.
func removeAll(re *regexp2.Regexp, s string) (string, int, error) {
	n := 0
	out, err := re.ReplaceFunc(s, func(regexp2.Match) string {
		n++
		return ""
	}, -1, -1)
	if err != nil {
		return s, 0, err
	}
	return out, n, nil
}

func refineReferences(s string) (string, bool, error) {
	out, removed, err := RemoveReferences(s)
	if err != nil {
		return s, false, err
	}
	return out, removed > 0, nil
}

// ReferenceMarkupRemover removes wiki-style reference markup from a text column.
type ReferenceMarkupRemover struct {
	cfg   config
	stats *operator.Stats
}

// NewReferenceMarkupRemover creates the operator.
func NewReferenceMarkupRemover(opts ...Option) *ReferenceMarkupRemover {
	return &ReferenceMarkupRemover{cfg: newConfig(opts)}
}

// Name returns the registry name.
func (r *ReferenceMarkupRemover) Name() string {
	return ReferenceMarkupRemoverName
}

// Describe returns the operator description.
func (r *ReferenceMarkupRemover) Describe(lang string) string {
	return describe(lang,
		"删除文本中的引用标记：完整或未闭合的 <ref> 标签（包括以 /br 结尾的残缺形式），"+
			"以及完整或未闭合的 {{cite ...}} 模板。\n"+
			"运行参数：\n"+
			"- input_key：输入文本字段名\n"+
			"输出：\n"+
			"- 原地更新该字段后的数据表\n"+
			"- 返回 [input_key]，供后续算子读取",
		"Removes reference markup from text: complete or unclosed <ref> tags "+
			"(including broken forms ending in /br) and complete or unclosed {{cite ...}} templates.\n"+
			"Run parameters:\n"+
			"- input_key: name of the text field to refine\n"+
			"Output:\n"+
			"- the table with that field refined in place\n"+
			"- [input_key], for downstream operators to read",
		"ReferenceMarkupRemover removes <ref> tags and {{cite}} templates from text.",
	)
}

// Run refines inputKey in place and returns [inputKey].
func (r *ReferenceMarkupRemover) Run(ctx context.Context, st storage.Storage, inputKey string) ([]string, error) {
	stats, err := operator.RefineColumn(ctx, st, r.Name(), inputKey, refineReferences,
		operator.WithWorkers(r.cfg.workers))
	if err != nil {
		return nil, err
	}
	r.stats = stats
	return []string{inputKey}, nil
}

// Stats returns diagnostics for the most recent successful run.
func (r *ReferenceMarkupRemover) Stats() *operator.Stats {
	return r.stats
}
