package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
	"github.com/jmylchreest/refyne-dataflow/pkg/operator/refine"
	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
	"github.com/jmylchreest/refyne-dataflow/pkg/table"
)

func newRegistry(t *testing.T) *operator.Registry {
	t.Helper()
	reg := operator.NewRegistry()
	if err := operator.RegisterModules(reg, refine.Module{}); err != nil {
		t.Fatal(err)
	}
	return reg
}

// --- Config Tests ---

func TestFromYAML_Valid(t *testing.T) {
	cfg, err := FromYAML([]byte(`
storage:
  first_entry: data/input.jsonl
  cache_dir: cache
  format: json
workers: 4
steps:
  - operator: ReferenceMarkupRemover
    input_key: text
  - operator: RepeatedPunctuationCollapser
`))
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}

	want := &Config{
		Storage: StorageConfig{FirstEntry: "data/input.jsonl", CacheDir: "cache", Format: "json"},
		Workers: 4,
		Steps: []Step{
			{Operator: "ReferenceMarkupRemover", InputKey: "text"},
			{Operator: "RepeatedPunctuationCollapser"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestFromJSON_Valid(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"storage": {"first_entry": "in.jsonl"},
		"steps": [{"operator": "ReferenceMarkupRemover", "input_key": "text"}]
	}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if len(cfg.Steps) != 1 || cfg.Steps[0].InputKey != "text" {
		t.Errorf("unexpected steps: %+v", cfg.Steps)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no_steps",
			yaml:    "storage: {first_entry: a.jsonl}\n",
			wantErr: "Steps",
		},
		{
			name:    "missing_first_entry",
			yaml:    "steps: [{operator: x, input_key: text}]\n",
			wantErr: "FirstEntry",
		},
		{
			name:    "bad_format",
			yaml:    "storage: {first_entry: a.jsonl, format: csv}\nsteps: [{operator: x, input_key: text}]\n",
			wantErr: "oneof",
		},
		{
			name:    "missing_operator",
			yaml:    "storage: {first_entry: a.jsonl}\nsteps: [{input_key: text}]\n",
			wantErr: "Operator",
		},
		{
			name:    "negative_workers",
			yaml:    "storage: {first_entry: a.jsonl}\nworkers: -1\nsteps: [{operator: x, input_key: text}]\n",
			wantErr: "Workers",
		},
		{
			name:    "first_step_without_key",
			yaml:    "storage: {first_entry: a.jsonl}\nsteps: [{operator: x}]\n",
			wantErr: "input_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	_ = os.WriteFile(path, []byte("x"), 0o644)

	if _, err := FromFile(path); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("FromFile() error = %v, want unsupported format", err)
	}
}

// --- Pipeline Tests ---

func TestNew_UnknownOperator(t *testing.T) {
	_, err := New(newRegistry(t), []Step{
		{Operator: refine.ReferenceMarkupRemoverName, InputKey: "text"},
		{Operator: "Nope"},
	})
	if !errors.Is(err, operator.ErrNotFound) {
		t.Fatalf("New() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "step 1") {
		t.Errorf("error should name the step: %v", err)
	}
}

func TestNew_NoSteps(t *testing.T) {
	if _, err := New(newRegistry(t), nil); err == nil {
		t.Error("expected error for empty pipeline")
	}
}

func TestRun_ChainsKeys(t *testing.T) {
	tbl := table.New()
	_ = tbl.AddColumn("text", []any{"<ref>x</ref>!!!", "fine", "a,, b"})
	_ = tbl.AddColumn("other", []any{"!!", "!!", "!!"})
	st := storage.NewMemory(tbl)

	p, err := New(newRegistry(t), []Step{
		{Operator: refine.ReferenceMarkupRemoverName, InputKey: "text"},
		{Operator: refine.RepeatedPunctuationCollapserName},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results, err := p.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	snap := st.Snapshot()
	text, _ := snap.Column("text")
	if diff := cmp.Diff([]any{"!", "fine", "a, b"}, text); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	other, _ := snap.Column("other")
	if diff := cmp.Diff([]any{"!!", "!!", "!!"}, other); diff != "" {
		t.Errorf("untargeted column changed (-want +got):\n%s", diff)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].InputKey != "text" {
		t.Errorf("second step input = %q, want inherited %q", results[1].InputKey, "text")
	}
	if results[0].Stats.Modified != 1 || results[1].Stats.Modified != 2 {
		t.Errorf("modified counts = %d, %d; want 1, 2",
			results[0].Stats.Modified, results[1].Stats.Modified)
	}
	if st.Version() != 2 {
		t.Errorf("writes = %d, want one per step", st.Version())
	}
}

func TestRun_StopsAtFirstError(t *testing.T) {
	tbl := table.New()
	_ = tbl.AddColumn("text", []any{"a"})
	st := storage.NewMemory(tbl)

	p, _ := New(newRegistry(t), []Step{
		{Operator: refine.ReferenceMarkupRemoverName, InputKey: "text"},
		{Operator: refine.RepeatedPunctuationCollapserName, InputKey: "missing"},
		{Operator: refine.ReferenceMarkupRemoverName},
	})

	results, err := p.Run(context.Background(), st)
	if !errors.Is(err, operator.ErrMissingColumn) {
		t.Fatalf("Run() error = %v, want ErrMissingColumn", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d completed steps, want 1", len(results))
	}
	if st.Version() != 1 {
		t.Errorf("writes = %d, want 1", st.Version())
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := New(newRegistry(t), []Step{{Operator: refine.ReferenceMarkupRemoverName, InputKey: "text"}})
	results, err := p.Run(ctx, storage.NewMemory(nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestRun_FileStorageEndToEnd(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "input.jsonl")
	input := `{"id":1,"text":"A<ref name=\"x\">footnote</ref>B!!"}` + "\n" +
		`{"id":2,"text":"{{cite web|url=http://x|title=Y}}tail"}` + "\n"
	if err := os.WriteFile(entry, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "pipeline.yaml")
	cfgYAML := "storage:\n  first_entry: " + entry + "\n  cache_dir: " + filepath.Join(dir, "cache") +
		"\nsteps:\n  - operator: ReferenceMarkupRemover\n    input_key: text\n  - operator: RepeatedPunctuationCollapser\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromFile(cfgPath)
	if err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}
	st, err := cfg.Storage.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	p, err := New(newRegistry(t), cfg.Steps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := p.Run(context.Background(), st); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if st.Step() != 2 {
		t.Errorf("Step() = %d, want 2", st.Step())
	}
	out, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatalf("reading final step: %v", err)
	}
	want := `{"id":1,"text":"AB!"}` + "\n" + `{"id":2,"text":"tail"}` + "\n"
	if string(out) != want {
		t.Errorf("final step =\n%s\nwant\n%s", out, want)
	}
}
