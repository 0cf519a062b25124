package operator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/refyne-dataflow/pkg/storage"
	"github.com/jmylchreest/refyne-dataflow/pkg/table"
)

func upper(s string) (string, bool, error) {
	out := strings.ToUpper(s)
	return out, out != s, nil
}

func newStore(t *testing.T, text []any) *storage.Memory {
	t.Helper()
	tbl := table.New()
	if err := tbl.AddColumn("id", seq(len(text))); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddColumn("text", text); err != nil {
		t.Fatal(err)
	}
	return storage.NewMemory(tbl)
}

func seq(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestRefineColumn_TransformsInPlace(t *testing.T) {
	st := newStore(t, []any{"abc", "DEF", "ghi"})

	stats, err := RefineColumn(context.Background(), st, "upper", "text", upper)
	if err != nil {
		t.Fatalf("RefineColumn() error = %v", err)
	}

	snap := st.Snapshot()
	got, _ := snap.Column("text")
	if diff := cmp.Diff([]any{"ABC", "DEF", "GHI"}, got); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	ids, _ := snap.Column("id")
	if diff := cmp.Diff(seq(3), ids); diff != "" {
		t.Errorf("other column changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"id", "text"}, snap.Columns()); diff != "" {
		t.Errorf("column order changed (-want +got):\n%s", diff)
	}

	if stats.Rows != 3 || stats.Modified != 2 {
		t.Errorf("stats = %+v, want rows=3 modified=2", stats)
	}
	if st.Version() != 1 {
		t.Errorf("writes = %d, want exactly 1", st.Version())
	}
}

func TestRefineColumn_MissingColumn(t *testing.T) {
	st := newStore(t, []any{"a"})

	_, err := RefineColumn(context.Background(), st, "upper", "nope", upper)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("error = %v, want ErrMissingColumn", err)
	}
	var mc *MissingColumnError
	if !errors.As(err, &mc) || mc.Key != "nope" {
		t.Errorf("expected MissingColumnError for key %q, got %v", "nope", err)
	}
	if st.Version() != 0 {
		t.Error("storage written despite missing column")
	}
}

func TestRefineColumn_NullsPassThrough(t *testing.T) {
	st := newStore(t, []any{"a", nil, "b"})

	stats, err := RefineColumn(context.Background(), st, "upper", "text", upper)
	if err != nil {
		t.Fatalf("RefineColumn() error = %v", err)
	}

	got, _ := st.Snapshot().Column("text")
	if diff := cmp.Diff([]any{"A", nil, "B"}, got); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	if stats.Nulls != 1 || stats.Modified != 2 {
		t.Errorf("stats = %+v, want nulls=1 modified=2", stats)
	}
}

func TestRefineColumn_NonTextFailsWithoutWrite(t *testing.T) {
	st := newStore(t, []any{"a", 42, "b"})

	_, err := RefineColumn(context.Background(), st, "upper", "text", upper)
	if !errors.Is(err, ErrTypeConversion) {
		t.Fatalf("error = %v, want ErrTypeConversion", err)
	}
	var tc *TypeConversionError
	if !errors.As(err, &tc) || tc.Row != 1 {
		t.Errorf("expected TypeConversionError at row 1, got %v", err)
	}
	if st.Version() != 0 {
		t.Error("partial column written")
	}
}

func TestRefineColumn_TransformErrorFailsWithoutWrite(t *testing.T) {
	st := newStore(t, []any{"ok", "boom", "ok"})
	boom := errors.New("boom")

	fn := func(s string) (string, bool, error) {
		if s == "boom" {
			return "", false, boom
		}
		return s, false, nil
	}

	_, err := RefineColumn(context.Background(), st, "failing", "text", fn)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	var re *RefineError
	if !errors.As(err, &re) || re.Row != 1 {
		t.Errorf("expected RefineError at row 1, got %v", err)
	}
	if st.Version() != 0 {
		t.Error("partial column written")
	}
}

func TestRefineColumn_ShardedPreservesOrder(t *testing.T) {
	const n = 1000
	text := make([]any, n)
	want := make([]any, n)
	for i := range text {
		text[i] = fmt.Sprintf("row-%d", i)
		want[i] = fmt.Sprintf("ROW-%d", i)
	}
	text[500] = nil
	want[500] = nil

	for _, workers := range []int{0, 1, 3, 8, 2000} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			st := newStore(t, append([]any(nil), text...))

			stats, err := RefineColumn(context.Background(), st, "upper", "text", upper, WithWorkers(workers))
			if err != nil {
				t.Fatalf("RefineColumn() error = %v", err)
			}

			got, _ := st.Snapshot().Column("text")
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("text mismatch (-want +got):\n%s", diff)
			}
			if stats.Modified != n-1 || stats.Nulls != 1 {
				t.Errorf("stats = %+v, want modified=%d nulls=1", stats, n-1)
			}
		})
	}
}

func TestRefineColumn_ShardedErrorFailsWithoutWrite(t *testing.T) {
	text := make([]any, 100)
	for i := range text {
		text[i] = "x"
	}
	text[77] = 3.14
	st := newStore(t, text)

	_, err := RefineColumn(context.Background(), st, "upper", "text", upper, WithWorkers(4))
	if !errors.Is(err, ErrTypeConversion) {
		t.Fatalf("error = %v, want ErrTypeConversion", err)
	}
	if st.Version() != 0 {
		t.Error("partial column written")
	}
}

func TestRefineColumn_EmptyTable(t *testing.T) {
	st := newStore(t, []any{})

	stats, err := RefineColumn(context.Background(), st, "upper", "text", upper, WithWorkers(4))
	if err != nil {
		t.Fatalf("RefineColumn() error = %v", err)
	}
	if stats.Rows != 0 || stats.Modified != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if st.Version() != 1 {
		t.Errorf("writes = %d, want 1", st.Version())
	}
}

func TestRefineColumn_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := newStore(t, []any{"a"})

	if _, err := RefineColumn(ctx, st, "upper", "text", upper); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// failingWriteStorage reads from an in-memory table but rejects writes.
type failingWriteStorage struct {
	*storage.Memory
}

func (f failingWriteStorage) Write(ctx context.Context, t *table.Table) (storage.Handle, error) {
	return "", errors.New("disk full")
}

func TestRefineColumn_WriteError(t *testing.T) {
	st := failingWriteStorage{newStore(t, []any{"a"})}

	_, err := RefineColumn(context.Background(), st, "upper", "text", upper)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want write failure", err)
	}
}

func TestStats_String(t *testing.T) {
	s := &Stats{Operator: "op", InputKey: "text", Rows: 4, Modified: 1}
	if got := s.String(); !strings.Contains(got, "1/4 rows modified (25.0%)") {
		t.Errorf("String() = %q", got)
	}
	if (&Stats{}).ModifiedPercent() != 0 {
		t.Error("ModifiedPercent() on empty stats should be 0")
	}
}

func TestPreview(t *testing.T) {
	short := "short"
	if preview(short) != short {
		t.Errorf("preview(%q) = %q", short, preview(short))
	}
	long := strings.Repeat("é", 40)
	if got := preview(long); got != strings.Repeat("é", 30)+"..." {
		t.Errorf("preview(long) = %q", got)
	}
}
