package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmylchreest/refyne-dataflow/internal/logger"
	"github.com/jmylchreest/refyne-dataflow/internal/output"
	"github.com/jmylchreest/refyne-dataflow/pkg/table"
)

// DefaultFilePrefix names step files when FileConfig.Prefix is empty.
const DefaultFilePrefix = "dataflow_cache"

// FileConfig configures a File storage.
type FileConfig struct {
	// FirstEntry is the input file read before any step has been written.
	// Its format is taken from the file extension.
	FirstEntry string

	// CacheDir receives one file per committed step.
	CacheDir string

	// Prefix names step files: <CacheDir>/<Prefix>_step<N>.<ext>.
	Prefix string

	// Format of the step files. Defaults to jsonl.
	Format output.Format

	// Pretty indents json step files. Other formats ignore it.
	Pretty bool

	// Indent replaces the default two-space indentation of pretty json.
	Indent string
}

// File is a step-based Storage backed by files. Step 0 is the first entry
// file; every Write creates the next step file and makes it current.
type File struct {
	mu          sync.Mutex
	cfg         FileConfig
	entryFormat output.Format
	step        int
}

// NewFile validates cfg and creates a File storage positioned at step 0.
func NewFile(cfg FileConfig) (*File, error) {
	if cfg.FirstEntry == "" {
		return nil, errors.New("file storage: first entry file is required")
	}
	entryFormat, err := output.ParseFormat(filepath.Ext(cfg.FirstEntry))
	if err != nil {
		return nil, fmt.Errorf("file storage: first entry %s: %w", cfg.FirstEntry, err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "."
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultFilePrefix
	}
	if cfg.Format == "" {
		cfg.Format = output.FormatJSONL
	}
	if _, err := output.ParseFormat(string(cfg.Format)); err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}

	return &File{cfg: cfg, entryFormat: entryFormat}, nil
}

// Step returns the index of the current step.
func (f *File) Step() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Path returns the file holding the current step.
func (f *File) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pathFor(f.step)
}

func (f *File) pathFor(step int) string {
	if step == 0 {
		return f.cfg.FirstEntry
	}
	name := fmt.Sprintf("%s_step%d%s", f.cfg.Prefix, step, f.cfg.Format.Ext())
	return filepath.Join(f.cfg.CacheDir, name)
}

func (f *File) formatFor(step int) output.Format {
	if step == 0 {
		return f.entryFormat
	}
	return f.cfg.Format
}

func (f *File) writerOptions() []output.WriterOption {
	opts := []output.WriterOption{output.WithPretty(f.cfg.Pretty)}
	if f.cfg.Indent != "" {
		opts = append(opts, output.WithIndent(f.cfg.Indent))
	}
	return opts
}

// Read loads the current step file.
func (f *File) Read(ctx context.Context, view string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if view != ViewDataFrame {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	f.mu.Lock()
	path, format := f.pathFor(f.step), f.formatFor(f.step)
	f.mu.Unlock()

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()

	t, err := output.ReadTable(fh, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	logger.Debug("storage read", "path", path, "rows", t.Len(), "columns", len(t.Columns()))
	return t, nil
}

// Write stores t as the next step file. The file is written to a temporary
// name first so a failed write never leaves a truncated step behind.
func (f *File) Write(ctx context.Context, t *table.Table) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if t == nil {
		return "", errors.New("write: nil table")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.step + 1
	path := f.pathFor(next)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := output.WriteTable(tmp, f.cfg.Format, t, f.writerOptions()...); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", path, err)
	}

	f.step = next
	logger.Debug("storage write", "path", path, "step", next, "rows", t.Len())
	return Handle(path), nil
}
