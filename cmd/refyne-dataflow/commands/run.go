package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/refyne-dataflow/internal/logger"
	"github.com/jmylchreest/refyne-dataflow/pkg/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a pipeline definition",
	Long: `Run the operators listed in a pipeline file against its storage.

The pipeline file is YAML or JSON:

  storage:
    first_entry: data/input.jsonl
    cache_dir: cache
    format: json
    pretty: true
  workers: 4
  steps:
    - operator: ReferenceMarkupRemover
      input_key: text
    - operator: RepeatedPunctuationCollapser

A step without input_key reads the key returned by the previous step.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("pipeline", "p", "", "path to pipeline file (required)")
	flags.IntP("workers", "w", 0, "goroutines per column (overrides the pipeline file)")
	flags.String("first-entry", "", "override the storage input file")
	flags.String("cache-dir", "", "override the storage cache directory")
	flags.Bool("pretty", false, "indent json step files")

	_ = runCmd.MarkFlagRequired("pipeline")

	_ = viper.BindPFlag("workers", flags.Lookup("workers"))
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path, _ := cmd.Flags().GetString("pipeline")
	logger.Debug("loading pipeline", "path", path)
	cfg, err := pipeline.FromFile(path)
	if err != nil {
		logger.Error("failed to load pipeline", "error", err)
		return err
	}

	if entry, _ := cmd.Flags().GetString("first-entry"); entry != "" {
		cfg.Storage.FirstEntry = entry
	}
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		cfg.Storage.CacheDir = dir
	}
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		cfg.Storage.Pretty = true
	}
	if viper.IsSet("workers") {
		cfg.Workers = viper.GetInt("workers")
	}
	logger.Debug("pipeline loaded", "steps", len(cfg.Steps), "workers", cfg.Workers)

	reg, err := newRegistry(cfg.Workers)
	if err != nil {
		return err
	}
	p, err := pipeline.New(reg, cfg.Steps)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return err
	}
	st, err := cfg.Storage.Open()
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return err
	}

	start := time.Now()
	results, err := p.Run(ctx, st)
	if err != nil {
		logger.ErrorContext(ctx, "pipeline failed", "completed_steps", len(results), "error", err)
		return err
	}

	var size uint64
	if fi, err := os.Stat(st.Path()); err == nil {
		size = uint64(fi.Size())
	}
	return printSummary(cmd.OutOrStdout(), results, st.Path(), size, time.Since(start))
}

func printSummary(w io.Writer, results []pipeline.StepResult, path string, size uint64, elapsed time.Duration) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tOPERATOR\tKEY\tMODIFIED\tROWS\tDURATION")
	for _, r := range results {
		modified, rows := "-", "-"
		if r.Stats != nil {
			modified = humanize.Comma(int64(r.Stats.Modified))
			rows = humanize.Comma(int64(r.Stats.Rows))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%v\n",
			r.Index, r.Operator, r.InputKey, modified, rows, r.Duration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nOutput: %s (%s) in %v\n", path, humanize.Bytes(size), elapsed.Round(time.Millisecond))
	return err
}
