// Package commands implements the CLI commands for refyne-dataflow.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/refyne-dataflow/internal/logger"
	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
	"github.com/jmylchreest/refyne-dataflow/pkg/operator/refine"
)

var rootCmd = &cobra.Command{
	Use:   "refyne-dataflow",
	Short: "Pluggable text refinement pipeline for tabular datasets",
	Long: `refyne-dataflow runs text refiners over a column of a dataset.

Each operator reads one column, cleans every value and writes the table
back as a new step file, so operators can be chained in any order.

Examples:
  # Run a pipeline definition
  refyne-dataflow run -p pipeline.yaml

  # Shard each column across 8 goroutines
  refyne-dataflow run -p pipeline.yaml --workers 8

  # List the available operators
  refyne-dataflow operators

  # Show an operator's description in Chinese
  refyne-dataflow describe ReferenceMarkupRemover --lang zh`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			Level: viper.GetString("log_level"),
			JSON:  viper.GetBool("log_json"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.refyne-dataflow.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".refyne-dataflow")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REFYNE")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newRegistry builds the operator registry every command resolves names against.
func newRegistry(workers int) (*operator.Registry, error) {
	reg := operator.NewRegistry()
	mods := []operator.Module{
		refine.Module{Options: []refine.Option{refine.WithWorkers(workers)}},
	}
	if err := operator.RegisterModules(reg, mods...); err != nil {
		return nil, fmt.Errorf("registering operators: %w", err)
	}
	return reg, nil
}
