package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/refyne-dataflow/pkg/operator"
)

var operatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "List the registered operators",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry(1)
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("lang")

		out := cmd.OutOrStdout()
		for name := range reg.List() {
			op, err := reg.New(name)
			if err != nil {
				return err
			}
			summary, _, _ := strings.Cut(op.Describe(lang), "\n")
			fmt.Fprintf(out, "%-30s %s\n", name, summary)
		}
		return nil
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <operator>",
	Short: "Show an operator's description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry(1)
		if err != nil {
			return err
		}
		op, err := reg.New(args[0])
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("lang")
		fmt.Fprintln(cmd.OutOrStdout(), op.Describe(lang))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(operatorsCmd)
	rootCmd.AddCommand(describeCmd)

	operatorsCmd.Flags().String("lang", "", "description language: zh, en (default: short summary)")
	describeCmd.Flags().String("lang", operator.LangEN, "description language: zh, en")
}
