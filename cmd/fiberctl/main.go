// Command fiberctl is a small demo CLI around the sched scheduler: it
// runs one of the example workloads for a fixed duration or task count
// and prints a short summary, useful for eyeballing scheduler behavior
// without writing a Go program.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaysched/fibersched/config"
)

var cfgPath string
var cfg config.File

var rootCmd = &cobra.Command{
	Use:   "fiberctl",
	Short: "Drive and inspect a fiber scheduler",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to fiberctl.toml")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
