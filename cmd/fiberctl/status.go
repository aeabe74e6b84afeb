package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the resolved configuration fiberctl would run with",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	label := color.New(color.Faint).SprintFunc()
	fmt.Printf("%s %d\n", label("threads:"), cfg.Threads)
	fmt.Printf("%s %s\n", label("namespace:"), cfg.Namespace)
	fmt.Printf("%s %s\n", label("color:"), cfg.Color)
	return nil
}
