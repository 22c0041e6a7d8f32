package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rally",
		Short: "Pickup volleyball matchmaker: player ratings and balanced teams",
	}
	rootCmd.AddCommand(newServeCmd(), newBalanceCmd(), newSimulateCmd())
	return rootCmd
}
