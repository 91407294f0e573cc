// Package cli wires the reflectd commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "reflectd",
	Short: "reflectd - reflection token ledger daemon",
	Long: `reflectd runs a single-node ledger for a fungible token with
reflection tax mechanics. Every recorded transaction closes a ledger;
taxed transfers split the gross amount into burn, reflection, and
treasury components atomically.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
}
