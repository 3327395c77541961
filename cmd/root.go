package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay-bridge",
	Short: "A CLI for bridging ETH from Base to Arbitrum via Relay",
	Long: `relay-bridge is a command-line tool that bridges native ETH from Base to
Arbitrum One through the Relay routing service. Relay finds the route and
settles the transfer; this tool quotes it, shows you the cost, and submits
the transactions with your configured key.

Examples:
  relay-bridge quote 0.5
  relay-bridge swap 0.5 --yes
  relay-bridge bridge
  relay-bridge status <request-id>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
