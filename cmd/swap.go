package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"relay-bridge/config"
	"relay-bridge/pkg/bridge"
	"relay-bridge/pkg/relay"
	"relay-bridge/pkg/wallet"
)

var noConfirm bool

var swapCmd = &cobra.Command{
	Use:   "swap <amount>",
	Short: "Bridge an ETH amount from Base to Arbitrum",
	Long: `Quote and execute a Base -> Arbitrum bridge for the given ETH amount using
the configured private key.

IMPORTANT:
  - RELAY_BRIDGE_PRIVATE_KEY must be set (or private_key in .relay-bridge.yaml)
  - The key's account pays the deposit transaction on Base

Examples:
  relay-bridge swap 0.5
  relay-bridge swap 0.5 --yes`,
	Args: cobra.ExactArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	amount, ok := bridge.ParseAmount(args[0])
	if !ok || amount.IsZero() {
		printError(fmt.Errorf("invalid amount %q: expected a positive number of ETH", args[0]))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !cfg.HasWallet() {
		printError(fmt.Errorf("no private key configured. Set RELAY_BRIDGE_PRIVATE_KEY to swap"))
		os.Exit(1)
	}

	ctx := context.Background()
	signer, err := wallet.NewEVMWallet(ctx, cfg.OriginRPCURL, cfg.PrivateKey)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := relay.NewClient(relay.WithBaseURL(cfg.RelayBaseURL))

	quote, err := fetchQuote(cfg, apiClient, amount, false)
	if err != nil {
		if verbose {
			fmt.Printf("\nDebug: Error getting quote: %v\n", err)
		}
		printError(err)
		os.Exit(1)
	}

	displayQuote(quote, amount.String())

	if !noConfirm {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Bridging..."
	s.Start()

	err = apiClient.Execute(ctx, quote, signer, func(status relay.ProgressStatus) {
		if status.TxHash != "" {
			s.Suffix = fmt.Sprintf(" Bridging... (tx %s)", status.TxHash)
		} else if status.Status != "" {
			s.Suffix = fmt.Sprintf(" Bridging... (%s)", status.Status)
		}
	})
	s.Stop()

	if err != nil {
		color.Red("\nBridge failed: %v", err)
		os.Exit(1)
	}

	printSuccess(color.GreenString("Bridge transaction sent!"))
	if requestID := quote.RequestID(); requestID != "" {
		fmt.Println("You can monitor the bridge status using:")
		color.Cyan("  relay-bridge status %s\n", requestID)
	}
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
