package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"relay-bridge/config"
	"relay-bridge/pkg/bridge"
	"relay-bridge/pkg/relay"
	"relay-bridge/pkg/wallet"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount>",
	Short: "Fetch a bridging quote for an ETH amount",
	Long: `Fetch a priced Base -> Arbitrum route for the given ETH amount and display
the estimated receive amount and cost. No wallet is required: without a
configured key the quote is previewed for the zero address.

Examples:
  relay-bridge quote 0.5
  relay-bridge quote 1 --json`,
	Args: cobra.ExactArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	apiClient := relay.NewClient(relay.WithBaseURL(cfg.RelayBaseURL))

	quote, err := fetchQuote(cfg, apiClient, amount, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"amount_in":     amount.String(),
			"amount_out":    bridge.ReceiveDisplay(quote, bridge.DefaultRoute.Decimals),
			"fee_usd":       relay.FeeDisplay(quote),
			"request_id":    quote.RequestID(),
			"origin":        cfg.OriginChainID,
			"destination":   cfg.DestinationChainID,
			"time_estimate": timeEstimate(quote),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayQuote(quote, amount.String())
	}
}

// fetchQuote prices the route, with a spinner unless emitting JSON
func fetchQuote(cfg *config.Config, apiClient *relay.Client, amount decimal.Decimal, jsonOutput bool) (*relay.Quote, error) {
	account := relay.ZeroAddress
	if cfg.HasWallet() {
		derived, err := wallet.AddressFromKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		account = derived
	}

	req := &relay.QuoteRequest{
		User:                account,
		Recipient:           account,
		OriginChainID:       cfg.OriginChainID,
		DestinationChainID:  cfg.DestinationChainID,
		OriginCurrency:      relay.ZeroAddress,
		DestinationCurrency: relay.ZeroAddress,
		Amount:              bridge.ToBaseUnits(amount, bridge.DefaultRoute.Decimals),
		TradeType:           relay.TradeTypeExactInput,
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	quote, err := apiClient.Quote(ctx, req)

	if !jsonOutput {
		s.Stop()
	}
	return quote, err
}

func displayQuote(quote *relay.Quote, amount string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    BRIDGE QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s (Base)\n", amount, color.YellowString("ETH"))
	fmt.Printf("  To:                ~%s %s (Arbitrum)\n", bridge.ReceiveDisplay(quote, bridge.DefaultRoute.Decimals), color.YellowString("ETH"))

	fee := relay.FeeDisplay(quote)
	if fee != relay.FeeUnavailable {
		fmt.Printf("  Estimated Cost:    $%s\n", fee)
	} else {
		fmt.Printf("  Estimated Cost:    %s\n", fee)
	}
	if estimate := timeEstimate(quote); estimate > 0 {
		fmt.Printf("  Estimated Time:    %.0f seconds\n", estimate)
	}
	if requestID := quote.RequestID(); requestID != "" {
		fmt.Printf("  Request ID:        %s\n", color.CyanString(requestID))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func timeEstimate(quote *relay.Quote) float64 {
	if quote.Details == nil {
		return 0
	}
	return quote.Details.TimeEstimate
}
