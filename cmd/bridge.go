package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relay-bridge/config"
	"relay-bridge/pkg/bridge"
	"relay-bridge/pkg/relay"
	"relay-bridge/pkg/wallet"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Interactive bridging session",
	Long: `Start an interactive Base -> Arbitrum bridging session. Type an amount of
ETH and a quote is fetched once the input settles; edit the amount freely and
only the final value is quoted.

Commands inside the session:
  <amount>   quote that amount (e.g. 0.5)
  max        use the full balance minus a small gas reserve
  balance    show the connected account's Base balance
  swap       execute the current quote
  quit       leave the session`,
	Run: runBridge,
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
}

func runBridge(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}

	apiClient := relay.NewClient(relay.WithBaseURL(cfg.RelayBaseURL))

	options := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithRoute(bridge.Route{
			OriginChainID:      cfg.OriginChainID,
			DestinationChainID: cfg.DestinationChainID,
			Currency:           relay.ZeroAddress,
			Decimals:           18,
		}),
		bridge.WithQuoteTimeout(cfg.RequestTimeout),
		bridge.WithOnUpdate(renderUpdate),
		bridge.WithNotifier(renderNotice),
	}

	var account *wallet.EVMWallet
	if cfg.HasWallet() {
		account, err = wallet.NewEVMWallet(context.Background(), cfg.OriginRPCURL, cfg.PrivateKey)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		options = append(options, bridge.WithWallet(account))
	}

	session := bridge.NewSession(apiClient, options...)
	defer session.Close()

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("            BASE -> ARBITRUM BRIDGE")
	fmt.Println(strings.Repeat("=", 60))
	if account != nil {
		fmt.Printf("\nConnected: %s\n", color.CyanString(account.Address()))
	} else {
		color.Yellow("\nNo wallet configured: quotes are previews only.")
	}
	fmt.Println("Enter an amount of ETH, or 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(strings.ToLower(scanner.Text()))

		switch input {
		case "":
			continue
		case "quit", "exit", "q":
			return
		case "help":
			fmt.Println("Commands: <amount>, max, balance, swap, quit")
		case "balance":
			showBalance(account)
		case "max":
			amount, err := session.UseMax(context.Background())
			if err != nil {
				if errors.Is(err, bridge.ErrNotReady) {
					color.Yellow("Connect a wallet first (set RELAY_BRIDGE_PRIVATE_KEY).")
				} else {
					color.Red("Error: %v", err)
				}
				continue
			}
			fmt.Printf("Amount set to %s ETH\n", amount)
		case "swap":
			if err := session.Swap(context.Background()); err != nil && errors.Is(err, bridge.ErrNotReady) {
				color.Yellow("Nothing to swap yet: enter an amount and wait for a quote.")
			}
		default:
			session.SetAmount(input)
		}
	}
}

// renderUpdate prints the session state transitions as they happen
func renderUpdate(snapshot bridge.Snapshot) {
	switch snapshot.State {
	case bridge.StateQuoting:
		fmt.Printf("  Fetching quote for %s ETH...\n", snapshot.Amount)
	case bridge.StateQuoteReady:
		fee := snapshot.Fee
		if fee != relay.FeeUnavailable {
			fee = "$" + fee
		}
		fmt.Printf("  Receive ~%s ETH on Arbitrum (cost %s). Type 'swap' to bridge.\n",
			color.YellowString(snapshot.Receive), fee)
	case bridge.StateSwapping:
		fmt.Println("  Bridging...")
	}
}

func renderNotice(notice bridge.Notice) {
	switch notice.Kind {
	case bridge.NoticeSwapSubmitted:
		color.Green("  %s", notice.Message)
	case bridge.NoticeSwapFailed:
		color.Red("  %s", notice.Message)
	}
}

func showBalance(account *wallet.EVMWallet) {
	if account == nil {
		color.Yellow("No wallet configured.")
		return
	}
	balance, err := account.Balance(context.Background())
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	fmt.Printf("Balance: %s ETH\n", bridge.FromBaseUnits(balance, 18).StringFixed(5))
}
