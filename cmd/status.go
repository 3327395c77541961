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
	"github.com/spf13/cobra"

	"relay-bridge/config"
	"relay-bridge/pkg/relay"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <request-id>",
	Short: "Check the status of a bridge",
	Long: `Check the execution status of a bridge by its request ID.

Examples:
  relay-bridge status 0x1234...abcd
  relay-bridge status 0x1234...abcd --watch
  relay-bridge status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	requestID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := relay.NewClient(relay.WithBaseURL(cfg.RelayBaseURL))

	if watchStatus {
		watchBridgeStatus(apiClient, requestID, jsonOutput)
	} else {
		checkBridgeStatus(apiClient, requestID, jsonOutput)
	}
}

func checkBridgeStatus(apiClient *relay.Client, requestID string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking bridge status..."
		s.Start()
	}

	status, err := apiClient.ExecutionStatus(context.Background(), requestID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status, requestID)
	}
}

func watchBridgeStatus(apiClient *relay.Client, requestID string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching bridge status (Request ID: %s)\n", color.CyanString(requestID))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayStatus(apiClient, requestID)

	// Then check periodically
	for range ticker.C {
		checkAndDisplayStatus(apiClient, requestID)
	}
}

func checkAndDisplayStatus(apiClient *relay.Client, requestID string) {
	status, err := apiClient.ExecutionStatus(context.Background(), requestID)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	displayStatus(status, requestID)
}

func displayStatus(status *relay.StatusResponse, requestID string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       BRIDGE STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Request ID:      %s\n", color.CyanString(requestID))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status.Status))
	if status.Details != "" {
		fmt.Printf("  Details:         %s\n", status.Details)
	}
	if status.UpdatedAt != "" {
		fmt.Printf("  Last Updated:    %s\n", status.UpdatedAt)
	}

	for _, hash := range status.InTxHashes {
		if hash != "" {
			fmt.Printf("  Deposit Tx:      %s\n", color.HiBlackString(hash))
		}
	}
	for _, hash := range status.TxHashes {
		if hash != "" {
			fmt.Printf("  Fill Tx:         %s\n", color.HiBlackString(hash))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	switch strings.ToLower(status) {
	case relay.StatusSuccess:
		return color.GreenString(status)
	case relay.StatusWaiting, relay.StatusPending:
		return color.YellowString(status)
	case relay.StatusFailure, relay.StatusRefund:
		return color.RedString(status)
	default:
		return status
	}
}
