package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	actorID string
	role    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookkeeper-cli",
		Short: "Bookkeeper CLI tool",
		Long:  `A command line interface for interacting with the Bookkeeper API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Bookkeeper API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "demo-user", "Actor ID sent with each request")
	rootCmd.PersistentFlags().StringVar(&role, "role", "owner", "Actor role sent with each request")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	overviewCmd := &cobra.Command{
		Use:   "overview <ledger-id>",
		Short: "Show per-currency assets, liabilities and net worth",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, fmt.Sprintf("/api/v1/ledgers/%s/overview", args[0]))
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <ledger-id>",
		Short: "Compare cached balances against an entry log replay",
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, fmt.Sprintf("/api/v1/ledgers/%s/verify", args[0]))
		},
		Args: cobra.ExactArgs(1),
	}

	rebuildCmd := &cobra.Command{
		Use:   "rebuild <ledger-id>",
		Short: "Replay the entry log and rewrite every cached balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodPost, fmt.Sprintf("/api/v1/ledgers/%s/rebuild", args[0]))
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <ledger-id> <as-of-date>",
		Short: "Show every account's balance as of a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doRequest(http.MethodGet, fmt.Sprintf("/api/v1/ledgers/%s/balance?as_of=%s", args[0], args[1]))
		},
	}

	ledgerCmd.AddCommand(overviewCmd, verifyCmd, rebuildCmd, balanceCmd)
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func doRequest(method, path string) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(method, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-Actor-ID", actorID)
	req.Header.Set("X-Actor-Role", role)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
