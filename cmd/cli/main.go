package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "walletd-cli",
		Short: "walletd CLI tool",
		Long:  `A command line interface for interacting with the walletd API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the walletd API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		walletCmd(),
		balanceCmd(),
		creditCmd(),
		debitCmd(),
		transactionsCmd(),
		verifyCmd(),
		reconcileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet <tenant>",
		Short: "Show a tenant's wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiGet("/api/v1/tenants/" + url.PathEscape(args[0]) + "/wallet")
		},
	}

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <tenant> <account-type>",
		Short: "Show one account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiGet(accountPath(args[0], args[1]) + "/balance")
		},
	}
}

func creditCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "credit <tenant> <account-type> <amount>",
		Short: "Credit an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiPost(accountPath(args[0], args[1])+"/credit", operationBody(args[2], key))
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key")

	return cmd
}

func debitCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "debit <tenant> <account-type> <amount>",
		Short: "Debit an account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiPost(accountPath(args[0], args[1])+"/debit", operationBody(args[2], key))
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key")

	return cmd
}

func transactionsCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "transactions <tenant>",
		Short: "List a tenant's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/tenants/%s/transactions?limit=%d&offset=%d",
				url.PathEscape(args[0]), limit, offset)

			body, err := request(http.MethodGet, path, nil)
			if err != nil {
				return err
			}

			var transactions []struct {
				ID           string `json:"id"`
				Direction    string `json:"direction"`
				Amount       string `json:"amount"`
				BalanceAfter string `json:"balance_after"`
				Description  string `json:"description"`
				CreatedAt    string `json:"created_at"`
			}
			if err := json.Unmarshal(body, &transactions); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Printf("%-28s %-7s %16s %16s %s\n", "ID", "DIR", "AMOUNT", "BALANCE", "DESCRIPTION")
			for _, tx := range transactions {
				fmt.Printf("%-28s %-7s %16s %16s %s\n",
					tx.ID, tx.Direction, tx.Amount, tx.BalanceAfter, truncate(tx.Description, 40))
			}

			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum transactions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of transactions to skip")

	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <tenant> <account-type>",
		Short: "Verify an account's hash chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := request(http.MethodGet, accountPath(args[0], args[1])+"/verify", nil)
			if err != nil {
				return err
			}

			var result struct {
				Valid                       bool   `json:"valid"`
				Checked                     int    `json:"checked"`
				Reason                      string `json:"reason"`
				FirstDivergentTransactionID string `json:"first_divergent_transaction_id"`
			}
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if result.Valid {
				fmt.Printf("chain VALID (%d records checked)\n", result.Checked)
				return nil
			}

			fmt.Printf("chain BROKEN at %s: %s\n", result.FirstDivergentTransactionID, result.Reason)
			os.Exit(1)

			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <tenant> <account-type>",
		Short: "Check the stored balance against the chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiGet(accountPath(args[0], args[1]) + "/reconcile")
		},
	}
}

func accountPath(tenant, accountType string) string {
	return "/api/v1/tenants/" + url.PathEscape(tenant) + "/accounts/" + url.PathEscape(accountType)
}

func operationBody(amount, key string) map[string]any {
	body := map[string]any{"amount": amount}
	if key != "" {
		body["idempotency_key"] = key
	}

	return body
}

// request performs one API call and returns the response body, treating any
// non-2xx status as an error.
func request(method, path string, payload any) ([]byte, error) {
	client := &http.Client{Timeout: timeout}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func apiGet(path string) error {
	body, err := request(http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	return printRaw(body)
}

func apiPost(path string, payload any) error {
	body, err := request(http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	return printRaw(body)
}

func printRaw(body []byte) error {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(decoded)

	return nil
}

func printJSON(v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}

	fmt.Println(string(encoded))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max-3] + "..."
}
