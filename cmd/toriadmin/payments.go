package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

func newPaymentCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newTransactionsCommand(ctx),
		newTransactionCommand(ctx),
		newWalletCommand(ctx),
		newTopupCommand(ctx),
	}
}

func printTransactions(cmd *cobra.Command, txs []toribox.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions")
		return
	}

	rows := lo.Map(txs, func(tx toribox.Transaction, _ int) []string {
		created := "-"
		if !tx.CreatedAt.IsZero() {
			created = tx.CreatedAt.Local().Format(time.DateTime)
		}
		return []string{tx.ID, strconv.FormatFloat(tx.Amount, 'f', 2, 64), tx.Status, created}
	})
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]column{textCol("ID"), numCol("Amount"), textCol("Status"), textCol("Created")},
		rows,
	))
}

func newTransactionsCommand(ctx *commandContext) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}
			txs, err := ctx.client.ListTransactions(cmd.Context(), token, page, limit)
			if err != nil {
				return err
			}
			printTransactions(cmd, txs)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Transactions per page")
	return cmd
}

func newTransactionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transaction <id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}
			txs, err := ctx.client.GetTransaction(cmd.Context(), token, args[0], 1, 10)
			if err != nil {
				return err
			}
			printTransactions(cmd, txs)
			return nil
		},
	}
}

func newWalletCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show the wallet balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}
			wallet, err := ctx.client.GetWallet(cmd.Context(), token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %.2f\n", wallet.Balance)
			return nil
		},
	}
}

func newTopupCommand(ctx *commandContext) *cobra.Command {
	var req toribox.PaystackRequest

	cmd := &cobra.Command{
		Use:   "topup",
		Short: "Start a Paystack wallet top-up and print the checkout URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := ctx.requireToken()
			if err != nil {
				return err
			}
			if req.Email == "" {
				if creds, err := ctx.store.GetCredentials(); err == nil {
					req.Email = creds.Email
				}
			}

			session, err := ctx.client.CreatePaystackSession(cmd.Context(), token, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL to pay: %s\n", session.AuthorizationURL)
			if session.Reference != "" {
				fmt.Fprintf(out, "Reference: %s\n", session.Reference)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Payer email (defaults to the logged in admin)")
	cmd.Flags().StringVar(&req.FullName, "name", "", "Payer full name")
	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "Amount to charge")
	cmd.Flags().IntVar(&req.Coins, "coins", 0, "Coins to credit")
	cmd.Flags().StringVar(&req.Currency, "currency", "NGN", "Currency code")
	return cmd
}
