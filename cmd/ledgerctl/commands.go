package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
)

func newUserCmd(c *cli) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var name, email string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.CreateUser(ctx, &grpc_adapter.CreateUserRequest{Name: name, Email: email})
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "User name")
	createCmd.Flags().StringVar(&email, "email", "", "User email (unique)")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("email")

	userCmd.AddCommand(createCmd)
	return userCmd
}

func newAccountCmd(c *cli) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var userID int64
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account with zero balance for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.CreateAccount(ctx, &grpc_adapter.CreateAccountRequest{UserID: userID})
			})
		},
	}
	createCmd.Flags().Int64Var(&userID, "user-id", 0, "Owner user id")
	_ = createCmd.MarkFlagRequired("user-id")

	getCmd := &cobra.Command{
		Use:   "get ACCOUNT_NUMBER",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.GetAccount(ctx, &grpc_adapter.GetAccountRequest{AccountNumber: args[0]})
			})
		},
	}

	accountCmd.AddCommand(createCmd, getCmd)
	return accountCmd
}

func newDepositCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit ACCOUNT_NUMBER AMOUNT",
		Short: "Deposit money into an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.Deposit(ctx, &grpc_adapter.DepositRequest{AccountNumber: args[0], Amount: args[1]})
			})
		},
	}
}

func newWithdrawCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw ACCOUNT_NUMBER AMOUNT",
		Short: "Withdraw money from an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.Withdraw(ctx, &grpc_adapter.WithdrawRequest{AccountNumber: args[0], Amount: args[1]})
			})
		},
	}
}

func newTransferCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer FROM_ACCOUNT TO_ACCOUNT AMOUNT",
		Short: "Transfer money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.Transfer(ctx, &grpc_adapter.TransferRequest{
					FromAccountNumber: args[0],
					ToAccountNumber:   args[1],
					Amount:            args[2],
				})
			})
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history ACCOUNT_ID",
		Short: "List transactions of an account, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q: %w", args[0], err)
			}
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.History(ctx, &grpc_adapter.HistoryRequest{AccountID: id})
			})
		},
	}
}

func newReconcileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile ACCOUNT_NUMBER",
		Short: "Recompute an account balance from its successful transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.call(cmd, func(ctx context.Context, client *grpc_adapter.Client) (any, error) {
				return client.Reconcile(ctx, &grpc_adapter.ReconcileRequest{AccountNumber: args[0]})
			})
		},
	}
}
