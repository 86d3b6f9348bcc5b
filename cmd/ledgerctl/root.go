package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	grpcpkg "github.com/JoeShih716/go-bank-ledger/pkg/grpc"
)

// cli 所有子命令共用的狀態
type cli struct {
	addr    string
	timeout time.Duration
	pool    *grpcpkg.Pool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Command line client for the bank ledger gRPC service",
		Long: `ledgerctl talks to a running ledger server over gRPC (JSON codec).

Examples:
  ledgerctl user create --name Alice --email alice@example.com
  ledgerctl account create --user-id 1
  ledgerctl deposit 0123456789 100.00
  ledgerctl transfer 0123456789 9876543210 25.50
  ledgerctl history 1
  ledgerctl bench --from 0123456789 --to 9876543210 --count 10000`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.pool.Close()
		},
	}
	c.pool = grpcpkg.NewPool()

	rootCmd.PersistentFlags().StringVar(&c.addr, "addr", "localhost:50051", "Ledger server address")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 5*time.Second, "Per request timeout")

	rootCmd.AddCommand(
		newUserCmd(c),
		newAccountCmd(c),
		newDepositCmd(c),
		newWithdrawCmd(c),
		newTransferCmd(c),
		newHistoryCmd(c),
		newReconcileCmd(c),
		newBenchCmd(c),
	)
	return rootCmd
}

// client 從連線池取得連線並包成帳本客戶端
func (c *cli) client() (*grpc_adapter.Client, error) {
	conn, err := c.pool.GetConnection(c.addr)
	if err != nil {
		return nil, err
	}
	return grpc_adapter.NewClient(conn), nil
}

// call 以逾時 context 執行一次 RPC 並把結果以 JSON 輸出
func (c *cli) call(cmd *cobra.Command, fn func(ctx context.Context, client *grpc_adapter.Client) (any, error)) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	resp, err := fn(ctx, client)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
