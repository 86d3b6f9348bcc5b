package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	grpcpkg "github.com/JoeShih716/go-bank-ledger/pkg/grpc"
)

// benchResult 壓測結果
type benchResult struct {
	Requests  int              `json:"requests"`
	Succeeded int64            `json:"succeeded"`
	Failed    map[string]int64 `json:"failed,omitempty"`
	Elapsed   string           `json:"elapsed"`
	TPS       float64          `json:"tps"`
	AvgMillis float64          `json:"avgLatencyMs"`
}

// benchStats 由 client interceptor 累計
type benchStats struct {
	succeeded atomic.Int64
	latency   atomic.Int64 // 總延遲 (ns)

	mu     sync.Mutex
	failed map[string]int64
}

func (s *benchStats) interceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		s.latency.Add(int64(time.Since(start)))
		if code := status.Code(err); code != codes.OK {
			s.mu.Lock()
			s.failed[code.String()]++
			s.mu.Unlock()
			return err
		}
		s.succeeded.Add(1)
		return nil
	}
}

func newBenchCmd(c *cli) *cobra.Command {
	var (
		from        string
		to          string
		amount      string
		count       int
		concurrency int
	)
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Fire concurrent transfers at the server and report throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 || concurrency <= 0 {
				return fmt.Errorf("count and concurrency must be positive")
			}
			stats := &benchStats{failed: make(map[string]int64)}
			pool := grpcpkg.NewPool(grpcpkg.WithInterceptor(stats.interceptor()))
			defer pool.Close()

			conn, err := pool.GetConnection(c.addr)
			if err != nil {
				return err
			}
			client := grpc_adapter.NewClient(conn)

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout*time.Duration(max(1, count/concurrency)))
			defer cancel()

			var wg sync.WaitGroup
			sem := make(chan struct{}, concurrency)
			start := time.Now()
			for i := 0; i < count; i++ {
				sem <- struct{}{}
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-sem }()
					// 失敗已由 interceptor 計入
					_, _ = client.Transfer(ctx, &grpc_adapter.TransferRequest{
						FromAccountNumber: from,
						ToAccountNumber:   to,
						Amount:            amount,
					})
				}()
			}
			wg.Wait()
			elapsed := time.Since(start)

			res := benchResult{
				Requests:  count,
				Succeeded: stats.succeeded.Load(),
				Failed:    stats.failed,
				Elapsed:   elapsed.String(),
			}
			if elapsed > 0 {
				res.TPS = float64(count) / elapsed.Seconds()
			}
			if count > 0 {
				res.AvgMillis = float64(stats.latency.Load()) / float64(count) / float64(time.Millisecond)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	benchCmd.Flags().StringVar(&from, "from", "", "Source account number")
	benchCmd.Flags().StringVar(&to, "to", "", "Destination account number")
	benchCmd.Flags().StringVar(&amount, "amount", "0.01", "Amount per transfer")
	benchCmd.Flags().IntVar(&count, "count", 1000, "Total number of transfers")
	benchCmd.Flags().IntVar(&concurrency, "concurrency", 50, "Concurrent in-flight requests")
	_ = benchCmd.MarkFlagRequired("from")
	_ = benchCmd.MarkFlagRequired("to")
	return benchCmd
}
