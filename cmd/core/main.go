package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpc_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/gormdb"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	postgres_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/postgres"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/internal/config"
	"github.com/JoeShih716/go-bank-ledger/pkg/logger"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/postgres"
	"github.com/JoeShih716/go-bank-ledger/pkg/sqlite"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

func main() {
	configPath := flag.String("config", "", "設定檔路徑 (預設 config/config.yaml)")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化 Logger
	_, syncLogger, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		zap.L().Error("Server exited with error", zap.Error(err))
		syncLogger()
		os.Exit(1)
	}
	syncLogger()
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// 3. 初始化儲存層
	uow, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(uow,
		usecase.WithNumberGenerator(usecase.NewUUIDNumberGenerator(cfg.Ledger.AccountNumberDigits)),
		usecase.WithMaxNumberAttempts(cfg.Ledger.MaxNumberAttempts),
	)

	// 5. 初始化 gRPC Adapter
	s := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.LoggingInterceptor()))
	grpc_adapter.RegisterLedgerServer(s, grpc_adapter.NewGrpcServer(coreUseCase))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(grpc_adapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	// 6. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info("Starting gRPC server",
			zap.String("addr", cfg.GRPC.Addr),
			zap.String("store", cfg.Store))
		serveErr <- s.Serve(lis)
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		zap.L().Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	}

	healthSrv.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.GRPC.ShutdownTimeout):
		zap.L().Warn("Graceful stop timed out, forcing stop",
			zap.Duration("timeout", cfg.GRPC.ShutdownTimeout))
		s.Stop()
	}
	zap.L().Info("Server exited")
	return nil
}

// openStore 依設定建立對應的儲存層
//
// 回傳:
//
//	usecase.UnitOfWork: 儲存層
//	func(): 關閉資源
//	error: 連線或初始化失敗
func openStore(ctx context.Context, cfg *config.Config) (usecase.UnitOfWork, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		if cfg.WAL.Path == "" {
			store, err := memory_adapter.NewStore(nil)
			return store, func() {}, err
		}
		walFile, err := wal.NewWAL(cfg.WAL.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init WAL: %w", err)
		}
		store, err := memory_adapter.NewStore(walFile)
		if err != nil {
			_ = walFile.Close()
			return nil, nil, fmt.Errorf("failed to recover from WAL: %w", err)
		}
		zap.L().Info("Memory store ready", zap.String("wal", cfg.WAL.Path))
		return store, func() { _ = walFile.Close() }, nil

	case config.StoreMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		store := gormdb.NewStore(dbClient.DB())
		if err := store.AutoMigrate(ctx); err != nil {
			_ = dbClient.Close()
			return nil, nil, err
		}
		return store, func() { _ = dbClient.Close() }, nil

	case config.StoreSQLite:
		dbClient, err := sqlite.NewClient(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		store := gormdb.NewStore(dbClient.DB())
		if err := store.AutoMigrate(ctx); err != nil {
			_ = dbClient.Close()
			return nil, nil, err
		}
		return store, func() { _ = dbClient.Close() }, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := postgres_adapter.New(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
