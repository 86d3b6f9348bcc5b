package grpc_test

import (
	"context"
	"net"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	grpcadapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

type testEnv struct {
	client *grpcadapter.Client
	conn   *gogrpc.ClientConn
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	store, err := memory.NewStore(nil)
	require.NoError(t, err)
	core := usecase.NewCoreUseCase(store)

	lis := bufconn.Listen(1 << 20)
	s := gogrpc.NewServer(gogrpc.UnaryInterceptor(grpcadapter.LoggingInterceptor()))
	grpcadapter.RegisterLedgerServer(s, grpcadapter.NewGrpcServer(core))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	go func() {
		_ = s.Serve(lis)
	}()

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
	})
	return &testEnv{client: grpcadapter.NewClient(conn), conn: conn}
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	assert.Equal(t, want, st.Code(), st.Message())
}

func TestLedgerServiceFlow(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()
	c := env.client

	user, err := c.CreateUser(ctx, &grpcadapter.CreateUserRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	a1, err := c.CreateAccount(ctx, &grpcadapter.CreateAccountRequest{UserID: user.ID})
	require.NoError(t, err)
	a2, err := c.CreateAccount(ctx, &grpcadapter.CreateAccountRequest{UserID: user.ID})
	require.NoError(t, err)
	assert.Len(t, a1.AccountNumber, 10)
	assert.Equal(t, "Alice", a1.UserName)

	dep, err := c.Deposit(ctx, &grpcadapter.DepositRequest{AccountNumber: a1.AccountNumber, Amount: "100.00"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, dep.Type)
	assert.True(t, dep.Amount.Equal(decimal.NewFromInt(100)))

	_, err = c.Withdraw(ctx, &grpcadapter.WithdrawRequest{AccountNumber: a1.AccountNumber, Amount: "30"})
	require.NoError(t, err)

	tr, err := c.Transfer(ctx, &grpcadapter.TransferRequest{
		FromAccountNumber: a1.AccountNumber,
		ToAccountNumber:   a2.AccountNumber,
		Amount:            "50.00",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSuccess, tr.Status)

	_, err = c.Withdraw(ctx, &grpcadapter.WithdrawRequest{AccountNumber: a1.AccountNumber, Amount: "1000.00"})
	requireCode(t, err, codes.FailedPrecondition)

	got, err := c.GetAccount(ctx, &grpcadapter.GetAccountRequest{AccountNumber: a1.AccountNumber})
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(20)))

	history, err := c.History(ctx, &grpcadapter.HistoryRequest{AccountID: a1.ID})
	require.NoError(t, err)
	require.Len(t, history.Transactions, 4)
	assert.Equal(t, domain.TransactionStatusFailed, history.Transactions[0].Status)

	rec, err := c.Reconcile(ctx, &grpcadapter.ReconcileRequest{AccountNumber: a2.AccountNumber})
	require.NoError(t, err)
	assert.True(t, rec.Balance.Equal(decimal.NewFromInt(50)))
}

func TestLedgerServiceStatusCodes(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()
	c := env.client

	user, err := c.CreateUser(ctx, &grpcadapter.CreateUserRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	acc, err := c.CreateAccount(ctx, &grpcadapter.CreateAccountRequest{UserID: user.ID})
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"duplicate email", func() error {
			_, err := c.CreateUser(ctx, &grpcadapter.CreateUserRequest{Name: "Bob", Email: "bob@example.com"})
			return err
		}, codes.AlreadyExists},
		{"missing user", func() error {
			_, err := c.CreateAccount(ctx, &grpcadapter.CreateAccountRequest{UserID: 999})
			return err
		}, codes.NotFound},
		{"missing account", func() error {
			_, err := c.Deposit(ctx, &grpcadapter.DepositRequest{AccountNumber: "0000000000", Amount: "1"})
			return err
		}, codes.NotFound},
		{"negative amount", func() error {
			_, err := c.Deposit(ctx, &grpcadapter.DepositRequest{AccountNumber: acc.AccountNumber, Amount: "-1"})
			return err
		}, codes.InvalidArgument},
		{"malformed amount", func() error {
			_, err := c.Withdraw(ctx, &grpcadapter.WithdrawRequest{AccountNumber: acc.AccountNumber, Amount: "ten"})
			return err
		}, codes.InvalidArgument},
		{"too many decimals", func() error {
			_, err := c.Deposit(ctx, &grpcadapter.DepositRequest{AccountNumber: acc.AccountNumber, Amount: "0.001"})
			return err
		}, codes.InvalidArgument},
		{"self transfer", func() error {
			_, err := c.Transfer(ctx, &grpcadapter.TransferRequest{
				FromAccountNumber: acc.AccountNumber,
				ToAccountNumber:   acc.AccountNumber,
				Amount:            "1",
			})
			return err
		}, codes.InvalidArgument},
		{"unknown history", func() error {
			_, err := c.History(ctx, &grpcadapter.HistoryRequest{AccountID: 999})
			return err
		}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireCode(t, tt.call(), tt.want)
		})
	}
}

func TestHealthService(t *testing.T) {
	env := setupServer(t)
	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: grpcadapter.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestSelfTransferCheckedBeforeAmount(t *testing.T) {
	env := setupServer(t)
	_, err := env.client.Transfer(context.Background(), &grpcadapter.TransferRequest{
		FromAccountNumber: "0000000001",
		ToAccountNumber:   "0000000001",
		Amount:            "not-a-number",
	})
	requireCode(t, err, codes.InvalidArgument)
	assert.Contains(t, status.Convert(err).Message(), "same account")
}
