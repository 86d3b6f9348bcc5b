package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	grpcpkg "github.com/JoeShih716/go-bank-ledger/pkg/grpc"
)

// ServiceName gRPC 服務全名
const ServiceName = "ledger.LedgerService"

// LedgerServer 帳本服務介面
type LedgerServer interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*usecase.UserView, error)
	CreateAccount(ctx context.Context, req *CreateAccountRequest) (*usecase.AccountView, error)
	GetAccount(ctx context.Context, req *GetAccountRequest) (*usecase.AccountView, error)
	Deposit(ctx context.Context, req *DepositRequest) (*usecase.TransactionView, error)
	Withdraw(ctx context.Context, req *WithdrawRequest) (*usecase.TransactionView, error)
	Transfer(ctx context.Context, req *TransferRequest) (*usecase.TransactionView, error)
	History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error)
	Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResponse, error)
}

// ServiceDesc 手寫的服務描述，訊息以 JSON codec 編碼
var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []gogrpc.MethodDesc{
		unaryMethod("CreateUser", LedgerServer.CreateUser),
		unaryMethod("CreateAccount", LedgerServer.CreateAccount),
		unaryMethod("GetAccount", LedgerServer.GetAccount),
		unaryMethod("Deposit", LedgerServer.Deposit),
		unaryMethod("Withdraw", LedgerServer.Withdraw),
		unaryMethod("Transfer", LedgerServer.Transfer),
		unaryMethod("History", LedgerServer.History),
		unaryMethod("Reconcile", LedgerServer.Reconcile),
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "ledger",
}

// RegisterLedgerServer 將實作註冊到 gRPC Server
func RegisterLedgerServer(s gogrpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryMethod 產生單一請求方法的 handler (解碼、攔截器、呼叫實作)
func unaryMethod[Req any, Resp any](name string, call func(LedgerServer, context.Context, *Req) (Resp, error)) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(LedgerServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client 帳本服務的客戶端
type Client struct {
	cc gogrpc.ClientConnInterface
}

// NewClient 以既有連線建立客戶端 (連線可來自 pkg/grpc.Pool)
func NewClient(cc gogrpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...gogrpc.CallOption) error {
	opts = append([]gogrpc.CallOption{gogrpc.CallContentSubtype(grpcpkg.CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...gogrpc.CallOption) (*usecase.UserView, error) {
	out := new(usecase.UserView)
	if err := c.invoke(ctx, "CreateUser", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, in *CreateAccountRequest, opts ...gogrpc.CallOption) (*usecase.AccountView, error) {
	out := new(usecase.AccountView)
	if err := c.invoke(ctx, "CreateAccount", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAccount(ctx context.Context, in *GetAccountRequest, opts ...gogrpc.CallOption) (*usecase.AccountView, error) {
	out := new(usecase.AccountView)
	if err := c.invoke(ctx, "GetAccount", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Deposit(ctx context.Context, in *DepositRequest, opts ...gogrpc.CallOption) (*usecase.TransactionView, error) {
	out := new(usecase.TransactionView)
	if err := c.invoke(ctx, "Deposit", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Withdraw(ctx context.Context, in *WithdrawRequest, opts ...gogrpc.CallOption) (*usecase.TransactionView, error) {
	out := new(usecase.TransactionView)
	if err := c.invoke(ctx, "Withdraw", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Transfer(ctx context.Context, in *TransferRequest, opts ...gogrpc.CallOption) (*usecase.TransactionView, error) {
	out := new(usecase.TransactionView)
	if err := c.invoke(ctx, "Transfer", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, in *HistoryRequest, opts ...gogrpc.CallOption) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.invoke(ctx, "History", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Reconcile(ctx context.Context, in *ReconcileRequest, opts ...gogrpc.CallOption) (*ReconcileResponse, error) {
	out := new(ReconcileResponse)
	if err := c.invoke(ctx, "Reconcile", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
