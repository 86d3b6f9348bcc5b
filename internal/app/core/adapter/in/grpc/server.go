package grpc

import (
	"context"
	"fmt"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// GrpcServer 將 gRPC 請求轉給 CoreUseCase (Driving Adapter)
type GrpcServer struct {
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

func (s *GrpcServer) CreateUser(ctx context.Context, req *CreateUserRequest) (*usecase.UserView, error) {
	user, err := s.core.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		return nil, toStatus("CreateUser", err)
	}
	return user, nil
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*usecase.AccountView, error) {
	account, err := s.core.CreateAccount(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("CreateAccount", err)
	}
	return account, nil
}

func (s *GrpcServer) GetAccount(ctx context.Context, req *GetAccountRequest) (*usecase.AccountView, error) {
	account, err := s.core.GetAccount(ctx, req.AccountNumber)
	if err != nil {
		return nil, toStatus("GetAccount", err)
	}
	return account, nil
}

func (s *GrpcServer) Deposit(ctx context.Context, req *DepositRequest) (*usecase.TransactionView, error) {
	// 1. 金額解析 (字串 → decimal，最多兩位小數)
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus("Deposit", err)
	}

	// 2. 執行交易
	tran, err := s.core.Deposit(ctx, req.AccountNumber, amount)
	if err != nil {
		return nil, toStatus("Deposit", err)
	}
	return tran, nil
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *WithdrawRequest) (*usecase.TransactionView, error) {
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus("Withdraw", err)
	}
	tran, err := s.core.Withdraw(ctx, req.AccountNumber, amount)
	if err != nil {
		return nil, toStatus("Withdraw", err)
	}
	return tran, nil
}

func (s *GrpcServer) Transfer(ctx context.Context, req *TransferRequest) (*usecase.TransactionView, error) {
	// 同帳號轉帳優先於金額檢查
	if req.FromAccountNumber == req.ToAccountNumber {
		return nil, toStatus("Transfer", fmt.Errorf("%w: cannot transfer to the same account", domain.ErrInvalidOperation))
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return nil, toStatus("Transfer", err)
	}
	tran, err := s.core.Transfer(ctx, req.FromAccountNumber, req.ToAccountNumber, amount)
	if err != nil {
		return nil, toStatus("Transfer", err)
	}
	return tran, nil
}

func (s *GrpcServer) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	trans, err := s.core.History(ctx, req.AccountID)
	if err != nil {
		return nil, toStatus("History", err)
	}
	return &HistoryResponse{Transactions: trans}, nil
}

func (s *GrpcServer) Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResponse, error) {
	balance, err := s.core.Reconcile(ctx, req.AccountNumber)
	if err != nil {
		return nil, toStatus("Reconcile", err)
	}
	return &ReconcileResponse{
		AccountNumber: req.AccountNumber,
		Balance:       balance,
	}, nil
}

var _ LedgerServer = (*GrpcServer)(nil)
