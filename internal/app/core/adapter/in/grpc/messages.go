package grpc

import (
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// 請求與回應以 JSON 編碼；金額一律以字串傳遞，避免浮點誤差

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateAccountRequest struct {
	UserID int64 `json:"userId"`
}

type GetAccountRequest struct {
	AccountNumber string `json:"accountNumber"`
}

type DepositRequest struct {
	AccountNumber string `json:"accountNumber"`
	Amount        string `json:"amount"`
}

type WithdrawRequest struct {
	AccountNumber string `json:"accountNumber"`
	Amount        string `json:"amount"`
}

type TransferRequest struct {
	FromAccountNumber string `json:"fromAccountNumber"`
	ToAccountNumber   string `json:"toAccountNumber"`
	Amount            string `json:"amount"`
}

type HistoryRequest struct {
	AccountID int64 `json:"accountId"`
}

type HistoryResponse struct {
	Transactions []*usecase.TransactionView `json:"transactions"`
}

type ReconcileRequest struct {
	AccountNumber string `json:"accountNumber"`
}

type ReconcileResponse struct {
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
}
