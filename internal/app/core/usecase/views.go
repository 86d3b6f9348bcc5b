package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// TransactionView 對外公開的交易資料 (帳戶以帳號表示)
type TransactionView struct {
	ID                int64                    `json:"id"`
	FromAccountNumber string                   `json:"fromAccountNumber,omitempty"`
	ToAccountNumber   string                   `json:"toAccountNumber,omitempty"`
	Amount            decimal.Decimal          `json:"amount"`
	Type              domain.TransactionType   `json:"type"`
	Status            domain.TransactionStatus `json:"status"`
	Timestamp         time.Time                `json:"timestamp"`
}

// AccountView 對外公開的帳戶資料
type AccountView struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	UserID        int64           `json:"userId"`
	UserName      string          `json:"userName"`
}

// UserView 對外公開的使用者資料
type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newTransactionView(tran *domain.Transaction, fromNumber, toNumber string) *TransactionView {
	return &TransactionView{
		ID:                tran.ID,
		FromAccountNumber: fromNumber,
		ToAccountNumber:   toNumber,
		Amount:            tran.Amount,
		Type:              tran.Type,
		Status:            tran.Status,
		Timestamp:         tran.CreatedAt,
	}
}

func newAccountView(account *domain.Account, user *domain.User) *AccountView {
	return &AccountView{
		ID:            account.ID,
		AccountNumber: account.Number,
		Balance:       account.Balance,
		UserID:        user.ID,
		UserName:      user.Name,
	}
}

func newUserView(user *domain.User) *UserView {
	return &UserView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
