package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 銀行帳戶
//
// 結構:
//
//	ID: 儲存層分配的內部 ID
//	Number: 對外帳號 (固定長度數字字串，建立後不可變)
//	Balance: 餘額，任何時刻皆不為負
//	UserID: 擁有者 (只保存 ID，不持有 User)
//	Version: 樂觀鎖版本，每次 Update 成功後 +1
type Account struct {
	ID        int64
	Number    string
	Balance   decimal.Decimal
	UserID    int64
	Version   int64
	CreatedAt time.Time
}

// NewAccount 建立餘額為 0 的新帳戶
func NewAccount(number string, userID int64) *Account {
	return &Account{
		Number:  number,
		Balance: decimal.Zero,
		UserID:  userID,
	}
}

// Deposit 存款
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// Withdraw 提款
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountMustBePositive
	}

	if !a.CanDebit(amount) {
		return &InsufficientBalanceError{
			AccountNumber: a.Number,
			Requested:     amount,
			Available:     a.Balance,
		}
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// CanDebit 餘額是否足夠扣款
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Clone 複製一份帳戶，避免呼叫端修改到儲存層內的物件
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
