package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountMustBePositive 金額必須為正數
	ErrAmountMustBePositive = errors.New("amount must be positive")

	// ErrInvalidAmount 金額格式不合法 (小數超過兩位)
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrUserNotFound 找不到使用者
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOperation 不合法的操作 (例如轉帳給自己)
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrDuplicateEmail Email 已被註冊
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateAccountNumber 帳號已存在 (寫入時的唯一性檢查)
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// ErrAccountNumberExhausted 產生帳號重試次數用盡
	ErrAccountNumberExhausted = errors.New("account number generation exhausted")

	// ErrConcurrentModification 帳戶版本不符，寫入被拒絕
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrWALWriteFailed WAL 寫入失敗
	ErrWALWriteFailed = errors.New("wal write failed")

	// ErrBalanceMismatch 餘額與交易紀錄重算結果不一致
	ErrBalanceMismatch = errors.New("balance mismatch")
)

// InsufficientBalanceError 餘額不足，附帶帳號、請求金額與可用餘額
type InsufficientBalanceError struct {
	AccountNumber string
	Requested     decimal.Decimal
	Available     decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance in account '%s': requested %s, available %s",
		e.AccountNumber, e.Requested.StringFixed(Scale), e.Available.StringFixed(Scale))
}

// Unwrap 讓 errors.Is(err, ErrInsufficientBalance) 成立
func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// AccountNotFound 回傳帶有查詢欄位的 ErrAccountNotFound
func AccountNotFound(field string, value any) error {
	return fmt.Errorf("%w with %s: '%v'", ErrAccountNotFound, field, value)
}

// UserNotFound 回傳帶有使用者 ID 的 ErrUserNotFound
func UserNotFound(userID int64) error {
	return fmt.Errorf("%w with id: %d", ErrUserNotFound, userID)
}
