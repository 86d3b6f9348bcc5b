package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 交易類型
type TransactionType uint8

const (
	// 存款
	TransactionTypeDeposit TransactionType = 1
	// 提款
	TransactionTypeWithdraw TransactionType = 2
	// 轉帳
	TransactionTypeTransfer TransactionType = 3
)

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "DEPOSIT"
	case TransactionTypeWithdraw:
		return "WITHDRAW"
	case TransactionTypeTransfer:
		return "TRANSFER"
	default:
		return fmt.Sprintf("TransactionType(%d)", uint8(t))
	}
}

// ParseTransactionType 由字串還原交易類型 (儲存層使用)
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case "DEPOSIT":
		return TransactionTypeDeposit, nil
	case "WITHDRAW":
		return TransactionTypeWithdraw, nil
	case "TRANSFER":
		return TransactionTypeTransfer, nil
	}
	return 0, fmt.Errorf("unknown transaction type %q", s)
}

func (t TransactionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	v, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TransactionStatus 交易結果
type TransactionStatus uint8

const (
	TransactionStatusSuccess TransactionStatus = 1
	TransactionStatusFailed  TransactionStatus = 2
)

func (s TransactionStatus) String() string {
	switch s {
	case TransactionStatusSuccess:
		return "SUCCESS"
	case TransactionStatusFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("TransactionStatus(%d)", uint8(s))
	}
}

// ParseTransactionStatus 由字串還原交易結果
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch s {
	case "SUCCESS":
		return TransactionStatusSuccess, nil
	case "FAILED":
		return TransactionStatusFailed, nil
	}
	return 0, fmt.Errorf("unknown transaction status %q", s)
}

func (s TransactionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TransactionStatus) UnmarshalText(b []byte) error {
	v, err := ParseTransactionStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Transaction 交易紀錄，寫入後不可修改
//
// 欄位依類型填寫:
//
//	DEPOSIT:  From = nil,  To = 入帳帳戶
//	WITHDRAW: From = 扣款帳戶, To = nil
//	TRANSFER: From = 扣款帳戶, To = 入帳帳戶
//
// ID 與 CreatedAt 由 TransactionLog.Append 分配
type Transaction struct {
	ID            int64
	FromAccountID *int64
	ToAccountID   *int64
	Amount        decimal.Decimal
	Type          TransactionType
	Status        TransactionStatus
	CreatedAt     time.Time
}

// NewDeposit 存款紀錄
func NewDeposit(to *Account, amount decimal.Decimal) *Transaction {
	return &Transaction{
		ToAccountID: idPtr(to.ID),
		Amount:      amount,
		Type:        TransactionTypeDeposit,
		Status:      TransactionStatusSuccess,
	}
}

// NewWithdrawal 提款紀錄
func NewWithdrawal(from *Account, amount decimal.Decimal, status TransactionStatus) *Transaction {
	return &Transaction{
		FromAccountID: idPtr(from.ID),
		Amount:        amount,
		Type:          TransactionTypeWithdraw,
		Status:        status,
	}
}

// NewTransfer 轉帳紀錄
func NewTransfer(from, to *Account, amount decimal.Decimal, status TransactionStatus) *Transaction {
	return &Transaction{
		FromAccountID: idPtr(from.ID),
		ToAccountID:   idPtr(to.ID),
		Amount:        amount,
		Type:          TransactionTypeTransfer,
		Status:        status,
	}
}

// Involves 交易是否牽涉指定帳戶
func (t *Transaction) Involves(accountID int64) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// EffectOn 成功交易對指定帳戶餘額的影響 (入帳為正，扣款為負)；失敗交易為 0
func (t *Transaction) EffectOn(accountID int64) decimal.Decimal {
	if t.Status != TransactionStatusSuccess {
		return decimal.Zero
	}
	effect := decimal.Zero
	if t.ToAccountID != nil && *t.ToAccountID == accountID {
		effect = effect.Add(t.Amount)
	}
	if t.FromAccountID != nil && *t.FromAccountID == accountID {
		effect = effect.Sub(t.Amount)
	}
	return effect
}

// Clone 深拷貝 (含帳戶 ID 指標)
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.FromAccountID != nil {
		c.FromAccountID = idPtr(*t.FromAccountID)
	}
	if t.ToAccountID != nil {
		c.ToAccountID = idPtr(*t.ToAccountID)
	}
	return &c
}

// LockNumbers 回傳需要鎖定的帳號，去重並依字典序排序以避免死鎖
func LockNumbers(numbers ...string) []string {
	out := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SortNewestFirst 依時間由新到舊排序，時間相同時 ID 大者在前
func SortNewestFirst(trans []*Transaction) {
	sort.SliceStable(trans, func(i, j int) bool {
		if !trans[i].CreatedAt.Equal(trans[j].CreatedAt) {
			return trans[i].CreatedAt.After(trans[j].CreatedAt)
		}
		return trans[i].ID > trans[j].ID
	})
}

func idPtr(id int64) *int64 {
	return &id
}
