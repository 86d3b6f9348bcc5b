package gormdb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// sqlUser 對應資料庫的 users 表
type sqlUser struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null;precision:6"`
}

func (*sqlUser) TableName() string {
	return "users"
}

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	AccountNumber string          `gorm:"column:account_number;size:32;not null;uniqueIndex"`
	Balance       decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	UserID        int64           `gorm:"not null;index"`
	Version       int64           `gorm:"not null;default:0"` // 樂觀鎖版本
	CreatedAt     time.Time       `gorm:"not null;precision:6"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表 (只新增不修改)
type sqlTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	FromAccountID *int64          `gorm:"index"`
	ToAccountID   *int64          `gorm:"index"`
	Amount        decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Type          uint8           `gorm:"not null"`
	Status        uint8           `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"not null;precision:6;index"`
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

func (u *sqlUser) toDomain() *domain.User {
	return &domain.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (a *sqlAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:        a.ID,
		Number:    a.AccountNumber,
		Balance:   a.Balance,
		UserID:    a.UserID,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
	}
}

func (t *sqlTransaction) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount,
		Type:          domain.TransactionType(t.Type),
		Status:        domain.TransactionStatus(t.Status),
		CreatedAt:     t.CreatedAt,
	}
}
