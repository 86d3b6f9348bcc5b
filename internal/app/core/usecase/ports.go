package usecase

import (
	"context"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// AccountStore 帳戶儲存
type AccountStore interface {
	// GetByNumber 依帳號查詢，不存在時回傳 domain.ErrAccountNotFound
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	// GetByID 依內部 ID 查詢，不存在時回傳 domain.ErrAccountNotFound
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	// ExistsByNumber 帳號是否已存在
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	// Create 新增帳戶並回填 ID；帳號重複時回傳 domain.ErrDuplicateAccountNumber
	Create(ctx context.Context, account *domain.Account) error
	// Update 以 Version 做 compare-and-write 寫回餘額，成功後 account.Version +1；
	// 版本不符時回傳 domain.ErrConcurrentModification
	Update(ctx context.Context, account *domain.Account) error
}

// TransactionLog 交易紀錄 (append-only)
type TransactionLog interface {
	// Append 寫入一筆交易，回填 ID (遞增) 與 CreatedAt (寫入時間)
	Append(ctx context.Context, tran *domain.Transaction) error
	// FindByAccountID 帳戶為來源或目的的所有交易，由新到舊
	FindByAccountID(ctx context.Context, accountID int64) ([]*domain.Transaction, error)
}

// UserDirectory 使用者儲存
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create 新增使用者並回填 ID 與 CreatedAt；Email 重複時回傳 domain.ErrDuplicateEmail
	Create(ctx context.Context, user *domain.User) error
}

// Repositories 同一個 unit of work 內可用的儲存介面
type Repositories interface {
	Accounts() AccountStore
	Transactions() TransactionLog
	Users() UserDirectory
}

// UnitOfWork 原子操作邊界
type UnitOfWork interface {
	// Do 以單一原子單位執行 fn
	//
	// 參數:
	//
	//	ctx: 上下文
	//	lockNumbers: 這次要鎖定的帳號 (已排序)，整個 fn 執行期間持有
	//	fn: 業務邏輯；回傳 error 則全部 rollback，回傳 nil 則全部 commit
	//
	// 回傳:
	//
	//	error: fn 的錯誤或 commit 失敗
	Do(ctx context.Context, lockNumbers []string, fn func(repos Repositories) error) error
	// Reader 回傳唯讀查詢用的儲存介面 (不在 unit of work 內)
	Reader() Repositories
}
