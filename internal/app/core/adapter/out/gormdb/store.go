package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// Store 以 GORM 實作的帳本儲存 (MySQL / SQLite)
//
// 一個 unit of work 對應一個資料庫 Transaction，
// 帳戶以 SELECT ... FOR UPDATE 依帳號排序上鎖 (悲觀鎖)，
// 寫回時再以 version 做 compare-and-write
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore 建立 Store
//
// db 需以 TranslateError: true 開啟，唯一鍵衝突才能轉成 domain 錯誤
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// AutoMigrate 建立或更新資料表
func (s *Store) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&sqlUser{}, &sqlAccount{}, &sqlTransaction{}); err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}
	return nil
}

// Do 在單一資料庫 Transaction 內執行 fn，fn 回傳 error 則 rollback
func (s *Store) Do(ctx context.Context, lockNumbers []string, fn func(repos usecase.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		numbers := domain.LockNumbers(lockNumbers...)
		if len(numbers) > 0 {
			// 取得鎖定帳號 悲觀鎖 (依帳號排序，避免死鎖)
			var locked []sqlAccount
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("account_number IN ?", numbers).
				Order("account_number").
				Find(&locked).Error; err != nil {
				return fmt.Errorf("failed to lock accounts: %w", err)
			}
		}
		return fn(&repositories{db: tx, now: s.now})
	})
}

// Reader 回傳不在 Transaction 內的查詢介面
func (s *Store) Reader() usecase.Repositories {
	return &repositories{db: s.db, now: s.now, readOnly: true}
}

type repositories struct {
	db       *gorm.DB
	now      func() time.Time
	readOnly bool
}

var errReadOnly = errors.New("gormdb: write in read-only view")

func (r *repositories) Accounts() usecase.AccountStore       { return accountRepo{r} }
func (r *repositories) Transactions() usecase.TransactionLog { return transactionRepo{r} }
func (r *repositories) Users() usecase.UserDirectory         { return userRepo{r} }

type accountRepo struct{ r *repositories }

func (a accountRepo) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	var row sqlAccount
	err := a.r.db.WithContext(ctx).Where("account_number = ?", number).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.AccountNotFound("accountNumber", number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %s: %w", number, err)
	}
	return row.toDomain(), nil
}

func (a accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	var row sqlAccount
	err := a.r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.AccountNotFound("id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (a accountRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := a.r.db.WithContext(ctx).Model(&sqlAccount{}).Where("account_number = ?", number).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return count > 0, nil
}

func (a accountRepo) Create(ctx context.Context, account *domain.Account) error {
	if a.r.readOnly {
		return errReadOnly
	}
	row := sqlAccount{
		AccountNumber: account.Number,
		Balance:       account.Balance,
		UserID:        account.UserID,
		Version:       0,
		CreatedAt:     a.r.now(),
	}
	err := a.r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, account.Number)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	account.ID = row.ID
	account.Version = row.Version
	account.CreatedAt = row.CreatedAt
	return nil
}

func (a accountRepo) Update(ctx context.Context, account *domain.Account) error {
	if a.r.readOnly {
		return errReadOnly
	}
	res := a.r.db.WithContext(ctx).Model(&sqlAccount{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"balance": account.Balance,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Number, res.Error)
	}
	if res.RowsAffected == 0 {
		// 區分帳戶不存在與版本衝突
		if _, err := a.GetByID(ctx, account.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: account %s version %d", domain.ErrConcurrentModification, account.Number, account.Version)
	}
	account.Version++
	return nil
}

type transactionRepo struct{ r *repositories }

func (t transactionRepo) Append(ctx context.Context, tran *domain.Transaction) error {
	if t.r.readOnly {
		return errReadOnly
	}
	row := sqlTransaction{
		FromAccountID: tran.FromAccountID,
		ToAccountID:   tran.ToAccountID,
		Amount:        tran.Amount,
		Type:          uint8(tran.Type),
		Status:        uint8(tran.Status),
		CreatedAt:     t.r.now(),
	}
	if err := t.r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	tran.ID = row.ID
	tran.CreatedAt = row.CreatedAt
	return nil
}

func (t transactionRepo) FindByAccountID(ctx context.Context, accountID int64) ([]*domain.Transaction, error) {
	var rows []sqlTransaction
	err := t.r.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions of account %d: %w", accountID, err)
	}
	trans := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		trans = append(trans, rows[i].toDomain())
	}
	// 同一微秒內的交易以 ID 排序，資料庫的時間精度不一定足夠
	domain.SortNewestFirst(trans)
	return trans, nil
}

type userRepo struct{ r *repositories }

func (u userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var row sqlUser
	err := u.r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.UserNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (u userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := u.r.db.WithContext(ctx).Model(&sqlUser{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (u userRepo) Create(ctx context.Context, user *domain.User) error {
	if u.r.readOnly {
		return errReadOnly
	}
	row := sqlUser{
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: u.r.now(),
	}
	err := u.r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

var (
	_ usecase.UnitOfWork   = (*Store)(nil)
	_ usecase.Repositories = (*repositories)(nil)
)
