package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

var errReadOnly = errors.New("memory: write in read-only view")

// unit 一次 unit of work 的暫存區；readOnly 的 unit 直接讀取已 commit 的資料
type unit struct {
	store    *Store
	readOnly bool

	// 本 unit 內已讀取或修改過的帳戶 (複本)
	accounts map[int64]*domain.Account
	// 第一次 Update 時的 commit 版本，commit 時再次比對
	baseVersions map[int64]int64

	newAccounts     []*domain.Account
	newUsers        []*domain.User
	newTransactions []*domain.Transaction

	// 呼叫端傳入的交易 (與 newTransactions 同索引)，commit 後回填 ID 與時間
	appended []*domain.Transaction
}

func newUnit(s *Store, readOnly bool) *unit {
	return &unit{
		store:        s,
		readOnly:     readOnly,
		accounts:     make(map[int64]*domain.Account),
		baseVersions: make(map[int64]int64),
	}
}

func (u *unit) Accounts() usecase.AccountStore       { return accountRepo{u} }
func (u *unit) Transactions() usecase.TransactionLog { return transactionRepo{u} }
func (u *unit) Users() usecase.UserDirectory         { return userRepo{u} }

func (u *unit) empty() bool {
	return len(u.baseVersions) == 0 && len(u.newAccounts) == 0 &&
		len(u.newUsers) == 0 && len(u.newTransactions) == 0
}

// record 轉成 WAL 紀錄 (帳戶為最終狀態)
func (u *unit) record() *walRecord {
	rec := &walRecord{
		Users:        u.newUsers,
		Transactions: u.newTransactions,
	}
	for id := range u.baseVersions {
		rec.Accounts = append(rec.Accounts, u.accounts[id])
	}
	rec.Accounts = append(rec.Accounts, u.newAccounts...)
	return rec
}

type accountRepo struct{ u *unit }

func (r accountRepo) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	for _, acc := range r.u.newAccounts {
		if acc.Number == number {
			return acc.Clone(), nil
		}
	}
	for _, acc := range r.u.accounts {
		if acc.Number == number {
			return acc.Clone(), nil
		}
	}
	acc, ok := r.u.store.accountByNumber(number)
	if !ok {
		return nil, domain.AccountNotFound("accountNumber", number)
	}
	if !r.u.readOnly {
		r.u.accounts[acc.ID] = acc.Clone()
	}
	return acc, nil
}

func (r accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	if acc, ok := r.u.accounts[id]; ok {
		return acc.Clone(), nil
	}
	for _, acc := range r.u.newAccounts {
		if acc.ID == id {
			return acc.Clone(), nil
		}
	}
	acc, ok := r.u.store.accountByID(id)
	if !ok {
		return nil, domain.AccountNotFound("id", id)
	}
	if !r.u.readOnly {
		r.u.accounts[acc.ID] = acc.Clone()
	}
	return acc, nil
}

func (r accountRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	for _, acc := range r.u.newAccounts {
		if acc.Number == number {
			return true, nil
		}
	}
	_, ok := r.u.store.accountByNumber(number)
	return ok, nil
}

func (r accountRepo) Create(ctx context.Context, account *domain.Account) error {
	if r.u.readOnly {
		return errReadOnly
	}
	exists, _ := r.ExistsByNumber(ctx, account.Number)
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, account.Number)
	}
	account.ID, account.CreatedAt = r.u.store.nextAccount()
	account.Version = 0
	r.u.newAccounts = append(r.u.newAccounts, account.Clone())
	return nil
}

func (r accountRepo) Update(ctx context.Context, account *domain.Account) error {
	if r.u.readOnly {
		return errReadOnly
	}

	// 本 unit 新建的帳戶直接改暫存，不需比對 commit 版本
	for i, acc := range r.u.newAccounts {
		if acc.ID != account.ID {
			continue
		}
		if acc.Version != account.Version {
			return fmt.Errorf("%w: account %s version %d, expected %d",
				domain.ErrConcurrentModification, account.Number, account.Version, acc.Version)
		}
		account.Version++
		r.u.newAccounts[i] = account.Clone()
		return nil
	}

	staged, ok := r.u.accounts[account.ID]
	if !ok {
		// 未在本 unit 讀取過，直接以 commit 的版本為準
		committed, found := r.u.store.accountByID(account.ID)
		if !found {
			return domain.AccountNotFound("id", account.ID)
		}
		staged = committed
	}
	if staged.Version != account.Version {
		return fmt.Errorf("%w: account %s version %d, expected %d",
			domain.ErrConcurrentModification, account.Number, account.Version, staged.Version)
	}
	if _, ok := r.u.baseVersions[account.ID]; !ok {
		r.u.baseVersions[account.ID] = staged.Version
	}

	account.Version++
	r.u.accounts[account.ID] = account.Clone()
	return nil
}

type transactionRepo struct{ u *unit }

func (r transactionRepo) Append(ctx context.Context, tran *domain.Transaction) error {
	if r.u.readOnly {
		return errReadOnly
	}
	// ID 與時間在 commit 時分配，順序與 commit 順序一致
	r.u.newTransactions = append(r.u.newTransactions, tran.Clone())
	r.u.appended = append(r.u.appended, tran)
	return nil
}

func (r transactionRepo) FindByAccountID(ctx context.Context, accountID int64) ([]*domain.Transaction, error) {
	trans := r.u.store.transactionsOf(accountID)
	domain.SortNewestFirst(trans)

	// 尚未 commit 的交易一定比已 commit 的新，放在最前面 (後寫的在前)
	var staged []*domain.Transaction
	for i := len(r.u.newTransactions) - 1; i >= 0; i-- {
		if tran := r.u.newTransactions[i]; tran.Involves(accountID) {
			staged = append(staged, tran.Clone())
		}
	}
	return append(staged, trans...), nil
}

type userRepo struct{ u *unit }

func (r userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, user := range r.u.newUsers {
		if user.ID == id {
			c := *user
			return &c, nil
		}
	}
	user, ok := r.u.store.userByID(id)
	if !ok {
		return nil, domain.UserNotFound(id)
	}
	return user, nil
}

func (r userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, user := range r.u.newUsers {
		if user.Email == email {
			return true, nil
		}
	}
	return r.u.store.emailTaken(email), nil
}

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	if r.u.readOnly {
		return errReadOnly
	}
	exists, _ := r.ExistsByEmail(ctx, user.Email)
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, user.Email)
	}
	user.ID, user.CreatedAt = r.u.store.nextUser()
	c := *user
	r.u.newUsers = append(r.u.newUsers, &c)
	return nil
}

var _ usecase.Repositories = (*unit)(nil)
