package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

// querier 同時涵蓋 *pgxpool.Pool 與 pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store 以 pgx 實作的帳本儲存
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Do 在單一資料庫 Transaction 內執行 fn
//
// 帳戶列依帳號排序以 FOR UPDATE 鎖定，直到 commit 或 rollback 才釋放
func (s *Store) Do(ctx context.Context, lockNumbers []string, fn func(repos usecase.Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if numbers := domain.LockNumbers(lockNumbers...); len(numbers) > 0 {
		_, err := tx.Exec(ctx, `
			SELECT id FROM accounts
			WHERE account_number = ANY($1)
			ORDER BY account_number
			FOR UPDATE
		`, numbers)
		if err != nil {
			return fmt.Errorf("failed to lock accounts: %w", err)
		}
	}

	if err := fn(&repositories{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reader 直接使用連線池查詢
func (s *Store) Reader() usecase.Repositories {
	return &repositories{q: s.pool, readOnly: true}
}

var errReadOnly = errors.New("postgres: write in read-only view")

type repositories struct {
	q        querier
	readOnly bool
}

func (r *repositories) Accounts() usecase.AccountStore       { return accountRepo{r} }
func (r *repositories) Transactions() usecase.TransactionLog { return transactionRepo{r} }
func (r *repositories) Users() usecase.UserDirectory         { return userRepo{r} }

const accountColumns = `id, account_number, balance::text, user_id, version, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		acc     domain.Account
		balance string
	)
	if err := row.Scan(&acc.ID, &acc.Number, &balance, &acc.UserID, &acc.Version, &acc.CreatedAt); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	acc.Balance = b
	return &acc, nil
}

type accountRepo struct{ r *repositories }

func (a accountRepo) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	acc, err := scanAccount(a.r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.AccountNotFound("accountNumber", number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %s: %w", number, err)
	}
	return acc, nil
}

func (a accountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	acc, err := scanAccount(a.r.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.AccountNotFound("id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %d: %w", id, err)
	}
	return acc, nil
}

func (a accountRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := a.r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return exists, nil
}

// Create 以 ON CONFLICT DO NOTHING 寫入，帳號重複時 Transaction 不會進入 aborted 狀態
func (a accountRepo) Create(ctx context.Context, account *domain.Account) error {
	if a.r.readOnly {
		return errReadOnly
	}
	err := a.r.q.QueryRow(ctx, `
		INSERT INTO accounts (account_number, balance, user_id, version)
		VALUES ($1, $2::numeric, $3, 0)
		ON CONFLICT (account_number) DO NOTHING
		RETURNING id, created_at
	`, account.Number, account.Balance.String(), account.UserID).Scan(&account.ID, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountNumber, account.Number)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	account.Version = 0
	return nil
}

func (a accountRepo) Update(ctx context.Context, account *domain.Account) error {
	if a.r.readOnly {
		return errReadOnly
	}
	tag, err := a.r.q.Exec(ctx, `
		UPDATE accounts
		SET balance = $1::numeric, version = version + 1
		WHERE id = $2 AND version = $3
	`, account.Balance.String(), account.ID, account.Version)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Number, err)
	}
	if tag.RowsAffected() == 0 {
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
	err := t.r.q.QueryRow(ctx, `
		INSERT INTO transactions (from_account_id, to_account_id, amount, type, status)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING id, created_at
	`, tran.FromAccountID, tran.ToAccountID, tran.Amount.String(), int16(tran.Type), int16(tran.Status)).
		Scan(&tran.ID, &tran.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (t transactionRepo) FindByAccountID(ctx context.Context, accountID int64) ([]*domain.Transaction, error) {
	rows, err := t.r.q.Query(ctx, `
		SELECT id, from_account_id, to_account_id, amount::text, type, status, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC, id DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions of account %d: %w", accountID, err)
	}
	defer rows.Close()

	var trans []*domain.Transaction
	for rows.Next() {
		var (
			tran        domain.Transaction
			amount      string
			typ, status int16
		)
		if err := rows.Scan(&tran.ID, &tran.FromAccountID, &tran.ToAccountID, &amount, &typ, &status, &tran.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tran.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		tran.Type = domain.TransactionType(typ)
		tran.Status = domain.TransactionStatus(status)
		trans = append(trans, &tran)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return trans, nil
}

type userRepo struct{ r *repositories }

func (u userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := u.r.q.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.UserNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return &user, nil
}

func (u userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := u.r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (u userRepo) Create(ctx context.Context, user *domain.User) error {
	if u.r.readOnly {
		return errReadOnly
	}
	err := u.r.q.QueryRow(ctx, `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at
	`, user.Name, user.Email).Scan(&user.ID, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var (
	_ usecase.UnitOfWork   = (*Store)(nil)
	_ usecase.Repositories = (*repositories)(nil)
)
