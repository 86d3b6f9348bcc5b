package gormdb_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/gormdb"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/sqlite"
)

func newSQLiteStore(t *testing.T) *gormdb.Store {
	t.Helper()
	client, err := sqlite.NewClient(sqlite.Config{
		Path:     filepath.Join(t.TempDir(), "ledger.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := gormdb.NewStore(client.DB())
	require.NoError(t, store.AutoMigrate(context.Background()))
	return store
}

func seed(t *testing.T, store *gormdb.Store, number string) *domain.Account {
	t.Helper()
	ctx := context.Background()
	user := domain.NewUser("Owner", number+"@example.com")
	acc := domain.NewAccount(number, 0)
	require.NoError(t, store.Do(ctx, nil, func(repos usecase.Repositories) error {
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		acc.UserID = user.ID
		return repos.Accounts().Create(ctx, acc)
	}))
	return acc
}

func TestAccountRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	acc := seed(t, store, "1000000001")
	assert.NotZero(t, acc.ID)
	assert.Equal(t, int64(0), acc.Version)

	got, err := store.Reader().Accounts().GetByNumber(ctx, "1000000001")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.True(t, got.Balance.IsZero())

	exists, err := store.Reader().Accounts().ExistsByNumber(ctx, "1000000001")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Reader().Accounts().GetByNumber(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = store.Reader().Accounts().GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = store.Reader().Users().GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDuplicatesAreTranslated(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	acc := seed(t, store, "1000000001")

	err := store.Do(ctx, nil, func(repos usecase.Repositories) error {
		return repos.Accounts().Create(ctx, domain.NewAccount("1000000001", acc.UserID))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccountNumber)

	err = store.Do(ctx, nil, func(repos usecase.Repositories) error {
		return repos.Users().Create(ctx, domain.NewUser("Other", "1000000001@example.com"))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUpdateCompareAndWrite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	acc := seed(t, store, "1000000001")

	acc.Balance = decimal.RequireFromString("12.34")
	require.NoError(t, store.Do(ctx, []string{acc.Number}, func(repos usecase.Repositories) error {
		return repos.Accounts().Update(ctx, acc)
	}))
	assert.Equal(t, int64(1), acc.Version)

	got, err := store.Reader().Accounts().GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("12.34")))
	assert.Equal(t, int64(1), got.Version)

	stale := got.Clone()
	stale.Version = 0
	err = store.Do(ctx, nil, func(repos usecase.Repositories) error {
		return repos.Accounts().Update(ctx, stale)
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	ghost := domain.NewAccount("0", 1)
	ghost.ID = 999
	err = store.Do(ctx, nil, func(repos usecase.Repositories) error {
		return repos.Accounts().Update(ctx, ghost)
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDoRollsBack(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	acc := seed(t, store, "1000000001")

	boom := errors.New("boom")
	err := store.Do(ctx, []string{acc.Number}, func(repos usecase.Repositories) error {
		a, err := repos.Accounts().GetByNumber(ctx, acc.Number)
		if err != nil {
			return err
		}
		a.Balance = decimal.NewFromInt(50)
		if err := repos.Accounts().Update(ctx, a); err != nil {
			return err
		}
		if err := repos.Transactions().Append(ctx, domain.NewDeposit(a, decimal.NewFromInt(50))); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Reader().Accounts().GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	trans, err := store.Reader().Transactions().FindByAccountID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, trans)
}

func TestReaderIsReadOnly(t *testing.T) {
	store := newSQLiteStore(t)
	err := store.Reader().Users().Create(context.Background(), domain.NewUser("A", "a@example.com"))
	assert.Error(t, err)
}

func TestLedgerOnSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	core := usecase.NewCoreUseCase(store)
	ctx := context.Background()

	user, err := core.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	a1, err := core.CreateAccount(ctx, user.ID)
	require.NoError(t, err)
	a2, err := core.CreateAccount(ctx, user.ID)
	require.NoError(t, err)

	_, err = core.Deposit(ctx, a1.AccountNumber, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	_, err = core.Withdraw(ctx, a1.AccountNumber, decimal.RequireFromString("30.00"))
	require.NoError(t, err)
	_, err = core.Transfer(ctx, a1.AccountNumber, a2.AccountNumber, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	_, err = core.Withdraw(ctx, a1.AccountNumber, decimal.RequireFromString("1000.00"))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	got, err := core.GetAccount(ctx, a1.AccountNumber)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(20)))
	got, err = core.GetAccount(ctx, a2.AccountNumber)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(50)))

	history, err := core.History(ctx, a1.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, domain.TransactionStatusFailed, history[0].Status)
	assert.Equal(t, domain.TransactionTypeWithdraw, history[0].Type)
	assert.Equal(t, domain.TransactionTypeTransfer, history[1].Type)
	assert.Equal(t, a2.AccountNumber, history[1].ToAccountNumber)
	assert.Equal(t, domain.TransactionTypeDeposit, history[3].Type)

	for _, number := range []string{a1.AccountNumber, a2.AccountNumber} {
		_, err := core.Reconcile(ctx, number)
		assert.NoError(t, err)
	}
}

func TestConcurrentWithdrawalsOnSQLite(t *testing.T) {
	store := newSQLiteStore(t)
	core := usecase.NewCoreUseCase(store)
	ctx := context.Background()

	user, err := core.CreateUser(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)
	acc, err := core.CreateAccount(ctx, user.ID)
	require.NoError(t, err)
	_, err = core.Deposit(ctx, acc.AccountNumber, decimal.NewFromInt(100))
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := core.Withdraw(ctx, acc.AccountNumber, decimal.NewFromInt(60)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	balance, err := core.Reconcile(ctx, acc.AccountNumber)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(40)))
}
