package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCore(t *testing.T, opts ...usecase.Option) (*usecase.CoreUseCase, *memory.Store) {
	t.Helper()
	store, err := memory.NewStore(nil)
	require.NoError(t, err)
	return usecase.NewCoreUseCase(store, opts...), store
}

// sequentialNumbers 依序產生帳號，方便測試斷言
func sequentialNumbers() usecase.NumberGenerator {
	n := 0
	var mu sync.Mutex
	return usecase.NumberGeneratorFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%010d", n), nil
	})
}

func openAccounts(t *testing.T, core *usecase.CoreUseCase, count int) (*usecase.UserView, []*usecase.AccountView) {
	t.Helper()
	ctx := context.Background()
	user, err := core.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	accounts := make([]*usecase.AccountView, 0, count)
	for i := 0; i < count; i++ {
		acc, err := core.CreateAccount(ctx, user.ID)
		require.NoError(t, err)
		accounts = append(accounts, acc)
	}
	return user, accounts
}

func balanceOf(t *testing.T, core *usecase.CoreUseCase, number string) decimal.Decimal {
	t.Helper()
	acc, err := core.GetAccount(context.Background(), number)
	require.NoError(t, err)
	return acc.Balance
}

func TestLedgerScenario(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 2)
	a1, a2 := accounts[0], accounts[1]

	assert.True(t, a1.Balance.IsZero())
	assert.True(t, a2.Balance.IsZero())

	dep, err := core.Deposit(ctx, a1.AccountNumber, amount("100.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, dep.Type)
	assert.Equal(t, domain.TransactionStatusSuccess, dep.Status)
	assert.Equal(t, a1.AccountNumber, dep.ToAccountNumber)
	assert.Empty(t, dep.FromAccountNumber)
	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("100")))

	_, err = core.Withdraw(ctx, a1.AccountNumber, amount("30.00"))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("70")))

	tr, err := core.Transfer(ctx, a1.AccountNumber, a2.AccountNumber, amount("50.00"))
	require.NoError(t, err)
	assert.Equal(t, a1.AccountNumber, tr.FromAccountNumber)
	assert.Equal(t, a2.AccountNumber, tr.ToAccountNumber)
	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("20")))
	assert.True(t, balanceOf(t, core, a2.AccountNumber).Equal(amount("50")))

	_, err = core.Withdraw(ctx, a1.AccountNumber, amount("1000.00"))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, a1.AccountNumber, insufficient.AccountNumber)
	assert.True(t, insufficient.Available.Equal(amount("20")))
	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("20")))

	history, err := core.History(ctx, a1.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)

	assert.Equal(t, domain.TransactionTypeWithdraw, history[0].Type)
	assert.Equal(t, domain.TransactionStatusFailed, history[0].Status)
	assert.True(t, history[0].Amount.Equal(amount("1000")))
	assert.Equal(t, domain.TransactionTypeTransfer, history[1].Type)
	assert.Equal(t, domain.TransactionTypeWithdraw, history[2].Type)
	assert.Equal(t, domain.TransactionTypeDeposit, history[3].Type)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.After(history[i-1].Timestamp))
		assert.Greater(t, history[i-1].ID, history[i].ID)
	}

	// 餘額可由成功交易重算
	for _, acc := range accounts {
		balance, err := core.Reconcile(ctx, acc.AccountNumber)
		require.NoError(t, err)
		assert.True(t, balance.Equal(balanceOf(t, core, acc.AccountNumber)))
	}
}

func TestDepositValidation(t *testing.T) {
	core, store := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 1)
	number := accounts[0].AccountNumber

	tests := []struct {
		name   string
		amount decimal.Decimal
		want   error
	}{
		{"zero", decimal.Zero, domain.ErrAmountMustBePositive},
		{"negative", amount("-5"), domain.ErrAmountMustBePositive},
		{"three decimals", amount("1.005"), domain.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.Deposit(ctx, number, tt.amount)
			assert.ErrorIs(t, err, tt.want)
			_, err = core.Withdraw(ctx, number, tt.amount)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	trans, err := store.Reader().Transactions().FindByAccountID(ctx, accounts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, trans)
}

func TestOperationsOnMissingAccountWriteNothing(t *testing.T) {
	core, store := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 1)
	a1 := accounts[0]
	_, err := core.Deposit(ctx, a1.AccountNumber, amount("10"))
	require.NoError(t, err)

	_, err = core.Deposit(ctx, "9999999999", amount("10"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = core.Withdraw(ctx, "9999999999", amount("10"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = core.Transfer(ctx, "9999999999", a1.AccountNumber, amount("1"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = core.Transfer(ctx, a1.AccountNumber, "9999999999", amount("1"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	trans, err := store.Reader().Transactions().FindByAccountID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Len(t, trans, 1)
	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("10")))
}

func TestTransferToSameAccount(t *testing.T) {
	core, store := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 1)
	a1 := accounts[0]

	_, err := core.Transfer(ctx, a1.AccountNumber, a1.AccountNumber, amount("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	// 檢查先於帳戶查詢，不存在的帳號也是 InvalidOperation
	_, err = core.Transfer(ctx, "missing", "missing", amount("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	trans, err := store.Reader().Transactions().FindByAccountID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Empty(t, trans)
}

func TestTransferInsufficientBalanceRecordsFailure(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 2)
	a1, a2 := accounts[0], accounts[1]

	_, err := core.Deposit(ctx, a1.AccountNumber, amount("5"))
	require.NoError(t, err)

	_, err = core.Transfer(ctx, a1.AccountNumber, a2.AccountNumber, amount("5.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "requested 5.01, available 5.00")

	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("5")))
	assert.True(t, balanceOf(t, core, a2.AccountNumber).IsZero())

	// 失敗的轉帳同時出現在兩邊的歷史中
	for _, acc := range accounts {
		history, err := core.History(ctx, acc.ID)
		require.NoError(t, err)
		require.NotEmpty(t, history)
		assert.Equal(t, domain.TransactionTypeTransfer, history[0].Type)
		assert.Equal(t, domain.TransactionStatusFailed, history[0].Status)
		assert.Equal(t, a1.AccountNumber, history[0].FromAccountNumber)
		assert.Equal(t, a2.AccountNumber, history[0].ToAccountNumber)
	}

	// 剛好等於餘額可以轉出
	_, err = core.Transfer(ctx, a1.AccountNumber, a2.AccountNumber, amount("5"))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, core, a1.AccountNumber).IsZero())
}

func TestConcurrentWithdrawalsOnlyOneSucceeds(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 1)
	a1 := accounts[0]
	_, err := core.Deposit(ctx, a1.AccountNumber, amount("100"))
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := core.Withdraw(ctx, a1.AccountNumber, amount("60"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.True(t, balanceOf(t, core, a1.AccountNumber).Equal(amount("40")))

	history, err := core.History(ctx, a1.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1+workers)
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 3)
	for _, acc := range accounts {
		_, err := core.Deposit(ctx, acc.AccountNumber, amount("100"))
		require.NoError(t, err)
	}

	// 反向轉帳同時進行，固定的上鎖順序避免死鎖
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		from := accounts[i%3]
		to := accounts[(i+1)%3]
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = core.Transfer(ctx, from.AccountNumber, to.AccountNumber, amount("7.25"))
		}()
		go func() {
			defer wg.Done()
			_, _ = core.Transfer(ctx, to.AccountNumber, from.AccountNumber, amount("3.10"))
		}()
	}
	wg.Wait()

	total := decimal.Zero
	for _, acc := range accounts {
		balance, err := core.Reconcile(ctx, acc.AccountNumber)
		require.NoError(t, err)
		assert.False(t, balance.IsNegative())
		total = total.Add(balance)
	}
	assert.True(t, total.Equal(amount("300")))
}

func TestConcurrentReadersSeeNoIntermediateState(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 3)
	for _, acc := range accounts {
		_, err := core.Deposit(ctx, acc.AccountNumber, amount("100"))
		require.NoError(t, err)
	}

	var writers sync.WaitGroup
	for i := 0; i < 60; i++ {
		from := accounts[i%3]
		to := accounts[(i+1)%3]
		writers.Add(1)
		go func() {
			defer writers.Done()
			_, _ = core.Transfer(ctx, from.AccountNumber, to.AccountNumber, amount("9.99"))
		}()
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	for _, acc := range accounts {
		acc := acc
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				// Reconcile 在帳戶鎖內比對餘額與交易紀錄
				balance, err := core.Reconcile(ctx, acc.AccountNumber)
				if err != nil {
					t.Errorf("reconcile %s: %v", acc.AccountNumber, err)
					return
				}
				if balance.IsNegative() {
					t.Errorf("negative balance %s on %s", balance, acc.AccountNumber)
					return
				}

				// 由舊到新重播歷史，任一時間點餘額都不為負
				history, err := core.History(ctx, acc.ID)
				if err != nil {
					t.Errorf("history %s: %v", acc.AccountNumber, err)
					return
				}
				running := decimal.Zero
				for i := len(history) - 1; i >= 0; i-- {
					h := history[i]
					if h.Type == domain.TransactionTypeTransfer && (h.FromAccountNumber == "" || h.ToAccountNumber == "") {
						t.Errorf("transfer %d missing a side", h.ID)
						return
					}
					if h.Status != domain.TransactionStatusSuccess {
						continue
					}
					if h.ToAccountNumber == acc.AccountNumber {
						running = running.Add(h.Amount)
					}
					if h.FromAccountNumber == acc.AccountNumber {
						running = running.Sub(h.Amount)
					}
					if running.IsNegative() {
						t.Errorf("history of %s goes negative at transaction %d", acc.AccountNumber, h.ID)
						return
					}
				}

				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	writers.Wait()
	close(done)
	readers.Wait()

	total := decimal.Zero
	for _, acc := range accounts {
		balance, err := core.Reconcile(ctx, acc.AccountNumber)
		require.NoError(t, err)
		total = total.Add(balance)
	}
	assert.True(t, total.Equal(amount("300")))
}

func TestReconcileDetectsMismatch(t *testing.T) {
	core, store := newCore(t)
	ctx := context.Background()
	_, accounts := openAccounts(t, core, 1)
	a1 := accounts[0]
	_, err := core.Deposit(ctx, a1.AccountNumber, amount("10"))
	require.NoError(t, err)

	// 繞過 usecase 直接改餘額
	err = store.Do(ctx, []string{a1.AccountNumber}, func(repos usecase.Repositories) error {
		acc, err := repos.Accounts().GetByNumber(ctx, a1.AccountNumber)
		if err != nil {
			return err
		}
		acc.Balance = amount("11")
		return repos.Accounts().Update(ctx, acc)
	})
	require.NoError(t, err)

	_, err = core.Reconcile(ctx, a1.AccountNumber)
	assert.ErrorIs(t, err, domain.ErrBalanceMismatch)

	_, err = core.Reconcile(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
