package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// History 查詢帳戶的所有交易 (含 FAILED)，由新到舊
func (c *CoreUseCase) History(ctx context.Context, accountID int64) ([]*TransactionView, error) {
	reader := c.uow.Reader()
	account, err := reader.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	trans, err := reader.Transactions().FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of account %s: %w", account.Number, err)
	}

	// 交易只保存帳戶 ID，對外轉成帳號
	numbers := map[int64]string{account.ID: account.Number}
	resolve := func(id *int64) (string, error) {
		if id == nil {
			return "", nil
		}
		if n, ok := numbers[*id]; ok {
			return n, nil
		}
		other, err := reader.Accounts().GetByID(ctx, *id)
		if err != nil {
			return "", err
		}
		numbers[*id] = other.Number
		return other.Number, nil
	}

	views := make([]*TransactionView, 0, len(trans))
	for _, tran := range trans {
		from, err := resolve(tran.FromAccountID)
		if err != nil {
			return nil, err
		}
		to, err := resolve(tran.ToAccountID)
		if err != nil {
			return nil, err
		}
		views = append(views, newTransactionView(tran, from, to))
	}
	return views, nil
}

// Reconcile 以成功交易重算餘額並與帳戶餘額比對
//
// 在鎖住帳戶的 unit 內讀取，確保餘額與交易紀錄是同一個時間點
func (c *CoreUseCase) Reconcile(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := c.uow.Do(ctx, domain.LockNumbers(accountNumber), func(repos Repositories) error {
		account, err := repos.Accounts().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		trans, err := repos.Transactions().FindByAccountID(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("failed to load history of account %s: %w", account.Number, err)
		}

		calculated := decimal.Zero
		for _, tran := range trans {
			calculated = calculated.Add(tran.EffectOn(account.ID))
		}

		if !calculated.Equal(account.Balance) {
			zap.L().Error("Balance reconciliation failed",
				zap.String("account_number", account.Number),
				zap.String("current_balance", account.Balance.String()),
				zap.String("calculated_balance", calculated.String()),
				zap.String("difference", account.Balance.Sub(calculated).String()))
			return fmt.Errorf("%w: account %s current=%s, calculated=%s",
				domain.ErrBalanceMismatch, account.Number, account.Balance.String(), calculated.String())
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
