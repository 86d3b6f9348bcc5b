package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// Deposit 存款
//
// 參數:
//
//	ctx: 上下文
//	accountNumber: 入帳帳號
//	amount: 金額 (> 0，最多兩位小數)
//
// 回傳:
//
//	*TransactionView: 成功的交易紀錄
//	error: domain.ErrAccountNotFound 或儲存層錯誤
func (c *CoreUseCase) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (*TransactionView, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var tran *domain.Transaction
	err := c.uow.Do(ctx, domain.LockNumbers(accountNumber), func(repos Repositories) error {
		account, err := repos.Accounts().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if err := account.Deposit(amount); err != nil {
			return err
		}
		if err := repos.Accounts().Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account %s: %w", account.Number, err)
		}

		tran = domain.NewDeposit(account, amount)
		if err := repos.Transactions().Append(ctx, tran); err != nil {
			return fmt.Errorf("failed to append deposit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// ID 與時間在 commit 後才確定
	view := newTransactionView(tran, "", accountNumber)

	zap.L().Info("Deposit processed",
		zap.Int64("transaction_id", view.ID),
		zap.String("account_number", accountNumber),
		zap.String("amount", amount.String()))
	return view, nil
}

// Withdraw 提款
//
// 餘額不足時仍會寫入一筆 FAILED 交易並 commit，再回傳 *domain.InsufficientBalanceError
func (c *CoreUseCase) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (*TransactionView, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var (
		tran      *domain.Transaction
		rejection error
	)
	err := c.uow.Do(ctx, domain.LockNumbers(accountNumber), func(repos Repositories) error {
		account, err := repos.Accounts().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		// 餘額不足：記錄失敗交易，unit 正常 commit
		if !account.CanDebit(amount) {
			failed := domain.NewWithdrawal(account, amount, domain.TransactionStatusFailed)
			if err := repos.Transactions().Append(ctx, failed); err != nil {
				return fmt.Errorf("failed to append failed withdrawal: %w", err)
			}
			rejection = &domain.InsufficientBalanceError{
				AccountNumber: account.Number,
				Requested:     amount,
				Available:     account.Balance,
			}
			return nil
		}

		if err := account.Withdraw(amount); err != nil {
			return err
		}
		if err := repos.Accounts().Update(ctx, account); err != nil {
			return fmt.Errorf("failed to update account %s: %w", account.Number, err)
		}

		tran = domain.NewWithdrawal(account, amount, domain.TransactionStatusSuccess)
		if err := repos.Transactions().Append(ctx, tran); err != nil {
			return fmt.Errorf("failed to append withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		zap.L().Info("Withdrawal rejected", zap.String("account_number", accountNumber), zap.Error(rejection))
		return nil, rejection
	}

	view := newTransactionView(tran, accountNumber, "")
	zap.L().Info("Withdrawal processed",
		zap.Int64("transaction_id", view.ID),
		zap.String("account_number", accountNumber),
		zap.String("amount", amount.String()))
	return view, nil
}

// Transfer 轉帳
//
// 檢查順序:
//  1. 來源與目的相同 → domain.ErrInvalidOperation (不查帳戶、不寫紀錄)
//  2. 來源、目的帳戶是否存在 (先檢查來源)
//  3. 來源餘額不足 → 寫入 FAILED 交易後回傳 *domain.InsufficientBalanceError
//  4. 扣款、入帳、寫入 SUCCESS 交易 (同一個 unit)
func (c *CoreUseCase) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal) (*TransactionView, error) {
	if fromNumber == toNumber {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", domain.ErrInvalidOperation)
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var (
		tran      *domain.Transaction
		rejection error
	)
	// 兩個帳號依固定順序上鎖，與誰是來源無關
	err := c.uow.Do(ctx, domain.LockNumbers(fromNumber, toNumber), func(repos Repositories) error {
		from, err := repos.Accounts().GetByNumber(ctx, fromNumber)
		if err != nil {
			return err
		}
		to, err := repos.Accounts().GetByNumber(ctx, toNumber)
		if err != nil {
			return err
		}

		if !from.CanDebit(amount) {
			failed := domain.NewTransfer(from, to, amount, domain.TransactionStatusFailed)
			if err := repos.Transactions().Append(ctx, failed); err != nil {
				return fmt.Errorf("failed to append failed transfer: %w", err)
			}
			rejection = &domain.InsufficientBalanceError{
				AccountNumber: from.Number,
				Requested:     amount,
				Available:     from.Balance,
			}
			return nil
		}

		if err := from.Withdraw(amount); err != nil {
			return err
		}
		if err := to.Deposit(amount); err != nil {
			return err
		}
		if err := repos.Accounts().Update(ctx, from); err != nil {
			return fmt.Errorf("failed to update account %s: %w", from.Number, err)
		}
		if err := repos.Accounts().Update(ctx, to); err != nil {
			return fmt.Errorf("failed to update account %s: %w", to.Number, err)
		}

		tran = domain.NewTransfer(from, to, amount, domain.TransactionStatusSuccess)
		if err := repos.Transactions().Append(ctx, tran); err != nil {
			return fmt.Errorf("failed to append transfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejection != nil {
		zap.L().Info("Transfer rejected",
			zap.String("from_account", fromNumber),
			zap.String("to_account", toNumber),
			zap.Error(rejection))
		return nil, rejection
	}

	view := newTransactionView(tran, fromNumber, toNumber)
	zap.L().Info("Transfer processed",
		zap.Int64("transaction_id", view.ID),
		zap.String("from_account", fromNumber),
		zap.String("to_account", toNumber),
		zap.String("amount", amount.String()))
	return view, nil
}
