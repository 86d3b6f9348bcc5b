package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// CreateAccount 為既有使用者開立新帳戶 (餘額 0)
//
// 每次嘗試都是獨立的 unit：先用 ExistsByNumber 過濾碰撞，
// 真正的唯一性由 Create 寫入時保證，碰撞則換號重試，超過上限回傳 domain.ErrAccountNumberExhausted
func (c *CoreUseCase) CreateAccount(ctx context.Context, userID int64) (*AccountView, error) {
	reader := c.uow.Reader()
	user, err := reader.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.maxNumberAttempts; attempt++ {
		number, err := c.numbers.Next()
		if err != nil {
			return nil, err
		}

		exists, err := reader.Accounts().ExistsByNumber(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("failed to check account number: %w", err)
		}
		if exists {
			zap.L().Debug("Account number collision", zap.String("account_number", number), zap.Int("attempt", attempt))
			continue
		}

		account := domain.NewAccount(number, user.ID)
		err = c.uow.Do(ctx, nil, func(repos Repositories) error {
			return repos.Accounts().Create(ctx, account)
		})
		if errors.Is(err, domain.ErrDuplicateAccountNumber) {
			zap.L().Debug("Account number taken at write time", zap.String("account_number", number), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}

		zap.L().Info("Account created",
			zap.Int64("account_id", account.ID),
			zap.String("account_number", account.Number),
			zap.Int64("user_id", user.ID))
		return newAccountView(account, user), nil
	}

	return nil, fmt.Errorf("%w after %d attempts", domain.ErrAccountNumberExhausted, c.maxNumberAttempts)
}

// GetAccount 依帳號查詢帳戶
func (c *CoreUseCase) GetAccount(ctx context.Context, accountNumber string) (*AccountView, error) {
	reader := c.uow.Reader()
	account, err := reader.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return c.accountView(ctx, reader, account)
}

// GetAccountByID 依內部 ID 查詢帳戶
func (c *CoreUseCase) GetAccountByID(ctx context.Context, accountID int64) (*AccountView, error) {
	reader := c.uow.Reader()
	account, err := reader.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return c.accountView(ctx, reader, account)
}

func (c *CoreUseCase) accountView(ctx context.Context, reader Repositories, account *domain.Account) (*AccountView, error) {
	user, err := reader.Users().GetByID(ctx, account.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner of account %s: %w", account.Number, err)
	}
	return newAccountView(account, user), nil
}
