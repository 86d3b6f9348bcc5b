package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// CreateUser 建立使用者，Email 必須唯一 (區分大小寫)
func (c *CoreUseCase) CreateUser(ctx context.Context, name, email string) (*UserView, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidOperation)
	}

	exists, err := c.uow.Reader().Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
	}

	user := domain.NewUser(name, email)
	err = c.uow.Do(ctx, nil, func(repos Repositories) error {
		return repos.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("User created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return newUserView(user), nil
}

// GetUser 依 ID 查詢使用者
func (c *CoreUseCase) GetUser(ctx context.Context, userID int64) (*UserView, error) {
	user, err := c.uow.Reader().Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newUserView(user), nil
}
