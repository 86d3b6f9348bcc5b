package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// toStatus 將 domain 錯誤轉成 gRPC status
//
// 對照:
//
//	ErrAccountNotFound / ErrUserNotFound         → NotFound
//	ErrInsufficientBalance                       → FailedPrecondition
//	ErrInvalidOperation / 金額錯誤                → InvalidArgument
//	ErrDuplicateEmail                            → AlreadyExists
//	ErrConcurrentModification                    → Aborted (可重試)
//	ErrBalanceMismatch                           → DataLoss
//	其他                                         → Internal (訊息不外流，只寫 log)
func toStatus(method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrAmountMustBePositive),
		errors.Is(err, domain.ErrInvalidAmount):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrBalanceMismatch):
		return status.Error(codes.DataLoss, err.Error())
	}

	zap.L().Error("Unexpected error", zap.String("method", method), zap.Error(err))
	return status.Error(codes.Internal, "internal server error")
}
