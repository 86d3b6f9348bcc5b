package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor 記錄每個請求的方法、耗時與狀態碼
func LoggingInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", code.String()),
		}
		switch code {
		case codes.OK:
			zap.L().Debug("gRPC request", fields...)
		case codes.Internal, codes.DataLoss, codes.Unknown:
			zap.L().Error("gRPC request failed", append(fields, zap.Error(err))...)
		default:
			zap.L().Info("gRPC request rejected", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
