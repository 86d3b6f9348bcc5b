package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 建立 zap Logger 並設為全域 (zap.L())
//
// 參數:
//
//	level: "debug", "info", "warn", "error"，空字串為 info
//	development: true 時使用 console 格式與彩色等級
//
// 回傳:
//
//	*zap.Logger: Logger 實例
//	func(): 程式結束前呼叫，flush 緩衝
//	error: 等級字串不合法或建立失敗
func New(level string, development bool) (*zap.Logger, func(), error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(l)

	cleanup := func() {
		if err := l.Sync(); err != nil && !isIgnorableSyncError(err) {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}
	return l, cleanup, nil
}

// ParseLevel 解析等級字串
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// stdout/stderr 為終端機時 Sync 會失敗，可忽略
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "inappropriate ioctl for device") ||
		strings.Contains(msg, "invalid argument")
}
